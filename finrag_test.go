package finrag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/samber/mo"
	"github.com/siherrmann/finrag/core/agent"
	"github.com/siherrmann/finrag/core/ingest"
	"github.com/siherrmann/finrag/core/llm"
	"github.com/siherrmann/finrag/core/pipeline"
	"github.com/siherrmann/finrag/helper"
	"github.com/siherrmann/finrag/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEmbedder maps texts onto three topic axes so cosine similarity is predictable.
func testEmbedder(text string) ([]float32, error) {
	lower := strings.ToLower(text)
	embedding := []float32{0.01, 0.01, 0.01}
	if strings.Contains(lower, "tesla") {
		embedding[0] = 1
	}
	if strings.Contains(lower, "apple") {
		embedding[1] = 1
	}
	if strings.Contains(lower, "bank") {
		embedding[2] = 1
	}
	return embedding, nil
}

type staticGenerator struct {
	answer  string
	err     error
	prompts []string
}

func (g *staticGenerator) Generate(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.answer, g.err
}

func testConfig() model.Config {
	config := model.DefaultConfig()
	config.Store.IndexName = "finrag_" + uuid.NewString()
	config.Store.EmbeddingDim = 3
	config.Retrieval.MinScore = 0.1
	return config
}

func initFinrag(t *testing.T, config model.Config, opts ...Option) *Finrag {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")

	f, err := NewFinrag(dbConfig, config, opts...)
	require.NoError(t, err, "failed to create finrag")
	require.NotNil(t, f)

	t.Cleanup(func() {
		_ = f.Close()
	})

	return f
}

func testArticles() []*model.Article {
	return []*model.Article{
		{Title: "Tesla deliveries beat estimates", Content: "Tesla delivered a record number of vehicles.", URL: "https://example.com/tesla-1", Source: "Reuters"},
		{Title: "Apple earnings", Content: "Apple reported strong iPhone sales.", URL: "https://example.com/apple-1", Source: "Bloomberg"},
	}
}

func TestNewFinrag(t *testing.T) {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err)

	t.Run("Valid call NewFinrag", func(t *testing.T) {
		f, err := NewFinrag(dbConfig, testConfig())
		require.NoError(t, err, "Expected NewFinrag to not return an error")
		assert.NotNil(t, f.DB, "Expected finrag to have a database instance")
		assert.NotNil(t, f.Articles, "Expected finrag to have an articles handler")
		assert.NotNil(t, f.Engine, "Expected finrag to have a retrieval engine")
		assert.NotNil(t, f.Agent, "Expected finrag to have an agent")
		assert.Nil(t, f.Pipeline, "Expected pipeline to be nil initially")

		assert.NoError(t, f.Close())
	})

	t.Run("Invalid configuration", func(t *testing.T) {
		config := testConfig()
		config.Retrieval.Size = 0

		_, err := NewFinrag(dbConfig, config)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "finrag configuration")
	})

	t.Run("Nil database configuration", func(t *testing.T) {
		_, err := NewFinrag(nil, testConfig())
		assert.Error(t, err)
	})

	t.Run("Finrag with nil database handles Close gracefully", func(t *testing.T) {
		f := &Finrag{}
		assert.NoError(t, f.Close())
	})
}

func TestFinragUseDefaultPipeline(t *testing.T) {
	f := &Finrag{config: testConfig()}

	err := f.UseDefaultPipeline()
	require.Error(t, err, "Expected a dimension mismatch for a 3 dimensional store")
	assert.Nil(t, f.Pipeline)
}

func TestFinragProcessAndAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing pipeline", func(t *testing.T) {
		f := initFinrag(t, testConfig())

		_, err := f.ProcessAndInsertArticles(ctx, testArticles())
		assert.Error(t, err)
	})

	t.Run("Indexed articles answer questions", func(t *testing.T) {
		generator := &staticGenerator{answer: "Tesla delivered a record number of vehicles."}
		f := initFinrag(t, testConfig(), WithGenerator(generator), WithPipeline(pipeline.NewPipeline(testEmbedder)))

		report, err := f.ProcessAndInsertArticles(ctx, testArticles())
		require.NoError(t, err)
		assert.Equal(t, 2, report.Indexed)

		count, err := f.Articles.CountArticles(ctx, f.Config().Store.IndexName)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		result := f.Ask(ctx, "What did Tesla deliver?", model.AskOverrides{})
		assert.Equal(t, model.OutcomeAnswered, result.Outcome)
		require.NotEmpty(t, result.Articles)
		assert.Equal(t, "https://example.com/tesla-1", result.Articles[0].URL)
		require.Len(t, generator.prompts, 1)
		assert.Contains(t, generator.prompts[0], "Tesla deliveries beat estimates")
	})

	t.Run("Unknown topic falls back", func(t *testing.T) {
		generator := &staticGenerator{answer: "unused"}
		f := initFinrag(t, testConfig(), WithGenerator(generator), WithPipeline(pipeline.NewPipeline(testEmbedder)))

		_, err := f.ProcessAndInsertArticles(ctx, testArticles())
		require.NoError(t, err)

		result := f.Ask(ctx, "Outlook for Acme Corp?", model.AskOverrides{})
		assert.Equal(t, model.OutcomeNoArticles, result.Outcome)
		assert.Contains(t, result.Answer, agent.IngestHint)
		assert.Empty(t, generator.prompts)
	})

	t.Run("High min score override falls back", func(t *testing.T) {
		f := initFinrag(t, testConfig(), WithGenerator(&staticGenerator{answer: "unused"}), WithPipeline(pipeline.NewPipeline(testEmbedder)))

		_, err := f.ProcessAndInsertArticles(ctx, testArticles())
		require.NoError(t, err)

		result := f.Ask(ctx, "What did Tesla deliver?", model.AskOverrides{MinScore: mo.Some(100.0)})
		assert.Equal(t, model.OutcomeNoArticles, result.Outcome)
	})

	t.Run("Generator failure", func(t *testing.T) {
		f := initFinrag(t, testConfig(), WithGenerator(&staticGenerator{err: errors.New("model not found")}), WithPipeline(pipeline.NewPipeline(testEmbedder)))

		_, err := f.ProcessAndInsertArticles(ctx, testArticles())
		require.NoError(t, err)

		result := f.Ask(ctx, "What did Tesla deliver?", model.AskOverrides{})
		assert.Equal(t, model.OutcomeGenerationFailed, result.Outcome)
		assert.Equal(t, "Error generating answer: model not found", result.Answer)
	})

	t.Run("Message log records the turn", func(t *testing.T) {
		log := agent.NewMemoryMessageLog()
		f := initFinrag(t, testConfig(), WithGenerator(&staticGenerator{answer: "Answer."}), WithPipeline(pipeline.NewPipeline(testEmbedder)), WithMessageLog(log))

		f.Ask(agent.WithSession(ctx, "facade"), "What did Tesla deliver?", model.AskOverrides{})

		history, err := log.History(ctx, "facade")
		require.NoError(t, err)
		assert.Len(t, history, 2)
	})
}

func TestFinragIngestor(t *testing.T) {
	ctx := context.Background()
	f := initFinrag(t, testConfig(), WithPipeline(pipeline.NewPipeline(testEmbedder)))

	output := t.TempDir() + "/articles.jsonl"
	require.NoError(t, ingest.AppendJSONL(output, testArticles()))

	ingestor, err := f.NewIngestor(nil)
	require.NoError(t, err)

	report, err := ingestor.Run(ctx, ingest.IngestOptions{SkipFetch: true, Output: output, Index: f.Config().Store.IndexName})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Indexing.Indexed)

	assert.True(t, f.Healthy(ctx))
}
