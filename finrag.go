package finrag

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/siherrmann/finrag/core/agent"
	"github.com/siherrmann/finrag/core/fetcher"
	"github.com/siherrmann/finrag/core/ingest"
	"github.com/siherrmann/finrag/core/llm"
	"github.com/siherrmann/finrag/core/pipeline"
	"github.com/siherrmann/finrag/core/retrieval"
	"github.com/siherrmann/finrag/database"
	"github.com/siherrmann/finrag/helper"
	"github.com/siherrmann/finrag/model"
	loadSql "github.com/siherrmann/finrag/sql"
)

// Finrag wires the article store, the enrichment pipeline, retrieval and the answering agent.
type Finrag struct {
	DB        *helper.Database
	Articles  *database.ArticlesDBHandler
	Pipeline  *pipeline.Pipeline // Optional enrichment pipeline
	Engine    *retrieval.Engine
	Agent     *agent.Agent
	Generator llm.Generator
	// Internal
	config   model.Config
	messages agent.MessageLog
	log      *slog.Logger
}

// Option configures a Finrag instance.
type Option func(*Finrag)

// WithLogger replaces the default pretty logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Finrag) { f.log = logger }
}

// WithGenerator sets the language model used for answers.
func WithGenerator(generator llm.Generator) Option {
	return func(f *Finrag) { f.Generator = generator }
}

// WithPipeline sets the enrichment pipeline; its embedder is also used for questions.
func WithPipeline(p *pipeline.Pipeline) Option {
	return func(f *Finrag) { f.Pipeline = p }
}

// WithMessageLog records every question and answer.
func WithMessageLog(log agent.MessageLog) Option {
	return func(f *Finrag) { f.messages = log }
}

// NewFinrag connects to the database, prepares the articles table and builds the agent.
func NewFinrag(dbConfig *helper.DatabaseConfiguration, config model.Config, opts ...Option) (*Finrag, error) {
	if err := config.Validate(); err != nil {
		return nil, helper.NewError("finrag configuration", err)
	}

	f := &Finrag{config: config}
	for _, opt := range opts {
		opt(f)
	}
	if f.log == nil {
		f.log = helper.NewLogger(os.Stdout, config.Agent.Verbose)
	}

	db, err := helper.NewDatabase("finrag", dbConfig, f.log)
	if err != nil {
		return nil, helper.NewError("connect database", err)
	}

	err = loadSql.Init(db.Instance)
	if err != nil {
		db.Close()
		return nil, helper.NewError("initialize database extensions", err)
	}

	articles, err := database.NewArticlesDBHandler(db, config.Store.EmbeddingDim, false)
	if err != nil {
		db.Close()
		return nil, helper.NewError("create articles handler", err)
	}

	f.DB = db
	f.Articles = articles
	f.Engine = retrieval.NewEngine(articles, f.embed, f.log)

	agentOpts := []agent.Option{agent.WithLogger(f.log)}
	if f.messages != nil {
		agentOpts = append(agentOpts, agent.WithMessageLog(f.messages))
	}
	f.Agent, err = agent.NewAgent(f.Engine, f.Generator, config, agentOpts...)
	if err != nil {
		db.Close()
		return nil, helper.NewError("create agent", err)
	}

	return f, nil
}

// embed delegates to the current pipeline so SetPipeline takes effect for retrieval.
func (f *Finrag) embed(text string) ([]float32, error) {
	if f.Pipeline == nil {
		return nil, fmt.Errorf("pipeline not set, use SetPipeline() first")
	}
	return f.Pipeline.Embed(text)
}

// Config returns the configuration snapshot.
func (f *Finrag) Config() model.Config {
	return f.config
}

// Close closes the generator if it holds resources and the database connection.
func (f *Finrag) Close() error {
	var err error
	if closer, ok := f.Generator.(io.Closer); ok {
		err = closer.Close()
	}
	if f.DB != nil && f.DB.Instance != nil {
		f.DB.Close()
	}
	return err
}

// SetPipeline sets the enrichment pipeline. Not safe while Ask calls are running.
func (f *Finrag) SetPipeline(p *pipeline.Pipeline) {
	f.Pipeline = p
}

// UseDefaultPipeline sets up the hugot embedding and NER pipeline.
// The configured embedding dimension has to match the default embedding model.
func (f *Finrag) UseDefaultPipeline() error {
	if f.config.Store.EmbeddingDim != pipeline.DefaultEmbeddingDim {
		return helper.NewError("create default pipeline", fmt.Errorf("embedding dimension %d does not match default model dimension %d", f.config.Store.EmbeddingDim, pipeline.DefaultEmbeddingDim))
	}

	p, err := pipeline.NewDefaultPipeline()
	if err != nil {
		return helper.NewError("create default pipeline", err)
	}

	f.Pipeline = p
	return nil
}

// ProcessAndInsertArticles enriches the articles and upserts them into the configured index.
// Enrichment failures are logged and the article is stored without the missing parts.
func (f *Finrag) ProcessAndInsertArticles(ctx context.Context, articles []*model.Article) (model.IndexReport, error) {
	if f.Pipeline == nil {
		return model.IndexReport{}, helper.NewError("process articles", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}

	for _, article := range articles {
		if err := f.Pipeline.ProcessArticle(article); err != nil {
			f.log.Warn("Error enriching article", slog.String("url", article.URL), slog.String("error", err.Error()))
		}
	}

	return f.Articles.UpsertArticles(ctx, f.config.Store.IndexName, articles), nil
}

// Ask answers a question from the configured index.
func (f *Finrag) Ask(ctx context.Context, question string, overrides model.AskOverrides) *model.AskResult {
	return f.Agent.Ask(ctx, question, overrides)
}

// NewIngestor returns an ingestor writing into this instance's store.
// newsFetcher may be nil for runs that only load a JSONL file.
func (f *Finrag) NewIngestor(newsFetcher fetcher.Fetcher) (*ingest.Ingestor, error) {
	if f.Pipeline == nil {
		return nil, helper.NewError("create ingestor", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}
	return ingest.NewIngestor(newsFetcher, f.Pipeline, f.Articles, f.log)
}

// NewWatcher returns a directory watcher indexing into the configured index.
func (f *Finrag) NewWatcher() *ingest.Watcher {
	return ingest.NewWatcher(f.Articles, f.config.Store.IndexName, f.log)
}

// Healthy reports whether the database answers.
func (f *Finrag) Healthy(ctx context.Context) bool {
	return f.DB != nil && f.DB.Ping(ctx) == nil
}

// ChangeIndexType changes the vector index type between HNSW and IVFFlat
func (f *Finrag) ChangeIndexType(ctx context.Context, indexType string, params database.VectorIndexParams) error {
	return f.Articles.ChangeIndexType(ctx, indexType, params)
}
