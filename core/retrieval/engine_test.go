package retrieval

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/siherrmann/finrag/helper"
	"github.com/siherrmann/finrag/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	articles []*model.Article
	err      error

	calls      int
	lastLimit  int
	lastWeight float64
	lastQuery  string
}

func (f *fakeSearcher) SelectArticlesByHybrid(ctx context.Context, indexName string, query string, embedding []float32, textWeight float64, limit int) ([]*model.Article, error) {
	f.calls++
	f.lastLimit = limit
	f.lastWeight = textWeight
	f.lastQuery = query
	if f.err != nil {
		return nil, f.err
	}
	if len(f.articles) > limit {
		return f.articles[:limit], nil
	}
	return f.articles, nil
}

// unboundedSearcher returns every row regardless of the requested limit.
type unboundedSearcher struct {
	articles []*model.Article
}

func (u *unboundedSearcher) SelectArticlesByHybrid(ctx context.Context, indexName string, query string, embedding []float32, textWeight float64, limit int) ([]*model.Article, error) {
	return u.articles, nil
}

func staticEmbedder(text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func scored(url string, score float64) *model.Article {
	return &model.Article{URL: url, Score: score}
}

func TestEngineRetrieve(t *testing.T) {
	ctx := context.Background()
	config := model.RetrievalConfig{Size: 5, MinScore: 0.5, TextWeight: 0.5}

	t.Run("Filters by min score and keeps order", func(t *testing.T) {
		searcher := &fakeSearcher{articles: []*model.Article{scored("a", 2.1), scored("b", 0.9), scored("c", 0.5), scored("d", 0.3)}}
		engine := NewEngine(searcher, staticEmbedder, nil)

		articles := engine.Retrieve(ctx, "What did Tesla report?", "finance_articles", config)

		require.Len(t, articles, 3)
		assert.Equal(t, []string{"a", "b", "c"}, []string{articles[0].URL, articles[1].URL, articles[2].URL})
		assert.Equal(t, 1, searcher.calls, "Expected exactly one store query")
		assert.Equal(t, 5, searcher.lastLimit)
		assert.Equal(t, 0.5, searcher.lastWeight)
		assert.Equal(t, "What did Tesla report?", searcher.lastQuery)
	})

	t.Run("All below threshold yields empty result", func(t *testing.T) {
		searcher := &fakeSearcher{articles: []*model.Article{scored("a", 0.3), scored("b", 0.2)}}
		engine := NewEngine(searcher, staticEmbedder, nil)

		articles := engine.Retrieve(ctx, "What did Tesla report?", "finance_articles", config)

		assert.NotNil(t, articles)
		assert.Empty(t, articles)
	})

	t.Run("Store failure yields empty result and is logged", func(t *testing.T) {
		var buf bytes.Buffer
		searcher := &fakeSearcher{err: errors.New("connection refused")}
		engine := NewEngine(searcher, staticEmbedder, helper.NewLogger(&buf, false))

		articles := engine.Retrieve(ctx, "What did Tesla report?", "finance_articles", config)

		assert.NotNil(t, articles)
		assert.Empty(t, articles)
		assert.Contains(t, buf.String(), "connection refused")
	})

	t.Run("Embedding failure yields empty result without querying", func(t *testing.T) {
		searcher := &fakeSearcher{articles: []*model.Article{scored("a", 2)}}
		engine := NewEngine(searcher, func(text string) ([]float32, error) {
			return nil, errors.New("model not loaded")
		}, nil)

		articles := engine.Retrieve(ctx, "What did Tesla report?", "finance_articles", config)

		assert.Empty(t, articles)
		assert.Zero(t, searcher.calls)
	})

	t.Run("Size caps result count", func(t *testing.T) {
		searcher := &fakeSearcher{articles: []*model.Article{scored("a", 3), scored("b", 2), scored("c", 1)}}
		engine := NewEngine(searcher, staticEmbedder, nil)

		articles := engine.Retrieve(ctx, "q", "finance_articles", model.RetrievalConfig{Size: 2, MinScore: 0})

		assert.Len(t, articles, 2)
	})

	t.Run("Size caps result count when store returns more rows", func(t *testing.T) {
		searcher := &unboundedSearcher{articles: []*model.Article{scored("a", 3), scored("b", 2), scored("c", 1)}}
		engine := NewEngine(searcher, staticEmbedder, nil)

		articles := engine.Retrieve(ctx, "q", "finance_articles", model.RetrievalConfig{Size: 2, MinScore: 0})

		require.Len(t, articles, 2)
		assert.Equal(t, "a", articles[0].URL)
		assert.Equal(t, "b", articles[1].URL)
	})
}

func TestEngineHybrid(t *testing.T) {
	t.Run("Uninitialized engine fails", func(t *testing.T) {
		engine := NewEngine(nil, nil, nil)

		_, err := engine.Hybrid(context.Background(), "q", "idx", model.RetrievalConfig{Size: 1})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not initialized")
	})

	t.Run("Non-positive size fails", func(t *testing.T) {
		engine := NewEngine(&fakeSearcher{}, staticEmbedder, nil)

		_, err := engine.Hybrid(context.Background(), "q", "idx", model.RetrievalConfig{Size: 0})
		assert.Error(t, err)
	})
}

func TestFilterByMinScore(t *testing.T) {
	articles := []*model.Article{scored("a", 1.0), scored("b", 0.49999), scored("c", 0.5)}

	filtered := FilterByMinScore(articles, 0.5)

	require.Len(t, filtered, 2)
	assert.Equal(t, "a", filtered[0].URL)
	assert.Equal(t, "c", filtered[1].URL)
	for _, article := range filtered {
		assert.GreaterOrEqual(t, article.Score, 0.5)
	}
}
