package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/siherrmann/finrag/core/pipeline"
	"github.com/siherrmann/finrag/helper"
	"github.com/siherrmann/finrag/model"
)

// ArticleSearcher is the read path of the article store used for retrieval.
type ArticleSearcher interface {
	SelectArticlesByHybrid(ctx context.Context, indexName string, query string, embedding []float32, textWeight float64, limit int) ([]*model.Article, error)
}

// Engine provides hybrid lexical and semantic retrieval of articles.
type Engine struct {
	articles ArticleSearcher
	embed    pipeline.EmbedFunc
	logger   *slog.Logger
}

// NewEngine creates a new retrieval engine
func NewEngine(articles ArticleSearcher, embed pipeline.EmbedFunc, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		articles: articles,
		embed:    embed,
		logger:   logger,
	}
}

// Hybrid embeds the question, runs one hybrid query for at most config.Size articles
// and keeps those scoring at least config.MinScore in the store's order.
func (e *Engine) Hybrid(ctx context.Context, question string, indexName string, config model.RetrievalConfig) ([]*model.Article, error) {
	if e.articles == nil || e.embed == nil {
		return nil, helper.NewError("hybrid search", fmt.Errorf("retrieval engine not initialized"))
	}
	if config.Size <= 0 {
		return nil, helper.NewError("hybrid search", fmt.Errorf("size must be positive, got %d", config.Size))
	}

	embedding, err := e.embed(question)
	if err != nil {
		return nil, helper.NewError("generate embedding", err)
	}

	articles, err := e.articles.SelectArticlesByHybrid(ctx, indexName, question, embedding, config.TextWeight, config.Size)
	if err != nil {
		return nil, helper.NewError("hybrid query", err)
	}

	articles = FilterByMinScore(articles, config.MinScore)
	if len(articles) > config.Size {
		articles = articles[:config.Size]
	}
	return articles, nil
}

// Retrieve is Hybrid with failures logged and turned into an empty result.
func (e *Engine) Retrieve(ctx context.Context, question string, indexName string, config model.RetrievalConfig) []*model.Article {
	articles, err := e.Hybrid(ctx, question, indexName, config)
	if err != nil {
		e.logger.Warn("Error retrieving articles", "index", indexName, "error", err.Error())
		return []*model.Article{}
	}

	e.logger.Debug("Retrieved articles", "index", indexName, "count", len(articles), "min_score", config.MinScore)
	return articles
}

// FilterByMinScore keeps articles with a score of at least minScore, preserving order.
func FilterByMinScore(articles []*model.Article, minScore float64) []*model.Article {
	filtered := make([]*model.Article, 0, len(articles))
	for _, article := range articles {
		if article.Score >= minScore {
			filtered = append(filtered, article)
		}
	}
	return filtered
}
