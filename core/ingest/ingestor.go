package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/siherrmann/finrag/core/fetcher"
	"github.com/siherrmann/finrag/helper"
	"github.com/siherrmann/finrag/model"
)

// ArticleProcessor enriches an article with full text, entities and embedding.
type ArticleProcessor interface {
	ProcessArticle(article *model.Article) error
}

// ArticleIndexer writes enriched articles to the store.
type ArticleIndexer interface {
	UpsertArticles(ctx context.Context, indexName string, articles []*model.Article) model.IndexReport
}

// IngestOptions mirrors the flags of the ingest command.
type IngestOptions struct {
	Company   string
	Days      int
	Output    string
	SkipFetch bool
	SkipIndex bool
	Index     string
	Limit     int
}

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	Fetched   int               `json:"fetched"`
	Processed int               `json:"processed"`
	Output    string            `json:"output"`
	Index     string            `json:"index,omitempty"`
	Indexing  model.IndexReport `json:"indexing"`
}

// Ingestor runs fetch, enrich, persist and index.
type Ingestor struct {
	fetcher   fetcher.Fetcher
	processor ArticleProcessor
	indexer   ArticleIndexer
	logger    *slog.Logger
	now       func() time.Time
}

// NewIngestor creates an ingestor. fetcher may be nil when only SkipFetch runs are made,
// indexer may be nil when only SkipIndex runs are made.
func NewIngestor(f fetcher.Fetcher, processor ArticleProcessor, indexer ArticleIndexer, logger *slog.Logger) (*Ingestor, error) {
	if processor == nil {
		return nil, helper.NewError("ingest configuration", fmt.Errorf("article processor is nil"))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		fetcher:   f,
		processor: processor,
		indexer:   indexer,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Run executes one ingestion. An empty fetch is not an error.
func (i *Ingestor) Run(ctx context.Context, opts IngestOptions) (*IngestReport, error) {
	if opts.Output == "" {
		opts.Output = "articles.jsonl"
	}
	if opts.Index == "" {
		opts.Index = model.DefaultConfig().Store.IndexName
	}
	if opts.Limit <= 0 {
		opts.Limit = fetcher.DefaultLimit
	}

	report := &IngestReport{Output: ResolvePath(opts.Output)}

	var articles []*model.Article
	if !opts.SkipFetch {
		fetched, err := i.fetchAndProcess(ctx, opts, report)
		if err != nil {
			return report, err
		}
		articles = fetched
	} else {
		loaded, err := LoadJSONL(report.Output)
		if err != nil {
			return report, helper.NewError("load articles", err)
		}
		i.logger.Info("Loaded articles", "count", len(loaded), "path", report.Output)
		articles = loaded
	}

	if len(articles) == 0 {
		i.logger.Info("No articles found")
		return report, nil
	}

	if opts.SkipIndex {
		return report, nil
	}
	if i.indexer == nil {
		return report, helper.NewError("ingest configuration", fmt.Errorf("no article store configured"))
	}

	report.Index = opts.Index
	report.Indexing = i.indexer.UpsertArticles(ctx, opts.Index, articles)
	i.logger.Info("Indexed articles", "index", opts.Index, "indexed", report.Indexing.Indexed, "failed", report.Indexing.Failed)
	for _, e := range report.Indexing.Errors {
		i.logger.Warn("Error indexing article", "error", e)
	}
	return report, nil
}

func (i *Ingestor) fetchAndProcess(ctx context.Context, opts IngestOptions, report *IngestReport) ([]*model.Article, error) {
	if i.fetcher == nil {
		return nil, helper.NewError("ingest configuration", fmt.Errorf("no news fetcher configured"))
	}
	if opts.Company == "" {
		return nil, helper.NewError("ingest configuration", fmt.Errorf("company must not be empty"))
	}

	query := fetcher.NewFetchQuery(opts.Company, opts.Days, i.now())
	query.Limit = opts.Limit

	i.logger.Info("Fetching articles", "company", opts.Company, "days", opts.Days)
	articles, err := i.fetcher.Fetch(ctx, query)
	if err != nil {
		return nil, helper.NewError("fetch articles", err)
	}
	report.Fetched = len(articles)
	if len(articles) == 0 {
		return articles, nil
	}

	for n, article := range articles {
		if err := ctx.Err(); err != nil {
			return nil, helper.NewError("process articles", err)
		}
		i.logger.Debug("Processing article", "n", n+1, "of", len(articles), "title", article.Title)
		if err := i.processor.ProcessArticle(article); err != nil {
			i.logger.Warn("Error enriching article", "url", article.URL, "error", err.Error())
		}
		report.Processed++
	}

	if err := AppendJSONL(report.Output, articles); err != nil {
		return nil, helper.NewError("save articles", err)
	}
	i.logger.Info("Saved articles", "count", len(articles), "path", report.Output)
	return articles, nil
}
