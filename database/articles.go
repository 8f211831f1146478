package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/finrag/helper"
	"github.com/siherrmann/finrag/model"
	loadSql "github.com/siherrmann/finrag/sql"
)

// ArticlesDBHandlerFunctions defines the interface for article store operations.
type ArticlesDBHandlerFunctions interface {
	UpsertArticle(ctx context.Context, indexName string, article *model.Article) error
	UpsertArticles(ctx context.Context, indexName string, articles []*model.Article) model.IndexReport
	SelectArticle(ctx context.Context, rid uuid.UUID) (*model.Article, error)
	SelectArticlesByIndex(ctx context.Context, indexName string, limit int) ([]*model.Article, error)
	SelectArticlesByHybrid(ctx context.Context, indexName string, query string, embedding []float32, textWeight float64, limit int) ([]*model.Article, error)
	CountArticles(ctx context.Context, indexName string) (int64, error)
	DeleteArticle(ctx context.Context, rid uuid.UUID) error
	DeleteArticlesByIndex(ctx context.Context, indexName string) (int64, error)
}

// ArticlesDBHandler handles article-related database operations.
// Articles are grouped by index name and unique per (index name, url).
type ArticlesDBHandler struct {
	db           *helper.Database
	embeddingDim int
}

// NewArticlesDBHandler creates a new articles database handler.
// It loads the article SQL functions and creates the table with a vector column of embeddingDim.
// If force is true, it will reload the SQL functions even if they already exist.
func NewArticlesDBHandler(db *helper.Database, embeddingDim int, force bool) (*ArticlesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if embeddingDim <= 0 {
		return nil, helper.NewError("embedding dimension validation", fmt.Errorf("embedding dimension must be positive, got %d", embeddingDim))
	}

	articlesDbHandler := &ArticlesDBHandler{
		db:           db,
		embeddingDim: embeddingDim,
	}

	err := loadSql.LoadArticlesSql(articlesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load articles sql", err)
	}

	err = articlesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ArticlesDBHandler", "embedding_dim", embeddingDim)

	return articlesDbHandler, nil
}

// CreateTable creates the 'articles' table with its full-text and vector indexes.
// If the table already exists, it does not create it again.
func (h *ArticlesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_articles($1);`, h.embeddingDim)
	if err != nil {
		return helper.NewError("init articles", err)
	}

	h.db.Logger.Info("Checked/created table articles")

	return nil
}

// UpsertArticle inserts an article or replaces the stored article with the same url in the index.
// The article is updated in place with its stored identity and timestamps.
func (h *ArticlesDBHandler) UpsertArticle(ctx context.Context, indexName string, article *model.Article) error {
	if article == nil {
		return helper.NewError("article validation", fmt.Errorf("article is nil"))
	}
	if article.URL == "" {
		return helper.NewError("article validation", fmt.Errorf("article url is empty"))
	}
	if len(article.Embedding) > 0 && len(article.Embedding) != h.embeddingDim {
		return helper.NewError("article validation", fmt.Errorf("embedding dimension mismatch: expected %d, got %d", h.embeddingDim, len(article.Embedding)))
	}

	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM upsert_article($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		indexName,
		article.Title,
		article.Description,
		article.Content,
		article.FullText,
		article.URL,
		article.Source,
		article.Author,
		article.Company,
		article.PublishedAt,
		article.Entities,
		vectorParam(article.Embedding),
	)

	err := scanArticle(row, article)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// UpsertArticles writes each article and counts successes and failures.
// A failing article does not stop the remaining writes.
func (h *ArticlesDBHandler) UpsertArticles(ctx context.Context, indexName string, articles []*model.Article) model.IndexReport {
	report := model.IndexReport{}
	for _, article := range articles {
		if err := h.UpsertArticle(ctx, indexName, article); err != nil {
			report.Failed++
			url := ""
			if article != nil {
				url = article.URL
			}
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", url, err))
			h.db.Logger.Warn("Failed to index article", "url", url, "error", err.Error())
			continue
		}
		report.Indexed++
	}

	h.db.Logger.Info("Indexed articles", "index", indexName, "indexed", report.Indexed, "failed", report.Failed)

	return report
}

// SelectArticle retrieves an article by RID.
func (h *ArticlesDBHandler) SelectArticle(ctx context.Context, rid uuid.UUID) (*model.Article, error) {
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_article($1)`,
		rid,
	)

	article := &model.Article{}
	err := scanArticle(row, article)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return article, nil
}

// SelectArticlesByIndex retrieves the most recently written articles of an index.
func (h *ArticlesDBHandler) SelectArticlesByIndex(ctx context.Context, indexName string, limit int) ([]*model.Article, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_articles_by_index($1, $2)`,
		indexName,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var articles []*model.Article
	for rows.Next() {
		article := &model.Article{}
		err := scanArticle(rows, article)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		articles = append(articles, article)
	}

	if err = rows.Err(); err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return articles, nil
}

// SelectArticlesByHybrid runs the hybrid query and returns at most limit articles in
// descending combined score order. Score is textWeight*ts_rank_cd + (1-textWeight)*cosine
// similarity; only articles sharing a term with the query are candidates.
func (h *ArticlesDBHandler) SelectArticlesByHybrid(ctx context.Context, indexName string, query string, embedding []float32, textWeight float64, limit int) ([]*model.Article, error) {
	if len(embedding) != h.embeddingDim {
		return nil, helper.NewError("embedding validation", fmt.Errorf("embedding dimension mismatch: expected %d, got %d", h.embeddingDim, len(embedding)))
	}
	if limit <= 0 {
		return nil, helper.NewError("limit validation", fmt.Errorf("limit must be positive, got %d", limit))
	}

	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_articles_by_hybrid($1, $2, $3, $4, $5)`,
		indexName,
		query,
		pgvector.NewVector(embedding),
		textWeight,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var articles []*model.Article
	for rows.Next() {
		article := &model.Article{}
		err := rows.Scan(
			&article.ID,
			&article.RID,
			&article.IndexName,
			&article.Title,
			&article.Description,
			&article.Content,
			&article.FullText,
			&article.URL,
			&article.Source,
			&article.Author,
			&article.Company,
			&article.PublishedAt,
			&article.Entities,
			&article.CreatedAt,
			&article.UpdatedAt,
			&article.Score,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		articles = append(articles, article)
	}

	if err = rows.Err(); err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return articles, nil
}

// CountArticles returns the number of articles stored in an index.
func (h *ArticlesDBHandler) CountArticles(ctx context.Context, indexName string) (int64, error) {
	var count int64
	err := h.db.Instance.QueryRowContext(ctx, `SELECT count_articles($1)`, indexName).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// DeleteArticle deletes an article by RID.
func (h *ArticlesDBHandler) DeleteArticle(ctx context.Context, rid uuid.UUID) error {
	_, err := h.db.Instance.ExecContext(ctx, `SELECT delete_article($1)`, rid)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// DeleteArticlesByIndex deletes all articles of an index and returns how many were removed.
func (h *ArticlesDBHandler) DeleteArticlesByIndex(ctx context.Context, indexName string) (int64, error) {
	var deleted int64
	err := h.db.Instance.QueryRowContext(ctx, `SELECT delete_articles_by_index($1)`, indexName).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return deleted, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner, article *model.Article) error {
	var embedding sql.Null[pgvector.Vector]
	err := row.Scan(
		&article.ID,
		&article.RID,
		&article.IndexName,
		&article.Title,
		&article.Description,
		&article.Content,
		&article.FullText,
		&article.URL,
		&article.Source,
		&article.Author,
		&article.Company,
		&article.PublishedAt,
		&article.Entities,
		&embedding,
		&article.CreatedAt,
		&article.UpdatedAt,
	)
	if err != nil {
		return err
	}

	article.Embedding = nil
	if embedding.Valid {
		article.Embedding = embedding.V.Slice()
	}

	return nil
}

func vectorParam(embedding []float32) any {
	if len(embedding) == 0 {
		return nil
	}
	return pgvector.NewVector(embedding)
}
