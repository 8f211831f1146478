package database

import (
	"context"
	"fmt"
	"time"

	"github.com/siherrmann/finrag/helper"
)

// VectorIndexParams tunes vector index creation. Zero values use the pgvector defaults
// (HNSW: m 16, ef_construction 64; IVFFlat: lists 100).
type VectorIndexParams struct {
	M              int
	EfConstruction int
	Lists          int
}

// ChangeIndexType rebuilds the article embedding index as "hnsw" or "ivfflat".
func (h *ArticlesDBHandler) ChangeIndexType(ctx context.Context, indexType string, params VectorIndexParams) error {
	var createIndexSQL string

	switch indexType {
	case "hnsw":
		m := 16
		efConstruction := 64
		if params.M > 0 {
			m = params.M
		}
		if params.EfConstruction > 0 {
			efConstruction = params.EfConstruction
		}

		createIndexSQL = fmt.Sprintf(
			`CREATE INDEX idx_articles_embedding ON articles USING hnsw (embedding vector_cosine_ops) WITH (m = %d, ef_construction = %d);`,
			m, efConstruction,
		)

	case "ivfflat":
		lists := 100
		if params.Lists > 0 {
			lists = params.Lists
		}

		createIndexSQL = fmt.Sprintf(
			`CREATE INDEX idx_articles_embedding ON articles USING ivfflat (embedding vector_cosine_ops) WITH (lists = %d);`,
			lists,
		)

	default:
		return helper.NewError("change index type", fmt.Errorf("unsupported index type: %s (use 'hnsw' or 'ivfflat')", indexType))
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	tx, err := h.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return helper.NewError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `DROP INDEX IF EXISTS idx_articles_embedding;`)
	if err != nil {
		return helper.NewError("drop index", err)
	}

	_, err = tx.ExecContext(ctx, createIndexSQL)
	if err != nil {
		return helper.NewError("create index", err)
	}

	if err = tx.Commit(); err != nil {
		return helper.NewError("commit index change", err)
	}

	h.db.Logger.Info("Changed vector index", "type", indexType, "m", params.M, "ef_construction", params.EfConstruction, "lists", params.Lists)

	return nil
}
