package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeIndexType(t *testing.T) {
	database := initDB(t)

	articlesDbHandler, err := NewArticlesDBHandler(database, testDim, true)
	require.NoError(t, err, "Expected NewArticlesDBHandler to not return an error")

	ctx := context.Background()

	tests := []struct {
		name      string
		indexType string
		params    VectorIndexParams
	}{
		{"Change index to HNSW with default params", "hnsw", VectorIndexParams{}},
		{"Change index to HNSW with custom params", "hnsw", VectorIndexParams{M: 32, EfConstruction: 128}},
		{"Change index to IVFFlat with default params", "ivfflat", VectorIndexParams{}},
		{"Change index to IVFFlat with custom params", "ivfflat", VectorIndexParams{Lists: 200}},
		{"Change index back to HNSW", "hnsw", VectorIndexParams{M: 16, EfConstruction: 64}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := articlesDbHandler.ChangeIndexType(ctx, tt.indexType, tt.params)
			assert.NoError(t, err, "Expected ChangeIndexType to not return an error")

			var method string
			err = database.Instance.QueryRow(`
				SELECT am.amname
				FROM pg_class c JOIN pg_am am ON am.oid = c.relam
				WHERE c.relname = 'idx_articles_embedding';
			`).Scan(&method)
			require.NoError(t, err)
			assert.Equal(t, tt.indexType, method)
		})
	}

	t.Run("Change index with unsupported index type", func(t *testing.T) {
		err := articlesDbHandler.ChangeIndexType(ctx, "invalid", VectorIndexParams{})
		assert.Error(t, err, "Expected error when using unsupported index type")
		assert.Contains(t, err.Error(), "unsupported index type", "Expected error message to mention unsupported index type")
	})
}
