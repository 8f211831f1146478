package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArticleComposeFullText(t *testing.T) {
	article := &Article{Title: "Tesla Q3", Description: "Deliveries up", Content: "Tesla delivered more cars."}

	assert.Equal(t, "Tesla Q3 Deliveries up Tesla delivered more cars.", article.ComposeFullText())
}

func TestArticleScoreJSON(t *testing.T) {
	t.Run("Zero score is kept", func(t *testing.T) {
		data, err := json.Marshal(&Article{URL: "https://example.com/a", Score: 0})
		require.NoError(t, err)
		assert.Contains(t, string(data), `"score":0`)
	})

	t.Run("Non-zero score is kept", func(t *testing.T) {
		data, err := json.Marshal(&Article{URL: "https://example.com/a", Score: 1.5})
		require.NoError(t, err)
		assert.Contains(t, string(data), `"score":1.5`)
	})
}

func TestArticleHasBody(t *testing.T) {
	tests := []struct {
		name     string
		article  Article
		expected bool
	}{
		{"Description only", Article{Description: "desc"}, true},
		{"Content only", Article{Content: "content"}, true},
		{"Whitespace only", Article{Title: "title", Description: "  ", Content: "\n"}, false},
		{"Empty", Article{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.article.HasBody())
		})
	}
}

func TestEntities(t *testing.T) {
	t.Run("Value of nil entities is an empty JSON array", func(t *testing.T) {
		var e Entities

		value, err := e.Value()
		require.NoError(t, err)
		assert.Equal(t, []byte("[]"), value)
	})

	t.Run("Scan JSONB bytes", func(t *testing.T) {
		var e Entities

		err := e.Scan([]byte(`[{"text":"Tesla","type":"ORG"},{"text":"Elon Musk","type":"PER"}]`))
		require.NoError(t, err)
		require.Len(t, e, 2)
		assert.Equal(t, Entity{Text: "Tesla", Type: "ORG"}, e[0])
		assert.Equal(t, Entity{Text: "Elon Musk", Type: "PER"}, e[1])
	})

	t.Run("Scan nil yields empty entities", func(t *testing.T) {
		e := Entities{{Text: "old", Type: "MISC"}}

		err := e.Scan(nil)
		require.NoError(t, err)
		assert.Empty(t, e)
	})

	t.Run("Scan unsupported type fails", func(t *testing.T) {
		var e Entities

		err := e.Scan(42)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "type assertion")
	})

	t.Run("Dedupe keeps first occurrence per text and type", func(t *testing.T) {
		e := Entities{
			{Text: "Apple", Type: "ORG"},
			{Text: "Cupertino", Type: "LOC"},
			{Text: "Apple", Type: "ORG"},
			{Text: "Apple", Type: "MISC"},
		}

		assert.Equal(t, Entities{
			{Text: "Apple", Type: "ORG"},
			{Text: "Cupertino", Type: "LOC"},
			{Text: "Apple", Type: "MISC"},
		}, e.Dedupe())
	})

	t.Run("Entities keep JSON field names", func(t *testing.T) {
		b, err := json.Marshal(Entities{{Text: "Tesla", Type: "ORG"}})
		require.NoError(t, err)
		assert.JSONEq(t, `[{"text":"Tesla","type":"ORG"}]`, string(b))
	})
}

func TestIndexReportAdd(t *testing.T) {
	report := IndexReport{Indexed: 2}

	report.Add(IndexReport{Indexed: 1, Failed: 1, Errors: []string{"https://example.com/a: duplicate"}})

	assert.Equal(t, 3, report.Indexed)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []string{"https://example.com/a: duplicate"}, report.Errors)
}
