package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Article is a news article as fetched, enriched and stored.
// Score is set by hybrid queries only and never persisted.
type Article struct {
	ID          int64     `json:"-"`
	RID         uuid.UUID `json:"rid,omitempty"`
	IndexName   string    `json:"index_name,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	FullText    string    `json:"full_text,omitempty"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Author      string    `json:"author,omitempty"`
	Company     string    `json:"company,omitempty"`
	PublishedAt string    `json:"published_at"`
	Entities    Entities  `json:"entities,omitempty"`
	Embedding   []float32 `json:"embedding,omitempty"`
	Score       float64   `json:"score"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

// ComposeFullText joins title, description and content the way they are embedded.
func (a *Article) ComposeFullText() string {
	return a.Title + " " + a.Description + " " + a.Content
}

// HasBody reports whether the article carries a description or content.
func (a *Article) HasBody() bool {
	return strings.TrimSpace(a.Description) != "" || strings.TrimSpace(a.Content) != ""
}

// Entity is a named entity mention found in an article.
type Entity struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// Entities is an ordered entity list stored as JSONB.
type Entities []Entity

// Value implements the driver.Valuer interface for database storage
func (e Entities) Value() (driver.Value, error) {
	if e == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(e)
}

// Scan implements the sql.Scanner interface for database retrieval
func (e *Entities) Scan(value interface{}) error {
	if value == nil {
		*e = Entities{}
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		s, isString := value.(string)
		if !isString {
			return fmt.Errorf("byte assertion: type assertion to []byte failed for %T", value)
		}
		b = []byte(s)
	}

	return json.Unmarshal(b, e)
}

// Dedupe returns the entities in first-seen order with duplicate (text, type) pairs removed.
func (e Entities) Dedupe() Entities {
	seen := make(map[Entity]struct{}, len(e))
	out := make(Entities, 0, len(e))
	for _, entity := range e {
		if _, ok := seen[entity]; ok {
			continue
		}
		seen[entity] = struct{}{}
		out = append(out, entity)
	}
	return out
}
