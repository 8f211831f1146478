package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/siherrmann/finrag/model"
)

// EmbedFunc is a function that generates embeddings for text.
// It must be deterministic for identical input.
type EmbedFunc func(text string) ([]float32, error)

// EntityExtractFunc extracts named entities from text.
type EntityExtractFunc func(text string) (model.Entities, error)

// Pipeline enriches articles with entities and embeddings.
type Pipeline struct {
	Embedder        EmbedFunc
	EntityExtractor EntityExtractFunc // Optional
}

// NewPipeline creates a new processing pipeline
func NewPipeline(embedder EmbedFunc) *Pipeline {
	return &Pipeline{
		Embedder: embedder,
	}
}

// SetEntityExtractor sets the entity extraction function
func (p *Pipeline) SetEntityExtractor(extractor EntityExtractFunc) {
	p.EntityExtractor = extractor
}

// Embed embeds a single text, typically a question.
func (p *Pipeline) Embed(text string) ([]float32, error) {
	if p.Embedder == nil {
		return nil, fmt.Errorf("embedder not set")
	}
	return p.Embedder(text)
}

// ProcessArticle sets the full text, entities and embedding of an article.
// Extraction and embedding failures leave the entities empty or the embedding
// unset; the article stays usable and the failures are returned joined.
func (p *Pipeline) ProcessArticle(article *model.Article) error {
	article.FullText = article.ComposeFullText()
	article.Entities = model.Entities{}
	article.Embedding = nil

	if strings.TrimSpace(article.FullText) == "" {
		return nil
	}

	var errs []error

	if p.EntityExtractor != nil {
		entities, err := p.EntityExtractor(article.FullText)
		if err != nil {
			errs = append(errs, fmt.Errorf("extract entities: %w", err))
		} else if entities != nil {
			article.Entities = entities.Dedupe()
		}
	}

	if p.Embedder != nil {
		embedding, err := p.Embedder(article.FullText)
		if err != nil {
			errs = append(errs, fmt.Errorf("generate embedding: %w", err))
		} else {
			article.Embedding = embedding
		}
	}

	return errors.Join(errs...)
}

// NewDefaultPipeline creates a pipeline with the default hugot embedder and entity extractor.
func NewDefaultPipeline() (*Pipeline, error) {
	embedder, err := DefaultEmbedder()
	if err != nil {
		return nil, fmt.Errorf("create default embedder: %w", err)
	}
	extractor, err := DefaultEntityExtractor()
	if err != nil {
		return nil, fmt.Errorf("create default entity extractor: %w", err)
	}

	p := NewPipeline(embedder)
	p.SetEntityExtractor(extractor)
	return p, nil
}
