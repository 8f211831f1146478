package model

import (
	"fmt"
	"time"

	"github.com/samber/mo"
)

const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

// Config is the effective configuration of a finrag deployment.
// It is passed by value; use WithOverrides to derive a per-call copy.
type Config struct {
	Store     StoreConfig     `yaml:"store" json:"store"`
	LLM       LLMConfig       `yaml:"llm" json:"llm"`
	Retrieval RetrievalConfig `yaml:"retrieval" json:"retrieval"`
	Agent     AgentConfig     `yaml:"agent" json:"agent"`
}

// StoreConfig selects the logical index and the vector dimension of the article store.
type StoreConfig struct {
	IndexName    string `yaml:"index_name" json:"index_name"`
	EmbeddingDim int    `yaml:"embedding_dim" json:"embedding_dim"`
}

// LLMConfig configures the answer generator.
type LLMConfig struct {
	Provider    string  `yaml:"provider" json:"provider"`
	Host        string  `yaml:"host" json:"host"`
	Model       string  `yaml:"model" json:"model"`
	Temperature float64 `yaml:"temperature" json:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens"`
}

// RetrievalConfig controls the hybrid query.
//
// MinScore is compared against the combined score
// TextWeight*ts_rank_cd + (1-TextWeight)*cosine similarity. ts_rank_cd is
// unnormalized, so a useful threshold depends on the indexed corpus and has to
// be tuned per deployment.
type RetrievalConfig struct {
	Size         int     `yaml:"size" json:"size"`
	MinScore     float64 `yaml:"min_score" json:"min_score"`
	TextWeight   float64 `yaml:"text_weight" json:"text_weight"`
	ContentChars int     `yaml:"content_chars" json:"content_chars"`
}

// AgentConfig holds workflow settings. TimeoutSeconds bounds each generation call.
type AgentConfig struct {
	Verbose        bool `yaml:"verbose" json:"verbose"`
	TimeoutSeconds int  `yaml:"timeout" json:"timeout"`
}

// Timeout returns the generation timeout as a duration.
func (a AgentConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// AskOverrides carries optional per-call retrieval settings.
type AskOverrides struct {
	Size     mo.Option[int]
	MinScore mo.Option[float64]
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Store: StoreConfig{
			IndexName:    "finance_articles",
			EmbeddingDim: 384,
		},
		LLM: LLMConfig{
			Provider:    ProviderOllama,
			Host:        "http://localhost:11434",
			Model:       "mistral",
			Temperature: 0.1,
			MaxTokens:   512,
		},
		Retrieval: RetrievalConfig{
			Size:         5,
			MinScore:     0.5,
			TextWeight:   0.5,
			ContentChars: 500,
		},
		Agent: AgentConfig{
			Verbose:        false,
			TimeoutSeconds: 30,
		},
	}
}

// WithOverrides returns a copy of c with the present override values applied.
func (c Config) WithOverrides(o AskOverrides) Config {
	if size, ok := o.Size.Get(); ok {
		c.Retrieval.Size = size
	}
	if minScore, ok := o.MinScore.Get(); ok {
		c.Retrieval.MinScore = minScore
	}
	return c
}

// Validate checks that the configuration can be used.
func (c Config) Validate() error {
	if c.Store.IndexName == "" {
		return fmt.Errorf("store index name must not be empty")
	}
	if c.Store.EmbeddingDim <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", c.Store.EmbeddingDim)
	}
	switch c.LLM.Provider {
	case ProviderOllama, ProviderGemini:
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm model must not be empty")
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm max tokens must be positive, got %d", c.LLM.MaxTokens)
	}
	if c.Retrieval.Size <= 0 {
		return fmt.Errorf("retrieval size must be positive, got %d", c.Retrieval.Size)
	}
	if c.Retrieval.TextWeight < 0 || c.Retrieval.TextWeight > 1 {
		return fmt.Errorf("retrieval text weight must be in [0,1], got %v", c.Retrieval.TextWeight)
	}
	if c.Retrieval.ContentChars < 0 {
		return fmt.Errorf("retrieval content chars must not be negative, got %d", c.Retrieval.ContentChars)
	}
	if c.Agent.TimeoutSeconds <= 0 {
		return fmt.Errorf("agent timeout must be positive, got %d", c.Agent.TimeoutSeconds)
	}
	return nil
}
