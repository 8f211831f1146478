package helper

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/adrg/xdg"
	"github.com/siherrmann/finrag/model"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath returns the per-user config file location.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "finrag", "config.yaml")
}

// LoadConfig builds the effective configuration: defaults, then the YAML file at
// path (or DefaultConfigPath when empty), then environment overrides.
// A missing config file is not an error.
func LoadConfig(path string) (model.Config, error) {
	config := model.DefaultConfig()

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil && !os.IsNotExist(err) {
		return config, NewError("read config", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return config, NewError(fmt.Sprintf("parse config %s", path), err)
		}
	}

	if err := applyEnv(&config); err != nil {
		return config, NewError("config environment", err)
	}

	if err := config.Validate(); err != nil {
		return config, NewError("validate config", err)
	}

	return config, nil
}

func applyEnv(config *model.Config) error {
	setString("STORE_INDEX", &config.Store.IndexName)
	setString("LLM_PROVIDER", &config.LLM.Provider)
	setString("LLM_HOST", &config.LLM.Host)
	setString("LLM_MODEL", &config.LLM.Model)

	ints := map[string]*int{
		"EMBEDDING_DIM":  &config.Store.EmbeddingDim,
		"LLM_MAX_TOKENS": &config.LLM.MaxTokens,
		"RETRIEVAL_SIZE": &config.Retrieval.Size,
		"AGENT_TIMEOUT":  &config.Agent.TimeoutSeconds,
	}
	for key, target := range ints {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", key, v, err)
			}
			*target = n
		}
	}

	floats := map[string]*float64{
		"LLM_TEMPERATURE":       &config.LLM.Temperature,
		"RETRIEVAL_MIN_SCORE":   &config.Retrieval.MinScore,
		"RETRIEVAL_TEXT_WEIGHT": &config.Retrieval.TextWeight,
	}
	for key, target := range floats {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", key, v, err)
			}
			*target = f
		}
	}

	if v, ok := os.LookupEnv("AGENT_VERBOSE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid AGENT_VERBOSE %q: %w", v, err)
		}
		config.Agent.Verbose = b
	}

	return nil
}

func setString(key string, target *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*target = v
	}
}
