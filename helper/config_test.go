package helper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/siherrmann/finrag/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearConfigEnv(t *testing.T) {
	for _, key := range []string{
		"STORE_INDEX", "EMBEDDING_DIM", "LLM_PROVIDER", "LLM_HOST", "LLM_MODEL",
		"LLM_TEMPERATURE", "LLM_MAX_TOKENS", "RETRIEVAL_SIZE", "RETRIEVAL_MIN_SCORE",
		"RETRIEVAL_TEXT_WEIGHT", "AGENT_VERBOSE", "AGENT_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func writeConfigFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("Missing file yields defaults", func(t *testing.T) {
		clearConfigEnv(t)

		config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		assert.Equal(t, model.DefaultConfig(), config)
	})

	t.Run("File values override defaults", func(t *testing.T) {
		clearConfigEnv(t)
		path := writeConfigFile(t, `
store:
  index_name: tech_articles
retrieval:
  size: 8
  min_score: 1.2
agent:
  verbose: true
`)

		config, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "tech_articles", config.Store.IndexName)
		assert.Equal(t, 8, config.Retrieval.Size)
		assert.Equal(t, 1.2, config.Retrieval.MinScore)
		assert.True(t, config.Agent.Verbose)
		assert.Equal(t, 0.5, config.Retrieval.TextWeight, "Expected unspecified values to keep defaults")
		assert.Equal(t, "mistral", config.LLM.Model)
	})

	t.Run("Environment overrides file", func(t *testing.T) {
		clearConfigEnv(t)
		path := writeConfigFile(t, "retrieval:\n  size: 8\n")
		t.Setenv("RETRIEVAL_SIZE", "3")
		t.Setenv("RETRIEVAL_TEXT_WEIGHT", "0.7")
		t.Setenv("LLM_MODEL", "llama3")
		t.Setenv("AGENT_VERBOSE", "true")
		t.Setenv("AGENT_TIMEOUT", "5")

		config, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 3, config.Retrieval.Size)
		assert.Equal(t, 0.7, config.Retrieval.TextWeight)
		assert.Equal(t, "llama3", config.LLM.Model)
		assert.True(t, config.Agent.Verbose)
		assert.Equal(t, 5, config.Agent.TimeoutSeconds)
	})

	t.Run("Invalid environment value fails", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("RETRIEVAL_SIZE", "many")

		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "RETRIEVAL_SIZE")
	})

	t.Run("Invalid YAML fails", func(t *testing.T) {
		clearConfigEnv(t)
		path := writeConfigFile(t, "retrieval: [unclosed")

		_, err := LoadConfig(path)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "parse config")
	})

	t.Run("Invalid values fail validation", func(t *testing.T) {
		clearConfigEnv(t)
		path := writeConfigFile(t, "retrieval:\n  text_weight: 2\n")

		_, err := LoadConfig(path)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "validate config")
	})
}

func TestDefaultConfigPath(t *testing.T) {
	assert.Equal(t, "config.yaml", filepath.Base(DefaultConfigPath()))
	assert.Equal(t, "finrag", filepath.Base(filepath.Dir(DefaultConfigPath())))
}
