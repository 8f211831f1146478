package helper

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatabaseConfiguration(t *testing.T) {
	t.Run("Reads environment with defaults", func(t *testing.T) {
		t.Setenv("DB_HOST", "")
		t.Setenv("DB_PORT", "")
		t.Setenv("DB_DATABASE", "finrag")
		t.Setenv("DB_USERNAME", "analyst")
		t.Setenv("DB_PASSWORD", "secret")
		t.Setenv("DB_SCHEMA", "")
		t.Setenv("DB_SSLMODE", "")

		config, err := NewDatabaseConfiguration()
		require.NoError(t, err)
		assert.Equal(t, "localhost", config.Host)
		assert.Equal(t, "5432", config.Port)
		assert.Equal(t, "finrag", config.Database)
		assert.Equal(t, "analyst", config.Username)
		assert.Equal(t, "public", config.Schema)
		assert.Equal(t, "disable", config.SSLMode)
	})

	t.Run("Missing database name is a configuration error", func(t *testing.T) {
		t.Setenv("DB_DATABASE", "")
		t.Setenv("DB_USERNAME", "analyst")

		_, err := NewDatabaseConfiguration()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "database configuration")
	})

	t.Run("Invalid port is a configuration error", func(t *testing.T) {
		t.Setenv("DB_DATABASE", "finrag")
		t.Setenv("DB_USERNAME", "analyst")
		t.Setenv("DB_PORT", "postgres")

		_, err := NewDatabaseConfiguration()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "DB_PORT")
	})
}

func TestDatabaseConfigurationDSN(t *testing.T) {
	config := &DatabaseConfiguration{
		Host:     "db.internal",
		Port:     "5433",
		Database: "finrag",
		Username: "analyst",
		Password: "p@ss word",
		Schema:   "news",
		SSLMode:  "require",
	}

	dsn, err := url.Parse(config.DSN())
	require.NoError(t, err)
	assert.Equal(t, "postgres", dsn.Scheme)
	assert.Equal(t, "db.internal:5433", dsn.Host)
	assert.Equal(t, "/finrag", dsn.Path)
	assert.Equal(t, "analyst", dsn.User.Username())
	password, _ := dsn.User.Password()
	assert.Equal(t, "p@ss word", password)
	assert.Equal(t, "require", dsn.Query().Get("sslmode"))
	assert.Equal(t, "news", dsn.Query().Get("search_path"))
}

func TestNewDatabaseNilConfiguration(t *testing.T) {
	_, err := NewDatabase("test", nil, nil)
	assert.Error(t, err)
}
