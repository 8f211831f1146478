package helper

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

const (
	connectAttempts = 30
	connectInterval = 2 * time.Second
)

// DatabaseConfiguration holds the connection parameters of the Postgres store.
type DatabaseConfiguration struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	Schema   string
	SSLMode  string
}

// Database wraps a Postgres connection pool together with its logger.
type Database struct {
	Name     string
	Instance *sql.DB
	Logger   *slog.Logger
}

// NewDatabaseConfiguration reads the database configuration from the environment.
// A .env file in the working directory is loaded first if present.
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	_ = godotenv.Load()

	config := &DatabaseConfiguration{
		Host:     os.Getenv("DB_HOST"),
		Port:     os.Getenv("DB_PORT"),
		Database: os.Getenv("DB_DATABASE"),
		Username: os.Getenv("DB_USERNAME"),
		Password: os.Getenv("DB_PASSWORD"),
		Schema:   os.Getenv("DB_SCHEMA"),
		SSLMode:  os.Getenv("DB_SSLMODE"),
	}
	if config.Host == "" {
		config.Host = "localhost"
	}
	if config.Port == "" {
		config.Port = "5432"
	}
	if config.Schema == "" {
		config.Schema = "public"
	}
	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}

	if config.Database == "" || config.Username == "" {
		return nil, NewError("database configuration", fmt.Errorf("DB_DATABASE and DB_USERNAME must be set"))
	}
	if _, err := strconv.Atoi(config.Port); err != nil {
		return nil, NewError("database configuration", fmt.Errorf("invalid DB_PORT %q: %w", config.Port, err))
	}

	return config, nil
}

// DSN returns the connection string for lib/pq.
func (c *DatabaseConfiguration) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Username, c.Password),
		Host:   c.Host + ":" + c.Port,
		Path:   c.Database,
	}
	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	q.Set("search_path", c.Schema)
	u.RawQuery = q.Encode()
	return u.String()
}

// NewDatabase opens the connection pool and waits until the database accepts connections.
func NewDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) (*Database, error) {
	if config == nil {
		return nil, NewError("open database", fmt.Errorf("database configuration is nil"))
	}
	if logger == nil {
		logger = NewLogger(os.Stdout, false)
	}

	instance, err := sql.Open("postgres", config.DSN())
	if err != nil {
		return nil, NewError("open database", err)
	}
	instance.SetMaxOpenConns(25)
	instance.SetMaxIdleConns(5)
	instance.SetConnMaxLifetime(30 * time.Minute)

	db := &Database{Name: name, Instance: instance, Logger: logger}
	if err := db.waitForConnection(context.Background()); err != nil {
		_ = instance.Close()
		return nil, NewError("connect database", err)
	}

	logger.Info("Connected to database", slog.String("name", name), slog.String("host", config.Host), slog.String("database", config.Database))
	return db, nil
}

// NewTestDatabase connects to a test database and aborts the process on failure.
func NewTestDatabase(config *DatabaseConfiguration) *Database {
	db, err := NewDatabase("test", config, NewLogger(os.Stdout, false))
	if err != nil {
		log.Fatalf("error connecting to test database: %v", err)
	}
	return db
}

func (d *Database) waitForConnection(ctx context.Context) error {
	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, connectInterval)
		err = d.Instance.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}

		d.Logger.Debug("Database not ready", slog.Int("attempt", attempt), slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(connectInterval):
		}
	}
	return fmt.Errorf("database not reachable after %d attempts: %w", connectAttempts, err)
}

// Ping reports whether the database is currently reachable.
func (d *Database) Ping(ctx context.Context) error {
	return d.Instance.PingContext(ctx)
}

// Close closes the connection pool.
func (d *Database) Close() {
	if d == nil || d.Instance == nil {
		return
	}
	if err := d.Instance.Close(); err != nil {
		d.Logger.Error("Error closing database", slog.String("error", err.Error()))
	}
}
