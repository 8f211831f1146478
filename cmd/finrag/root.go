package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/siherrmann/finrag"
	"github.com/siherrmann/finrag/core/agent"
	"github.com/siherrmann/finrag/core/llm"
	"github.com/siherrmann/finrag/helper"
	"github.com/siherrmann/finrag/model"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "finrag",
	Short: "Answer financial questions from indexed news articles",
	Long: `finrag fetches news articles about companies, enriches them with named entities
and embeddings, indexes them in Postgres and answers questions grounded in them.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env file is fine.
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (default $XDG_CONFIG_HOME/finrag/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "finrag %s (commit: %s)\n", version, commit)
	},
}

// loadConfig reads the effective configuration and applies the global flags.
func loadConfig() (model.Config, error) {
	config, err := helper.LoadConfig(flagConfig)
	if err != nil {
		return config, err
	}
	if flagVerbose {
		config.Agent.Verbose = true
	}
	return config, nil
}

func newLogger(config model.Config) *slog.Logger {
	return helper.NewLogger(os.Stderr, config.Agent.Verbose)
}

type setup struct {
	withGenerator bool
	withPipeline  bool
	withMessages  bool
}

// openFinrag connects everything a command needs. The caller closes the result.
func openFinrag(ctx context.Context, config model.Config, logger *slog.Logger, s setup) (*finrag.Finrag, error) {
	dbConfig, err := helper.NewDatabaseConfiguration()
	if err != nil {
		return nil, err
	}

	opts := []finrag.Option{finrag.WithLogger(logger)}

	if s.withGenerator {
		generator, err := llm.NewGenerator(ctx, config.LLM, os.Getenv("GEMINI_API_KEY"))
		if err != nil {
			return nil, err
		}
		if ollama, ok := generator.(*llm.Ollama); ok {
			if err := ollama.Ping(ctx); err != nil {
				logger.Warn("Ollama is not reachable, answers will fail until it is", "host", config.LLM.Host, "error", err.Error())
			}
		}
		opts = append(opts, finrag.WithGenerator(generator))
	}

	if s.withMessages {
		if log := redisMessageLog(ctx, logger); log != nil {
			opts = append(opts, finrag.WithMessageLog(log))
		}
	}

	f, err := finrag.NewFinrag(dbConfig, config, opts...)
	if err != nil {
		return nil, err
	}

	if s.withPipeline {
		if err := f.UseDefaultPipeline(); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return f, nil
}

// redisMessageLog connects to REDIS_ADDR when set. Without Redis no message log is kept.
func redisMessageLog(ctx context.Context, logger *slog.Logger) agent.MessageLog {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Redis not reachable, message log disabled", "addr", addr, "error", err.Error())
		_ = client.Close()
		return nil
	}

	logger.Info("Recording messages in redis", "addr", addr)
	return agent.NewRedisMessageLog(client, 7*24*time.Hour)
}
