package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/siherrmann/finrag/core/fetcher"
	"github.com/siherrmann/finrag/core/ingest"
	"github.com/siherrmann/finrag/core/pipeline"
	"github.com/spf13/cobra"
)

var (
	flagCompany   string
	flagDays      int
	flagOutput    string
	flagSkipFetch bool
	flagSkipIndex bool
	flagIndexName string
	flagSource    string
	flagFeeds     []string
	flagLimit     int
	flagWatchDir  string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch, enrich and index articles about a company",
	Example: `  finrag ingest --company Tesla --days 7
  finrag ingest --company Tesla --source rss --feed https://example.com/markets.rss
  finrag ingest --skip-fetch --output articles.jsonl`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !flagSkipFetch && flagCompany == "" {
			return fmt.Errorf("--company is required unless --skip-fetch is set")
		}

		config, err := loadConfig()
		if err != nil {
			return err
		}
		if flagIndexName != "" {
			config.Store.IndexName = flagIndexName
		}
		logger := newLogger(config)

		var newsFetcher fetcher.Fetcher
		if !flagSkipFetch {
			newsFetcher, err = newFetcher()
			if err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var ingestor *ingest.Ingestor
		if flagSkipIndex {
			p, err := pipeline.NewDefaultPipeline()
			if err != nil {
				return err
			}
			ingestor, err = ingest.NewIngestor(newsFetcher, p, nil, logger)
			if err != nil {
				return err
			}
		} else {
			f, err := openFinrag(ctx, config, logger, setup{withPipeline: true})
			if err != nil {
				return err
			}
			defer f.Close()

			ingestor, err = f.NewIngestor(newsFetcher)
			if err != nil {
				return err
			}
		}

		report, err := ingestor.Run(ctx, ingestOptions(config.Store.IndexName))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Fetched:   %d\n", report.Fetched)
		fmt.Fprintf(out, "Processed: %d\n", report.Processed)
		fmt.Fprintf(out, "Output:    %s\n", report.Output)
		if report.Index != "" {
			fmt.Fprintf(out, "Indexed:   %d\n", report.Indexing.Indexed)
			fmt.Fprintf(out, "Failed:    %d\n", report.Indexing.Failed)
			fmt.Fprintf(out, "Index:     %s\n", report.Index)
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Index every JSONL file written to a directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(config)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		f, err := openFinrag(ctx, config, logger, setup{})
		if err != nil {
			return err
		}
		defer f.Close()

		return f.NewWatcher().Watch(ctx, flagWatchDir)
	},
}

func init() {
	ingestCmd.Flags().StringVar(&flagCompany, "company", "", "company name to search for")
	ingestCmd.Flags().IntVar(&flagDays, "days", 7, "number of days to look back")
	ingestCmd.Flags().StringVar(&flagOutput, "output", "articles.jsonl", "JSONL file to append to (relative to JSON_DIR)")
	ingestCmd.Flags().BoolVar(&flagSkipFetch, "skip-fetch", false, "load articles from the output file instead of fetching")
	ingestCmd.Flags().BoolVar(&flagSkipIndex, "skip-index", false, "do not write to the article store")
	ingestCmd.Flags().StringVar(&flagIndexName, "index-name", "", "logical index to write to (default from config)")
	ingestCmd.Flags().StringVar(&flagSource, "source", "newsapi", "news source: newsapi or rss")
	ingestCmd.Flags().StringSliceVar(&flagFeeds, "feed", nil, "RSS feed URL, repeatable (with --source rss)")
	ingestCmd.Flags().IntVar(&flagLimit, "limit", fetcher.DefaultLimit, "maximum number of articles to keep")

	watchCmd.Flags().StringVar(&flagWatchDir, "dir", ".", "directory to watch for *.jsonl files")
}
