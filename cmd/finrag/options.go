package main

import (
	"fmt"
	"os"

	"github.com/siherrmann/finrag/core/fetcher"
	"github.com/siherrmann/finrag/core/ingest"
)

// newFetcher builds the fetcher selected by --source.
func newFetcher() (fetcher.Fetcher, error) {
	switch flagSource {
	case "newsapi":
		return fetcher.NewNewsAPI(os.Getenv("NEWS_API_KEY"))
	case "rss":
		if len(flagFeeds) == 0 {
			return nil, fmt.Errorf("--feed is required with --source rss")
		}
		return fetcher.NewRSS(flagFeeds...), nil
	default:
		return nil, fmt.Errorf("unknown source %q, use newsapi or rss", flagSource)
	}
}

func ingestOptions(indexName string) ingest.IngestOptions {
	return ingest.IngestOptions{
		Company:   flagCompany,
		Days:      flagDays,
		Output:    flagOutput,
		SkipFetch: flagSkipFetch,
		SkipIndex: flagSkipIndex,
		Index:     indexName,
		Limit:     flagLimit,
	}
}
