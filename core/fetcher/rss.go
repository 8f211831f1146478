package fetcher

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/siherrmann/finrag/model"
)

// RSS fetches articles mentioning the company from a fixed set of feeds.
type RSS struct {
	parser *gofeed.Parser
	feeds  []string
}

// NewRSS creates a fetcher over the given feed URLs.
func NewRSS(feeds ...string) *RSS {
	return &RSS{parser: gofeed.NewParser(), feeds: feeds}
}

// Fetch reads every feed in order. A feed that cannot be parsed fails the fetch.
func (r *RSS) Fetch(ctx context.Context, query FetchQuery) ([]*model.Article, error) {
	if len(r.feeds) == 0 {
		return nil, fmt.Errorf("no feeds configured")
	}

	company := strings.ToLower(query.Company)
	articles := []*model.Article{}
	for _, feedURL := range r.feeds {
		feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", feedURL, err)
		}

		source := feed.Title
		if source == "" {
			source = feedURL
		}

		for _, item := range feed.Items {
			published := itemTime(item)
			if !published.IsZero() && (published.Before(query.From) || published.After(query.To)) {
				continue
			}

			article := &model.Article{
				Title:       item.Title,
				Description: stripHTML(item.Description),
				Content:     stripHTML(item.Content),
				URL:         item.Link,
				Source:      source,
				Company:     query.Company,
			}
			if !published.IsZero() {
				article.PublishedAt = published.UTC().Format(time.RFC3339)
			}
			if item.Author != nil {
				article.Author = item.Author.Name
			}
			if company != "" && !strings.Contains(strings.ToLower(article.ComposeFullText()), company) {
				continue
			}

			var more bool
			articles, more = keep(articles, article, query.Limit)
			if !more {
				return articles, nil
			}
		}
	}
	return articles, nil
}

func itemTime(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return time.Time{}
}

func stripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return html.UnescapeString(strings.Join(strings.Fields(b.String()), " "))
}
