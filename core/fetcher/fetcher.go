package fetcher

import (
	"context"
	"time"

	"github.com/siherrmann/finrag/model"
)

// DefaultLimit caps the number of articles kept per fetch.
const DefaultLimit = 50

// FetchQuery selects the articles to fetch for one company.
type FetchQuery struct {
	Company  string
	From     time.Time
	To       time.Time
	Language string
	Limit    int
}

// NewFetchQuery returns a query for company covering the last days days before now.
func NewFetchQuery(company string, days int, now time.Time) FetchQuery {
	if days <= 0 {
		days = 1
	}
	return FetchQuery{
		Company:  company,
		From:     now.AddDate(0, 0, -days),
		To:       now,
		Language: "en",
		Limit:    DefaultLimit,
	}
}

// Fetcher loads raw articles from a news source.
type Fetcher interface {
	Fetch(ctx context.Context, query FetchQuery) ([]*model.Article, error)
}

// keep appends article unless it has no body or the limit is reached.
// It reports whether more articles are accepted.
func keep(articles []*model.Article, article *model.Article, limit int) ([]*model.Article, bool) {
	if limit > 0 && len(articles) >= limit {
		return articles, false
	}
	if article.HasBody() {
		articles = append(articles, article)
	}
	return articles, limit <= 0 || len(articles) < limit
}
