package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/siherrmann/finrag/helper"
	"github.com/siherrmann/finrag/model"
)

const DefaultNewsAPIURL = "https://newsapi.org"

// NewsAPI fetches articles from the newsapi.org everything endpoint.
type NewsAPI struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewNewsAPI creates a client for apiKey. An empty key is a configuration error.
func NewNewsAPI(apiKey string) (*NewsAPI, error) {
	if apiKey == "" {
		return nil, helper.NewError("news api configuration", fmt.Errorf("NEWS_API_KEY is not set"))
	}
	return &NewsAPI{
		baseURL: DefaultNewsAPIURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// WithBaseURL points the client at another host, mostly for tests.
func (n *NewsAPI) WithBaseURL(baseURL string) *NewsAPI {
	n.baseURL = baseURL
	return n
}

type newsAPIResponse struct {
	Status   string           `json:"status"`
	Code     string           `json:"code"`
	Message  string           `json:"message"`
	Articles []newsAPIArticle `json:"articles"`
}

type newsAPIArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
}

// Fetch queries the everything endpoint and keeps at most query.Limit articles with a body.
func (n *NewsAPI) Fetch(ctx context.Context, query FetchQuery) ([]*model.Article, error) {
	params := url.Values{}
	params.Set("q", query.Company)
	params.Set("from", query.From.Format(time.DateOnly))
	params.Set("to", query.To.Format(time.DateOnly))
	params.Set("language", query.Language)
	params.Set("sortBy", "relevancy")
	params.Set("pageSize", "100")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/v2/everything?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-Api-Key", n.apiKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching news: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var parsed newsAPIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || parsed.Status == "error" {
		return nil, fmt.Errorf("news api returned status %d: %s %s", resp.StatusCode, parsed.Code, parsed.Message)
	}

	articles := make([]*model.Article, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		var more bool
		articles, more = keep(articles, &model.Article{
			Title:       a.Title,
			Description: a.Description,
			Content:     a.Content,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
			Source:      a.Source.Name,
			Author:      a.Author,
			Company:     query.Company,
		}, query.Limit)
		if !more {
			break
		}
	}
	return articles, nil
}
