package websearch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Amritha902/infocruxapp/internal/api"
	"github.com/Amritha902/infocruxapp/internal/logger"
)

const DefaultCSEBaseURL = "https://www.googleapis.com/customsearch/v1"

// CSE queries the Google Custom Search JSON API.
type CSE struct {
	client     *api.Client
	apiKey     string
	engineID   string
	maxResults int
	retry      *api.RetryConfig
}

type CSEOption func(*CSE)

func WithCSEBaseURL(baseURL string) CSEOption {
	return func(c *CSE) {
		c.client = api.NewClient(api.WithBaseURL(baseURL), api.WithTimeout(15*time.Second), api.WithLogging(true))
	}
}

func WithCSERetry(cfg *api.RetryConfig) CSEOption {
	return func(c *CSE) {
		c.retry = cfg
	}
}

func NewCSE(apiKey, engineID string, maxResults int, opts ...CSEOption) (*CSE, error) {
	if apiKey == "" || engineID == "" {
		return nil, errors.New("custom search requires an API key and engine ID")
	}
	if maxResults <= 0 || maxResults > 10 {
		maxResults = 5
	}
	c := &CSE{
		client:     api.NewClient(api.WithBaseURL(DefaultCSEBaseURL), api.WithTimeout(15*time.Second), api.WithLogging(true)),
		apiKey:     apiKey,
		engineID:   engineID,
		maxResults: maxResults,
		retry:      api.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type cseResponse struct {
	Items []struct {
		Title       string `json:"title"`
		Link        string `json:"link"`
		Snippet     string `json:"snippet"`
		DisplayLink string `json:"displayLink"`
	} `json:"items"`
}

func (c *CSE) Search(ctx context.Context, query string) (string, error) {
	results, err := c.Query(ctx, query)
	if err != nil {
		return "", err
	}
	return Digest(query, results), nil
}

func (c *CSE) Query(ctx context.Context, query string) ([]Result, error) {
	req := api.NewRequest(http.MethodGet, "").
		WithContext(ctx).
		WithQuery(url.Values{
			"key": {c.apiKey},
			"cx":  {c.engineID},
			"q":   {query},
			"num": {strconv.Itoa(c.maxResults)},
		})

	resp, err := c.client.DoWithRetry(req, c.retry)
	if err != nil {
		return nil, fmt.Errorf("custom search: %w", err)
	}

	var body cseResponse
	if err := resp.ParseJSON(&body); err != nil {
		return nil, fmt.Errorf("custom search: %w", err)
	}

	results := make([]Result, 0, len(body.Items))
	for _, it := range body.Items {
		if it.Link == "" {
			continue
		}
		results = append(results, Result{Title: it.Title, URL: it.Link, Snippet: it.Snippet, Source: it.DisplayLink})
	}
	logger.Debug(ctx, "Custom search completed", "query", query, "results", len(results))
	return results, nil
}
