package websearch

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"

	"github.com/Amritha902/infocruxapp/internal/api"
	"github.com/Amritha902/infocruxapp/internal/logger"
)

const DefaultNewsBaseURL = "https://news.google.com"

// ScraperConfig configures the Google News scraper.
type ScraperConfig struct {
	BaseURL     string
	MaxResults  int
	Timeout     time.Duration
	MinInterval time.Duration // minimum gap between outbound searches
}

func DefaultScraperConfig() ScraperConfig {
	return ScraperConfig{
		BaseURL:     DefaultNewsBaseURL,
		MaxResults:  5,
		Timeout:     20 * time.Second,
		MinInterval: 2 * time.Second,
	}
}

// NewsScraper answers queries from the Google News search page.
type NewsScraper struct {
	cfg     ScraperConfig
	limiter *rate.Limiter
	// colly collectors are not safe to share across concurrent visits
	mu sync.Mutex
}

func NewNewsScraper(cfg ScraperConfig) *NewsScraper {
	def := DefaultScraperConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = def.MaxResults
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}
	return &NewsScraper{
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (s *NewsScraper) Search(ctx context.Context, query string) (string, error) {
	results, err := s.Scrape(ctx, query)
	if err != nil {
		return "", err
	}
	return Digest(query, results), nil
}

// Scrape returns up to MaxResults articles for query.
func (s *NewsScraper) Scrape(ctx context.Context, query string) ([]Result, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	base := strings.TrimRight(s.cfg.BaseURL, "/")
	c := colly.NewCollector(
		colly.AllowedDomains(hostname(base)),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(s.cfg.Timeout)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		for k, v := range api.BrowserHeaders() {
			r.Headers.Set(k, v)
		}
	})

	var results []Result
	c.OnHTML("article", func(e *colly.HTMLElement) {
		if len(results) >= s.cfg.MaxResults {
			return
		}
		if r, ok := parseArticle(e.DOM, base); ok {
			results = append(results, r)
		}
	})

	var scrapeErr error
	c.OnError(func(r *colly.Response, err error) {
		scrapeErr = err
		logger.ErrorWithErr(ctx, "Scraping error", err, "url", r.Request.URL.String(), "status", r.StatusCode)
	})

	searchURL := fmt.Sprintf("%s/search?q=%s&hl=en-IN&gl=IN&ceid=IN:en", base, url.QueryEscape(query))
	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("failed to scrape Google News: %w", err)
	}
	c.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if scrapeErr != nil && len(results) == 0 {
		return nil, fmt.Errorf("failed to scrape Google News: %w", scrapeErr)
	}

	logger.Info(ctx, "Google News scraping completed", "query", query, "articles", len(results))
	return results, nil
}

// parseArticle reads one search result card.
func parseArticle(sel *goquery.Selection, base string) (Result, bool) {
	title := strings.TrimSpace(sel.Find("h3, h4").First().Text())
	if title == "" {
		title = strings.TrimSpace(sel.Find("a[aria-label]").First().AttrOr("aria-label", ""))
	}
	link, _ := sel.Find("a[href]").First().Attr("href")
	if title == "" || link == "" {
		return Result{}, false
	}

	// Google News links are relative to the site root.
	switch {
	case strings.HasPrefix(link, "./"):
		link = base + link[1:]
	case strings.HasPrefix(link, "/"):
		link = base + link
	}

	r := Result{Title: title, URL: link, Source: "Google News"}
	if src := strings.TrimSpace(sel.Find("[data-n-tid]").First().Text()); src != "" {
		r.Source = src
	}
	if ts, ok := sel.Find("time").First().Attr("datetime"); ok {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			r.Snippet = "Published " + t.UTC().Format("02 Jan 2006 15:04 MST")
		}
	}
	return r, true
}

func hostname(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
