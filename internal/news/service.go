package news

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Amritha902/infocruxapp/internal/cache"
	"github.com/Amritha902/infocruxapp/internal/interfaces"
	"github.com/Amritha902/infocruxapp/internal/logger"
	"github.com/Amritha902/infocruxapp/internal/types"
)

const feedCacheKey = "feed"

// Source supplies live news items for the tracked companies.
type Source interface {
	Fetch(ctx context.Context, companies []Company) ([]types.NewsItem, error)
}

// Service merges stored news with live feed items, caching the feed
type Service struct {
	store interfaces.MarketStore
	feed  Source
	cache *cache.TTL[[]types.NewsItem]
	cfg   *ServiceConfig
}

// ServiceConfig configures the news service
type ServiceConfig struct {
	CacheDuration time.Duration // How long to cache feed items
	MaxItems      int           // Cap on the merged list, 0 for no cap
	Enabled       bool          // Whether live feeds are read at all
}

// DefaultServiceConfig returns default configuration
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		CacheDuration: 15 * time.Minute,
		MaxItems:      50,
		Enabled:       true,
	}
}

// NewService creates a news service. A nil feed serves stored news only.
func NewService(store interfaces.MarketStore, feed Source, cfg *ServiceConfig) *Service {
	if cfg == nil {
		cfg = DefaultServiceConfig()
	}
	return &Service{
		store: store,
		feed:  feed,
		cache: cache.New[[]types.NewsItem](cfg.CacheDuration, 10*time.Minute),
		cfg:   cfg,
	}
}

// News returns stored news followed by feed items not already present.
// Feed failures degrade to stored news only.
func (s *Service) News(ctx context.Context) ([]types.NewsItem, error) {
	stored, err := s.store.News(ctx)
	if err != nil {
		return nil, err
	}

	live := s.liveItems(ctx)

	seen := make(map[string]bool, len(stored)+len(live))
	out := make([]types.NewsItem, 0, len(stored)+len(live))
	for _, list := range [][]types.NewsItem{stored, live} {
		for _, it := range list {
			key := strings.ToLower(strings.TrimSpace(it.Headline))
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, it)
		}
	}
	if s.cfg.MaxItems > 0 && len(out) > s.cfg.MaxItems {
		out = out[:s.cfg.MaxItems]
	}
	return out, nil
}

func (s *Service) liveItems(ctx context.Context) []types.NewsItem {
	if !s.cfg.Enabled || s.feed == nil {
		return nil
	}
	if cached, ok := s.cache.Get(feedCacheKey); ok {
		logger.Debug(ctx, "Using cached feed items", "items", len(cached))
		return cached
	}

	items, err := s.Refresh(ctx)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to refresh news feeds", err)
		return nil
	}
	return items
}

// Refresh re-reads the feeds, bypassing the cache.
func (s *Service) Refresh(ctx context.Context) ([]types.NewsItem, error) {
	holdings, err := s.store.Holdings(ctx)
	if err != nil {
		return nil, err
	}
	watchlist, err := s.store.Watchlist(ctx)
	if err != nil {
		return nil, err
	}

	items, err := s.feed.Fetch(ctx, CompaniesFrom(holdings, watchlist))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Timestamp.After(items[j].Timestamp) })
	s.cache.Set(feedCacheKey, items)
	return items, nil
}

// ClearCache drops cached feed items
func (s *Service) ClearCache() {
	s.cache.Clear()
}

func (s *Service) Close() {
	s.cache.Close()
}
