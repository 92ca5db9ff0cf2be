package websearch

import (
	"context"
	"strings"
	"time"

	"github.com/Amritha902/infocruxapp/internal/cache"
	"github.com/Amritha902/infocruxapp/internal/interfaces"
	"github.com/Amritha902/infocruxapp/internal/logger"
)

// Cached remembers digests per normalized query. Errors are not cached.
type Cached struct {
	next  interfaces.WebSearcher
	cache *cache.TTL[string]
}

func NewCached(next interfaces.WebSearcher, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		cache: cache.New[string](ttl, 10*time.Minute),
	}
}

func (c *Cached) Search(ctx context.Context, query string) (string, error) {
	key := strings.ToLower(strings.Join(strings.Fields(query), " "))
	if digest, ok := c.cache.Get(key); ok {
		logger.Debug(ctx, "Using cached web search", "query", query)
		return digest, nil
	}

	digest, err := c.next.Search(ctx, query)
	if err != nil {
		return "", err
	}
	c.cache.Set(key, digest)
	return digest, nil
}

func (c *Cached) Close() {
	c.cache.Close()
}
