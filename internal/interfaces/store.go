package interfaces

import (
	"context"

	"github.com/Amritha902/infocruxapp/internal/types"
)

// AnnouncementStore looks announcements up by exact symbol. Lookups of an
// unknown symbol return a nil record and a nil error.
type AnnouncementStore interface {
	FindBySymbol(ctx context.Context, symbol string) (*types.Announcement, error)
	FilterByRiskThreshold(ctx context.Context, minScore float64) ([]types.Announcement, error)
	ListAnnouncements(ctx context.Context) ([]types.Announcement, error)
}

// MarketStore serves the dashboard views.
type MarketStore interface {
	Holdings(ctx context.Context) ([]types.Holding, error)
	Watchlist(ctx context.Context) ([]types.WatchlistItem, error)
	News(ctx context.Context) ([]types.NewsItem, error)
	LiveRisk(ctx context.Context) ([]types.LiveRiskItem, error)
	FindStock(ctx context.Context, symbol string) (*types.StockData, error)
}

type DataStore interface {
	AnnouncementStore
	MarketStore
	Close() error
}
