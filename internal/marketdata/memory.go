package marketdata

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/Amritha902/infocruxapp/internal/interfaces"
	"github.com/Amritha902/infocruxapp/internal/types"
)

// MemoryStore serves a Dataset from process memory. Records are never
// mutated after construction, so it is safe for concurrent use.
type MemoryStore struct {
	data Dataset
}

var _ interfaces.DataStore = (*MemoryStore)(nil)

// NewMemoryStore serves the seed dataset stamped at the current time.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreFrom(Seed(time.Now()))
}

func NewMemoryStoreFrom(data Dataset) *MemoryStore {
	return &MemoryStore{data: data}
}

// FindBySymbol returns the announcement whose symbol equals sym exactly, or
// nil when there is none.
func (s *MemoryStore) FindBySymbol(_ context.Context, sym string) (*types.Announcement, error) {
	for _, a := range s.data.Announcements {
		if a.Symbol == sym {
			return cloneAnnouncement(a), nil
		}
	}
	return nil, nil
}

// FilterByRiskThreshold returns announcements scoring at least minScore,
// highest score first.
func (s *MemoryStore) FilterByRiskThreshold(_ context.Context, minScore float64) ([]types.Announcement, error) {
	var out []types.Announcement
	for _, a := range s.data.Announcements {
		if a.RiskScore >= minScore {
			out = append(out, *cloneAnnouncement(a))
		}
	}
	sortByRisk(out)
	return out, nil
}

// ListAnnouncements returns every announcement, newest first.
func (s *MemoryStore) ListAnnouncements(_ context.Context) ([]types.Announcement, error) {
	out := make([]types.Announcement, 0, len(s.data.Announcements))
	for _, a := range s.data.Announcements {
		out = append(out, *cloneAnnouncement(a))
	}
	sortByTime(out)
	return out, nil
}

func (s *MemoryStore) Holdings(_ context.Context) ([]types.Holding, error) {
	return slices.Clone(s.data.Holdings), nil
}

func (s *MemoryStore) Watchlist(_ context.Context) ([]types.WatchlistItem, error) {
	return slices.Clone(s.data.Watchlist), nil
}

// News returns news items newest first.
func (s *MemoryStore) News(_ context.Context) ([]types.NewsItem, error) {
	out := slices.Clone(s.data.News)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (s *MemoryStore) LiveRisk(_ context.Context) ([]types.LiveRiskItem, error) {
	return slices.Clone(s.data.LiveRisk), nil
}

// FindStock merges holding and watchlist data for sym, or returns nil when
// neither knows it.
func (s *MemoryStore) FindStock(_ context.Context, sym string) (*types.StockData, error) {
	return findStock(sym, s.data.Holdings, s.data.Watchlist, s.data.Announcements), nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// findStock prefers the holding for price data and the watchlist, then the
// announcement, for the risk score.
func findStock(sym string, holdings []types.Holding, watchlist []types.WatchlistItem, anns []types.Announcement) *types.StockData {
	var sd *types.StockData
	for _, h := range holdings {
		if h.Symbol == sym {
			h := h
			sd = &types.StockData{
				Symbol: h.Symbol, Name: h.Name, Price: h.LTP,
				Change: h.DayChange, ChangePercentage: h.DayChangePercentage,
				Holding: &h,
			}
			break
		}
	}
	for _, w := range watchlist {
		if w.Symbol != sym {
			continue
		}
		score := w.RiskScore
		if sd == nil {
			sd = &types.StockData{
				Symbol: w.Symbol, Name: w.Name, Price: w.Price,
				Change: w.Change, ChangePercentage: w.ChangePercentage,
			}
		}
		sd.RiskScore = &score
		break
	}
	if sd != nil && sd.RiskScore == nil {
		for _, a := range anns {
			if a.Symbol == sym {
				score := a.RiskScore
				sd.RiskScore = &score
				break
			}
		}
	}
	return sd
}

func sortByRisk(anns []types.Announcement) {
	sort.SliceStable(anns, func(i, j int) bool { return anns[i].RiskScore > anns[j].RiskScore })
}

func sortByTime(anns []types.Announcement) {
	sort.SliceStable(anns, func(i, j int) bool { return anns[i].Timestamp.After(anns[j].Timestamp) })
}

func cloneAnnouncement(a types.Announcement) *types.Announcement {
	a.Drivers = slices.Clone(a.Drivers)
	if a.PortfolioExposure != nil {
		v := *a.PortfolioExposure
		a.PortfolioExposure = &v
	}
	if a.PortfolioImpact != nil {
		v := *a.PortfolioImpact
		a.PortfolioImpact = &v
	}
	return &a
}
