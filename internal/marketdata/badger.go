package marketdata

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/Amritha902/infocruxapp/internal/interfaces"
	"github.com/Amritha902/infocruxapp/internal/logger"
	"github.com/Amritha902/infocruxapp/internal/types"
)

// BadgerStore keeps the dataset in an embedded badgerhold database.
type BadgerStore struct {
	store *badgerhold.Store
	path  string
}

var _ interfaces.DataStore = (*BadgerStore)(nil)

// OpenBadger opens or creates the database at path and seeds it when it
// holds no announcements yet.
func OpenBadger(ctx context.Context, path string) (*BadgerStore, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	s := &BadgerStore{store: store, path: path}

	count, err := store.Count(&types.Announcement{}, nil)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to count announcements: %w", err)
	}
	if count == 0 {
		if err := s.Load(Seed(time.Now())); err != nil {
			_ = store.Close()
			return nil, err
		}
		logger.Info(ctx, "Seeded market data store", "path", path)
	} else {
		logger.Debug(ctx, "Opened market data store", "path", path, "announcements", count)
	}
	return s, nil
}

// Load upserts every record of data, keyed by record ID.
func (s *BadgerStore) Load(data Dataset) error {
	for _, a := range data.Announcements {
		if err := s.store.Upsert(a.ID, a); err != nil {
			return fmt.Errorf("failed to store announcement %s: %w", a.ID, err)
		}
	}
	for _, h := range data.Holdings {
		if err := s.store.Upsert(h.ID, h); err != nil {
			return fmt.Errorf("failed to store holding %s: %w", h.ID, err)
		}
	}
	for _, w := range data.Watchlist {
		if err := s.store.Upsert(w.ID, w); err != nil {
			return fmt.Errorf("failed to store watchlist item %s: %w", w.ID, err)
		}
	}
	for _, n := range data.News {
		if err := s.store.Upsert(n.ID, n); err != nil {
			return fmt.Errorf("failed to store news item %s: %w", n.ID, err)
		}
	}
	for _, r := range data.LiveRisk {
		if err := s.store.Upsert(r.ID, r); err != nil {
			return fmt.Errorf("failed to store live risk item %s: %w", r.ID, err)
		}
	}
	return nil
}

func (s *BadgerStore) FindBySymbol(_ context.Context, sym string) (*types.Announcement, error) {
	var anns []types.Announcement
	if err := s.store.Find(&anns, badgerhold.Where("Symbol").Eq(sym).Limit(1)); err != nil {
		return nil, fmt.Errorf("failed to find announcement for %s: %w", sym, err)
	}
	if len(anns) == 0 {
		return nil, nil
	}
	return &anns[0], nil
}

func (s *BadgerStore) FilterByRiskThreshold(_ context.Context, minScore float64) ([]types.Announcement, error) {
	var anns []types.Announcement
	if err := s.store.Find(&anns, badgerhold.Where("RiskScore").Ge(minScore).SortBy("RiskScore").Reverse()); err != nil {
		return nil, fmt.Errorf("failed to filter announcements: %w", err)
	}
	return anns, nil
}

func (s *BadgerStore) ListAnnouncements(_ context.Context) ([]types.Announcement, error) {
	var anns []types.Announcement
	if err := s.store.Find(&anns, nil); err != nil {
		return nil, fmt.Errorf("failed to list announcements: %w", err)
	}
	sortByTime(anns)
	return anns, nil
}

func (s *BadgerStore) Holdings(_ context.Context) ([]types.Holding, error) {
	var holdings []types.Holding
	if err := s.store.Find(&holdings, nil); err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	return holdings, nil
}

func (s *BadgerStore) Watchlist(_ context.Context) ([]types.WatchlistItem, error) {
	var items []types.WatchlistItem
	if err := s.store.Find(&items, nil); err != nil {
		return nil, fmt.Errorf("failed to list watchlist: %w", err)
	}
	return items, nil
}

func (s *BadgerStore) News(_ context.Context) ([]types.NewsItem, error) {
	var items []types.NewsItem
	if err := s.store.Find(&items, nil); err != nil {
		return nil, fmt.Errorf("failed to list news: %w", err)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Timestamp.After(items[j].Timestamp) })
	return items, nil
}

func (s *BadgerStore) LiveRisk(_ context.Context) ([]types.LiveRiskItem, error) {
	var items []types.LiveRiskItem
	if err := s.store.Find(&items, nil); err != nil {
		return nil, fmt.Errorf("failed to list live risk: %w", err)
	}
	return items, nil
}

func (s *BadgerStore) FindStock(ctx context.Context, sym string) (*types.StockData, error) {
	var holdings []types.Holding
	if err := s.store.Find(&holdings, badgerhold.Where("Symbol").Eq(sym)); err != nil {
		return nil, fmt.Errorf("failed to find holding for %s: %w", sym, err)
	}
	var watchlist []types.WatchlistItem
	if err := s.store.Find(&watchlist, badgerhold.Where("Symbol").Eq(sym)); err != nil {
		return nil, fmt.Errorf("failed to find watchlist item for %s: %w", sym, err)
	}
	var anns []types.Announcement
	if a, err := s.FindBySymbol(ctx, sym); err != nil {
		return nil, err
	} else if a != nil {
		anns = append(anns, *a)
	}
	return findStock(sym, holdings, watchlist, anns), nil
}

func (s *BadgerStore) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
