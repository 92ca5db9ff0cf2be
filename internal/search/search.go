// Package search implements the global search box over holdings,
// announcements and news.
package search

import (
	"context"
	"strings"

	"github.com/Amritha902/infocruxapp/internal/interfaces"
	"github.com/Amritha902/infocruxapp/internal/types"
)

// MaxPerKind caps each result list.
const MaxPerKind = 5

type Results struct {
	Query         string               `json:"query"`
	Stocks        []types.Holding      `json:"stocks"`
	Announcements []types.Announcement `json:"announcements"`
	News          []types.NewsItem     `json:"news"`
}

func (r Results) Empty() bool {
	return len(r.Stocks) == 0 && len(r.Announcements) == 0 && len(r.News) == 0
}

// NewsLister is satisfied by both the data store and the news service.
type NewsLister interface {
	News(ctx context.Context) ([]types.NewsItem, error)
}

type Searcher struct {
	store interfaces.DataStore
	news  NewsLister
}

// New builds a searcher. A nil news lister falls back to the store's news.
func New(store interfaces.DataStore, news NewsLister) *Searcher {
	if news == nil {
		news = store
	}
	return &Searcher{store: store, news: news}
}

// Search matches query case-insensitively as a substring. A blank query
// returns empty lists.
func (s *Searcher) Search(ctx context.Context, query string) (Results, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	res := Results{
		Query:         query,
		Stocks:        []types.Holding{},
		Announcements: []types.Announcement{},
		News:          []types.NewsItem{},
	}
	if q == "" {
		return res, nil
	}

	holdings, err := s.store.Holdings(ctx)
	if err != nil {
		return res, err
	}
	for _, h := range holdings {
		if len(res.Stocks) == MaxPerKind {
			break
		}
		if contains(q, h.Symbol, h.Name) {
			res.Stocks = append(res.Stocks, h)
		}
	}

	anns, err := s.store.ListAnnouncements(ctx)
	if err != nil {
		return res, err
	}
	for _, a := range anns {
		if len(res.Announcements) == MaxPerKind {
			break
		}
		if contains(q, a.CompanyName, a.FullText) {
			res.Announcements = append(res.Announcements, a)
		}
	}

	items, err := s.news.News(ctx)
	if err != nil {
		return res, err
	}
	for _, n := range items {
		if len(res.News) == MaxPerKind {
			break
		}
		if contains(q, n.Headline, n.RelatedCompany) {
			res.News = append(res.News, n)
		}
	}
	return res, nil
}

func contains(q string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
