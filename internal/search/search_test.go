package search

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Amritha902/infocruxapp/internal/marketdata"
	"github.com/Amritha902/infocruxapp/internal/types"
)

var seedTime = time.Date(2024, 7, 22, 10, 30, 0, 0, time.UTC)

func TestSearchAcrossKinds(t *testing.T) {
	s := New(marketdata.NewMemoryStoreFrom(marketdata.Seed(seedTime)), nil)

	res, err := s.Search(context.Background(), "reliance")
	require.NoError(t, err)

	require.Len(t, res.Stocks, 1)
	assert.Equal(t, "RELIANCE.NS", res.Stocks[0].Symbol)
	require.Len(t, res.Announcements, 1)
	assert.Equal(t, "RELIANCE.NS", res.Announcements[0].Symbol)
	require.Len(t, res.News, 1)
	assert.Equal(t, "Reliance Industries", res.News[0].RelatedCompany)
}

func TestSearchMatchesAnnouncementText(t *testing.T) {
	s := New(marketdata.NewMemoryStoreFrom(marketdata.Seed(seedTime)), nil)

	res, err := s.Search(context.Background(), "ABC INFRA")
	require.NoError(t, err)
	assert.Empty(t, res.Stocks)
	require.Len(t, res.Announcements, 1)
	assert.Equal(t, "RELIANCE.NS", res.Announcements[0].Symbol)
}

func TestSearchBlankQuery(t *testing.T) {
	s := New(marketdata.NewMemoryStoreFrom(marketdata.Seed(seedTime)), nil)

	res, err := s.Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.NotNil(t, res.Stocks)
}

func TestSearchCapsEachKind(t *testing.T) {
	data := marketdata.Seed(seedTime)
	for i := 0; i < 8; i++ {
		data.Holdings = append(data.Holdings, types.Holding{
			ID: fmt.Sprintf("x%d", i), Symbol: fmt.Sprintf("BANK%d.NS", i), Name: "Test Bank",
		})
	}
	s := New(marketdata.NewMemoryStoreFrom(data), nil)

	res, err := s.Search(context.Background(), "bank")
	require.NoError(t, err)
	assert.Len(t, res.Stocks, MaxPerKind)
}

type staticNews []types.NewsItem

func (n staticNews) News(context.Context) ([]types.NewsItem, error) { return n, nil }

func TestSearchUsesNewsLister(t *testing.T) {
	live := staticNews{{ID: "live", Headline: "Wipro wins cloud deal", RelatedCompany: "Wipro"}}
	s := New(marketdata.NewMemoryStoreFrom(marketdata.Seed(seedTime)), live)

	res, err := s.Search(context.Background(), "wipro")
	require.NoError(t, err)
	require.Len(t, res.News, 1)
	assert.Equal(t, "live", res.News[0].ID)
}
