package news

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Amritha902/infocruxapp/internal/marketdata"
	"github.com/Amritha902/infocruxapp/internal/risk"
	"github.com/Amritha902/infocruxapp/internal/types"
)

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Markets Wire</title>
  <item>
    <title>Reliance Industries to acquire stake in green hydrogen startup</title>
    <link>https://example.com/ril-hydrogen</link>
    <description>The deal is reportedly valued at Rs 1,200 crore.</description>
    <pubDate>Mon, 22 Jul 2024 09:00:00 +0000</pubDate>
  </item>
  <item>
    <title>TCS Q1 results: net profit rises 9%</title>
    <link>https://example.com/tcs-q1</link>
    <pubDate>Mon, 22 Jul 2024 11:00:00 +0000</pubDate>
  </item>
  <item>
    <title>Monsoon covers most of the country</title>
    <link>https://example.com/monsoon</link>
    <pubDate>Mon, 22 Jul 2024 10:00:00 +0000</pubDate>
  </item>
</channel>
</rss>`

var seedTime = time.Date(2024, 7, 22, 10, 30, 0, 0, time.UTC)

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssFeed))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func seededCompanies() []Company {
	data := marketdata.Seed(seedTime)
	return CompaniesFrom(data.Holdings, data.Watchlist)
}

func TestFeedFetchMatchesCompanies(t *testing.T) {
	srv := newFeedServer(t)
	feed := NewFeed([]string{srv.URL, "not-a-url"}, 5*time.Second)

	items, err := feed.Fetch(context.Background(), seededCompanies())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Expected 2 matched items, got %d", len(items))
	}

	// Newest first
	tcs, ril := items[0], items[1]
	if tcs.Symbol != "TCS.NS" || tcs.RelatedCompany != "Tata Consultancy Services" {
		t.Errorf("Expected TCS match, got %s (%s)", tcs.Symbol, tcs.RelatedCompany)
	}
	if ril.Symbol != "RELIANCE.NS" {
		t.Errorf("Expected RELIANCE.NS, got %s", ril.Symbol)
	}
	if ril.Source != "Markets Wire" {
		t.Errorf("Expected feed title as source, got %q", ril.Source)
	}
	if ril.Impact.Status != risk.ImpactHigh || ril.Impact.RiskScore == nil || *ril.Impact.RiskScore != 78 {
		t.Errorf("Expected high impact from the watchlist score, got %+v", ril.Impact)
	}
	if !hasTag(ril.Tags, types.TagMergers) || !hasTag(ril.Tags, types.TagRumor) {
		t.Errorf("Expected M&A and Rumor tags, got %v", ril.Tags)
	}
	if !hasTag(tcs.Tags, types.TagEarnings) {
		t.Errorf("Expected Earnings tag, got %v", tcs.Tags)
	}
	if ril.ID == "" || ril.ID == tcs.ID {
		t.Error("Expected distinct stable IDs")
	}
}

func TestFeedFetchAllFailing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := NewFeed([]string{srv.URL}, time.Second).Fetch(context.Background(), seededCompanies()); err == nil {
		t.Error("Expected an error when every feed fails")
	}
}

func TestTag(t *testing.T) {
	tests := []struct {
		text string
		want []types.NewsTag
	}{
		{"HDFC Bank board to consider Q1 results", []types.NewsTag{types.TagEarnings}},
		{"SEBI imposes penalty on broker", []types.NewsTag{types.TagRegulatory}},
		{"Infosys CFO steps down", []types.NewsTag{types.TagManagementChange}},
		{"Company launches QIP to raise funds", []types.NewsTag{types.TagFundraising}},
		{"Monsoon covers the country", []types.NewsTag{}},
	}

	for _, tt := range tests {
		got := Tag(tt.text)
		if len(got) != len(tt.want) {
			t.Errorf("Tag(%q) = %v, want %v", tt.text, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Tag(%q) = %v, want %v", tt.text, got, tt.want)
			}
		}
	}
}

type stubSource struct {
	items []types.NewsItem
	err   error
	calls int
}

func (s *stubSource) Fetch(context.Context, []Company) ([]types.NewsItem, error) {
	s.calls++
	return s.items, s.err
}

func TestServiceMergesAndCaches(t *testing.T) {
	store := marketdata.NewMemoryStoreFrom(marketdata.Seed(seedTime))
	src := &stubSource{items: []types.NewsItem{
		{ID: "x", Headline: "Wipro wins cloud deal", Timestamp: seedTime},
		// Duplicate of a stored headline
		{ID: "y", Headline: "bharti airtel raises prepaid tariffs by about 15%", Timestamp: seedTime},
	}}
	svc := NewService(store, src, nil)
	defer svc.Close()

	items, err := svc.News(context.Background())
	if err != nil {
		t.Fatalf("News failed: %v", err)
	}
	if len(items) != 6 {
		t.Fatalf("Expected 5 stored + 1 live item, got %d", len(items))
	}
	if items[len(items)-1].ID != "x" {
		t.Errorf("Expected live item after stored news, got %s", items[len(items)-1].ID)
	}

	if _, err := svc.News(context.Background()); err != nil {
		t.Fatal(err)
	}
	if src.calls != 1 {
		t.Errorf("Expected feed to be cached, got %d calls", src.calls)
	}

	svc.ClearCache()
	if _, err := svc.News(context.Background()); err != nil {
		t.Fatal(err)
	}
	if src.calls != 2 {
		t.Errorf("Expected refetch after clearing cache, got %d calls", src.calls)
	}
}

func TestServiceFeedFailureFallsBack(t *testing.T) {
	store := marketdata.NewMemoryStoreFrom(marketdata.Seed(seedTime))
	svc := NewService(store, &stubSource{err: errors.New("offline")}, nil)
	defer svc.Close()

	items, err := svc.News(context.Background())
	if err != nil {
		t.Fatalf("Expected stored news on feed failure, got %v", err)
	}
	if len(items) != 5 {
		t.Errorf("Expected 5 stored items, got %d", len(items))
	}
}

func TestServiceConfig(t *testing.T) {
	cfg := DefaultServiceConfig()

	if cfg.CacheDuration != 15*time.Minute {
		t.Errorf("Expected CacheDuration to be 15 minutes, got %v", cfg.CacheDuration)
	}
	if !cfg.Enabled {
		t.Error("Expected Enabled to be true")
	}

	src := &stubSource{}
	svc := NewService(marketdata.NewMemoryStoreFrom(marketdata.Seed(seedTime)), src, &ServiceConfig{Enabled: false})
	defer svc.Close()
	if _, err := svc.News(context.Background()); err != nil {
		t.Fatal(err)
	}
	if src.calls != 0 {
		t.Error("Expected disabled service to skip the feed")
	}
}

func hasTag(tags []types.NewsTag, want types.NewsTag) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}
