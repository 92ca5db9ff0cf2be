package news

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"github.com/Amritha902/infocruxapp/internal/api"
	"github.com/Amritha902/infocruxapp/internal/logger"
	"github.com/Amritha902/infocruxapp/internal/risk"
	"github.com/Amritha902/infocruxapp/internal/types"
)

// Company is a tracked listing that feed items are matched against.
type Company struct {
	Symbol    string
	Name      string
	Aliases   []string
	RiskScore *float64
}

// Feed pulls RSS/Atom feeds and keeps the items that mention a tracked
// company.
type Feed struct {
	urls    []string
	timeout time.Duration
	client  *http.Client
}

func NewFeed(urls []string, timeout time.Duration) *Feed {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	valid := make([]string, 0, len(urls))
	for _, u := range urls {
		if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
			valid = append(valid, u)
		}
	}
	return &Feed{
		urls:    valid,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

// Fetch reads every feed concurrently. A failing feed is logged and
// skipped; an error is returned only when all feeds fail.
func (f *Feed) Fetch(ctx context.Context, companies []Company) ([]types.NewsItem, error) {
	if len(f.urls) == 0 {
		return nil, nil
	}
	m := newMatcher(companies)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		items  []types.NewsItem
		failed int
	)
	for _, u := range f.urls {
		wg.Add(1)
		go func(feedURL string) {
			defer wg.Done()
			got, err := f.fetchOne(ctx, feedURL, m)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				logger.ErrorWithErr(ctx, "Failed to fetch feed", err, "url", feedURL)
				return
			}
			items = append(items, got...)
		}(u)
	}
	wg.Wait()

	if failed == len(f.urls) {
		return nil, fmt.Errorf("all %d news feeds failed", failed)
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Timestamp.After(items[j].Timestamp) })
	logger.Info(ctx, "News feeds fetched", "feeds", len(f.urls), "failed", failed, "items", len(items))
	return items, nil
}

func (f *Feed) fetchOne(ctx context.Context, feedURL string, m *matcher) ([]types.NewsItem, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	fp := gofeed.NewParser()
	fp.Client = f.client
	fp.UserAgent = api.BrowserHeaders()["User-Agent"]
	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	source := strings.TrimSpace(feed.Title)
	var out []types.NewsItem
	for _, it := range feed.Items {
		c, ok := m.match(it.Title + " " + it.Description)
		if !ok {
			continue
		}
		ts := time.Now().UTC()
		if it.PublishedParsed != nil {
			ts = it.PublishedParsed.UTC()
		} else if it.UpdatedParsed != nil {
			ts = it.UpdatedParsed.UTC()
		}
		key := it.Link
		if key == "" {
			key = it.GUID + it.Title
		}
		out = append(out, types.NewsItem{
			ID:             uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String(),
			Headline:       strings.TrimSpace(it.Title),
			Source:         source,
			URL:            it.Link,
			Timestamp:      ts,
			RelatedCompany: c.Name,
			Symbol:         c.Symbol,
			Tags:           Tag(it.Title + " " + it.Description),
			Impact:         impact(c.RiskScore),
		})
	}
	return out, nil
}

func impact(score *float64) types.NewsImpact {
	if score == nil {
		return types.NewsImpact{Status: risk.ImpactNone}
	}
	s := *score
	return types.NewsImpact{Status: risk.ImpactStatus(s), RiskScore: &s}
}

var tagPatterns = []struct {
	tag types.NewsTag
	re  *regexp.Regexp
}{
	{types.TagEarnings, regexp.MustCompile(`(?i)\b(results?|earnings|profit|revenue|quarter(ly)?|Q[1-4]( ?FY\d{2})?|EBITDA)\b`)},
	{types.TagMergers, regexp.MustCompile(`(?i)\b(acqui\w*|merger|merges?|takeover|stake|buyout|joint venture)\b`)},
	{types.TagRegulatory, regexp.MustCompile(`(?i)\b(SEBI|RBI|TRAI|CCI|regulator\w*|penalty|probe|tariffs?|compliance|licen[cs]e)\b`)},
	{types.TagRumor, regexp.MustCompile(`(?i)\b(rumou?rs?|reportedly|said to be|sources said|speculation|in talks)\b`)},
	{types.TagFundraising, regexp.MustCompile(`(?i)\b(QIP|rights issue|fund ?rais\w*|raises? (Rs|INR|₹)|bonds?|debentures?|NCDs?|IPO|preferential)\b`)},
	{types.TagManagementChange, regexp.MustCompile(`(?i)\b(CEO|CFO|MD|chairman|resigns?|resignation|appoints?|appointed|steps down|leadership)\b`)},
}

// Tag labels a headline with every matching category, in a fixed order.
func Tag(text string) []types.NewsTag {
	tags := []types.NewsTag{}
	for _, p := range tagPatterns {
		if p.re.MatchString(text) {
			tags = append(tags, p.tag)
		}
	}
	return tags
}

type alias struct {
	re      *regexp.Regexp
	company *Company
	length  int
}

// matcher finds the company a text is about, trying longer aliases first.
type matcher struct {
	aliases []alias
}

func newMatcher(companies []Company) *matcher {
	m := &matcher{}
	for i := range companies {
		c := &companies[i]
		seen := map[string]bool{}
		names := append([]string{c.Name, strings.TrimSuffix(c.Symbol, ".NS")}, c.Aliases...)
		for _, n := range names {
			n = strings.TrimSpace(n)
			if len(n) < 3 || seen[strings.ToLower(n)] {
				continue
			}
			seen[strings.ToLower(n)] = true
			m.aliases = append(m.aliases, alias{
				re:      regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(n) + `\b`),
				company: c,
				length:  len(n),
			})
		}
	}
	sort.SliceStable(m.aliases, func(i, j int) bool { return m.aliases[i].length > m.aliases[j].length })
	return m
}

func (m *matcher) match(text string) (*Company, bool) {
	for _, a := range m.aliases {
		if a.re.MatchString(text) {
			return a.company, true
		}
	}
	return nil, false
}

// CompaniesFrom builds the tracked list from holdings and watchlist. Names
// from both are kept as aliases; the watchlist supplies the risk score.
func CompaniesFrom(holdings []types.Holding, watchlist []types.WatchlistItem) []Company {
	bySymbol := map[string]*Company{}
	var order []string
	get := func(sym, name string) *Company {
		c, ok := bySymbol[sym]
		if !ok {
			c = &Company{Symbol: sym, Name: name}
			bySymbol[sym] = c
			order = append(order, sym)
		} else if name != c.Name {
			c.Aliases = append(c.Aliases, name)
		}
		return c
	}
	for _, h := range holdings {
		get(h.Symbol, h.Name)
	}
	for _, w := range watchlist {
		c := get(w.Symbol, w.Name)
		s := w.RiskScore
		c.RiskScore = &s
	}

	out := make([]Company, 0, len(order))
	for _, sym := range order {
		out = append(out, *bySymbol[sym])
	}
	return out
}
