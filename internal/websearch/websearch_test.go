package websearch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Amritha902/infocruxapp/internal/api"
)

const newsPage = `<html><body>
<article>
  <h3>Reliance shares slide after ABC Infra acquisition</h3>
  <a href="./articles/CBMiabc?hl=en-IN">open</a>
  <div data-n-tid="29">Economic Times</div>
  <time datetime="2024-07-22T10:30:00Z">1 hour ago</time>
</article>
<article>
  <h4>Brokerages weigh Reliance deal</h4>
  <a href="https://example.com/reliance-deal">open</a>
</article>
<article><h3>No link here</h3></article>
<article>
  <h3>Third story</h3>
  <a href="/articles/xyz">open</a>
</article>
</body></html>`

func TestParseArticle(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(newsPage))
	require.NoError(t, err)

	var got []Result
	doc.Find("article").Each(func(_ int, s *goquery.Selection) {
		if r, ok := parseArticle(s, "https://news.google.com"); ok {
			got = append(got, r)
		}
	})

	require.Len(t, got, 3)
	assert.Equal(t, "https://news.google.com/articles/CBMiabc?hl=en-IN", got[0].URL)
	assert.Equal(t, "Economic Times", got[0].Source)
	assert.Equal(t, "Published 22 Jul 2024 10:30 UTC", got[0].Snippet)
	assert.Equal(t, "https://example.com/reliance-deal", got[1].URL)
	assert.Equal(t, "Google News", got[1].Source)
	assert.Equal(t, "https://news.google.com/articles/xyz", got[2].URL)
}

func TestNewsScraperSearch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		assert.Equal(t, "/search", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(newsPage))
	}))
	defer srv.Close()

	s := NewNewsScraper(ScraperConfig{BaseURL: srv.URL, MaxResults: 2, Timeout: 5 * time.Second})
	digest, err := s.Search(context.Background(), "RELIANCE.NS acquisition")
	require.NoError(t, err)

	assert.Equal(t, "RELIANCE.NS acquisition", gotQuery)
	assert.Contains(t, digest, `Web results for "RELIANCE.NS acquisition":`)
	assert.Contains(t, digest, "1. Reliance shares slide after ABC Infra acquisition (Economic Times)")
	assert.Contains(t, digest, srv.URL+"/articles/CBMiabc?hl=en-IN")
	assert.NotContains(t, digest, "Third story")
}

func TestNewsScraperServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewNewsScraper(ScraperConfig{BaseURL: srv.URL, Timeout: 5 * time.Second})
	_, err := s.Search(context.Background(), "TCS.NS")
	assert.Error(t, err)
}

func TestCSESearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "k", q.Get("key"))
		assert.Equal(t, "cx1", q.Get("cx"))
		assert.Equal(t, "3", q.Get("num"))
		assert.Equal(t, "what is a P/E ratio", q.Get("q"))
		_, _ = w.Write([]byte(`{"items":[
			{"title":"P/E Ratio Definition","link":"https://www.investopedia.com/terms/p/price-earningsratio.asp","snippet":"Price to earnings.","displayLink":"www.investopedia.com"},
			{"title":"no link"}
		]}`))
	}))
	defer srv.Close()

	c, err := NewCSE("k", "cx1", 3, WithCSEBaseURL(srv.URL))
	require.NoError(t, err)

	results, err := c.Query(context.Background(), "what is a P/E ratio")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "www.investopedia.com", results[0].Source)

	digest, err := c.Search(context.Background(), "what is a P/E ratio")
	require.NoError(t, err)
	assert.Contains(t, digest, "https://www.investopedia.com/terms/p/price-earningsratio.asp")
	assert.Contains(t, digest, "Price to earnings.")
}

func TestCSERejectsBadKey(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c, err := NewCSE("k", "cx", 0, WithCSEBaseURL(srv.URL),
		WithCSERetry(&api.RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: time.Millisecond}))
	require.NoError(t, err)

	_, err = c.Search(context.Background(), "x")
	var se *api.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, int32(1), calls.Load())

	_, err = NewCSE("", "cx", 5)
	assert.Error(t, err)
}

type countingSearcher struct {
	calls int
	err   error
}

func (c *countingSearcher) Search(_ context.Context, q string) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return "digest for " + q, nil
}

func TestCachedNormalizesQuery(t *testing.T) {
	inner := &countingSearcher{}
	c := NewCached(inner, time.Hour)
	defer c.Close()

	first, err := c.Search(context.Background(), "What is a  P/E ratio")
	require.NoError(t, err)
	second, err := c.Search(context.Background(), "what is a p/e RATIO ")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedSkipsErrors(t *testing.T) {
	inner := &countingSearcher{err: errors.New("offline")}
	c := NewCached(inner, time.Hour)
	defer c.Close()

	_, err := c.Search(context.Background(), "x")
	require.Error(t, err)
	_, err = c.Search(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestStatic(t *testing.T) {
	out, err := NewStatic("").Search(context.Background(), "P/E ratio")
	require.NoError(t, err)
	assert.Contains(t, out, "P/E ratio")
	assert.Contains(t, out, "investopedia.com")

	out, _ = NewStatic("fixed").Search(context.Background(), "q")
	assert.Equal(t, `Web sources on "q": fixed`, out)
}

func TestDigestEmpty(t *testing.T) {
	assert.Equal(t, `No web results found for "x".`, Digest("x", nil))
}
