// Package websearch provides the collaborators behind the searchTheWeb tool.
package websearch

import (
	"context"
	"fmt"
	"strings"

	"github.com/Amritha902/infocruxapp/internal/interfaces"
)

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
	Source  string `json:"source,omitempty"`
}

// Digest formats results as the plain-text answer handed back to the model.
// URLs are kept so the model can cite them as sources.
func Digest(query string, results []Result) string {
	if len(results) == 0 {
		return fmt.Sprintf("No web results found for %q.", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Web results for %q:\n", query)
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s", i+1, r.Title)
		if r.Source != "" {
			fmt.Fprintf(&b, " (%s)", r.Source)
		}
		b.WriteString("\n")
		if r.URL != "" {
			fmt.Fprintf(&b, "   %s\n", r.URL)
		}
		if r.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", r.Snippet)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// DefaultStaticAnswer is used when no search backend is configured.
const DefaultStaticAnswer = "A P/E ratio (price-to-earnings ratio) values a company by comparing its current share price with its per-share earnings. " +
	"A high P/E can mean the stock is overvalued, or that investors expect high growth. " +
	"Source: https://www.investopedia.com/terms/p/price-earningsratio.asp"

// Static answers every query with the same text.
type Static struct {
	Answer string
}

func NewStatic(answer string) *Static {
	if strings.TrimSpace(answer) == "" {
		answer = DefaultStaticAnswer
	}
	return &Static{Answer: answer}
}

func (s *Static) Search(_ context.Context, query string) (string, error) {
	return fmt.Sprintf("Web sources on %q: %s", query, s.Answer), nil
}

var (
	_ interfaces.WebSearcher = (*Static)(nil)
	_ interfaces.WebSearcher = (*NewsScraper)(nil)
	_ interfaces.WebSearcher = (*CSE)(nil)
	_ interfaces.WebSearcher = (*Cached)(nil)
)
