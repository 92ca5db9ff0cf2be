// Package symbol finds NSE tickers in free text.
package symbol

import (
	"regexp"
	"strings"
)

const Suffix = ".NS"

var tickerPattern = regexp.MustCompile(`(?i)[A-Z0-9\-.&]{3,}\.NS\b`)

// Extract returns the first ticker in text, upper-cased. The second result
// is false when the text names no ticker.
func Extract(text string) (string, bool) {
	m := tickerPattern.FindString(text)
	if m == "" {
		return "", false
	}
	return strings.ToUpper(m), true
}

// Normalize upper-cases sym and appends the suffix if it is missing.
func Normalize(sym string) string {
	s := strings.ToUpper(strings.TrimSpace(sym))
	if s == "" || strings.HasSuffix(s, Suffix) {
		return s
	}
	return s + Suffix
}
