package anomaly

import (
	"strings"
	"sync"
)

// NiftyToken is the instrument token of the NIFTY 50 index.
const NiftyToken uint32 = 256265

// instrumentMapper manages bidirectional mapping between symbols and tokens.
// Symbols are stored without the .NS suffix.
type instrumentMapper struct {
	symbolToToken map[string]uint32
	tokenToSymbol map[uint32]string
	mu            sync.RWMutex
}

func newInstrumentMapper() *instrumentMapper {
	im := &instrumentMapper{
		symbolToToken: make(map[string]uint32),
		tokenToSymbol: make(map[uint32]string),
	}
	for sym, tok := range knownTokens {
		im.addMapping(sym, tok)
	}
	return im
}

// knownTokens covers the seeded symbols until the instrument dump is loaded.
var knownTokens = map[string]uint32{
	"RELIANCE":   738561,
	"TCS":        2953217,
	"HDFCBANK":   341249,
	"INFY":       408065,
	"WIPRO":      969473,
	"BHARTIARTL": 2714625,
	"SBIN":       779521,
	"ICICIBANK":  1270529,
	"ITC":        424961,
	"LT":         2939649,
}

func tradingSymbol(symbol string) string {
	return strings.TrimSuffix(strings.ToUpper(strings.TrimSpace(symbol)), ".NS")
}

func (im *instrumentMapper) addMapping(symbol string, token uint32) {
	im.mu.Lock()
	defer im.mu.Unlock()

	im.symbolToToken[tradingSymbol(symbol)] = token
	im.tokenToSymbol[token] = tradingSymbol(symbol)
}

func (im *instrumentMapper) getToken(symbol string) (uint32, bool) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	token, exists := im.symbolToToken[tradingSymbol(symbol)]
	return token, exists
}

func (im *instrumentMapper) getSymbol(token uint32) string {
	im.mu.RLock()
	defer im.mu.RUnlock()

	return im.tokenToSymbol[token]
}

func (im *instrumentMapper) size() int {
	im.mu.RLock()
	defer im.mu.RUnlock()
	return len(im.symbolToToken)
}
