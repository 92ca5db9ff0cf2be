package anomaly

import (
	"context"
	"fmt"
	"sync"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"github.com/Amritha902/infocruxapp/internal/logger"
	"github.com/Amritha902/infocruxapp/internal/types"
)

// kiteClient is the subset of the Kite Connect client used here.
type kiteClient interface {
	GetHistoricalData(instrumentToken int, interval string, fromDate time.Time, toDate time.Time, continuous bool, OI bool) ([]kiteconnect.HistoricalData, error)
	GetInstrumentsByExchange(exchange string) (kiteconnect.Instruments, error)
}

// KiteConfig configures historical lookups against Kite Connect.
type KiteConfig struct {
	APIKey      string
	AccessToken string
	Lookback    time.Duration
	Detect      Config
}

// KiteHistory detects anomalies from Kite daily candles for the symbol and
// NIFTY 50.
type KiteHistory struct {
	kc       kiteClient
	mapper   *instrumentMapper
	lookback time.Duration
	cfg      Config
	now      func() time.Time

	loadOnce sync.Once
}

func NewKiteHistory(cfg KiteConfig) (*KiteHistory, error) {
	if cfg.APIKey == "" || cfg.AccessToken == "" {
		return nil, fmt.Errorf("kite history requires api key and access token")
	}
	kc := kiteconnect.New(cfg.APIKey)
	kc.SetAccessToken(cfg.AccessToken)
	return newKiteHistory(kc, cfg), nil
}

func newKiteHistory(kc kiteClient, cfg KiteConfig) *KiteHistory {
	if cfg.Lookback <= 0 {
		cfg.Lookback = 180 * 24 * time.Hour
	}
	return &KiteHistory{
		kc:       kc,
		mapper:   newInstrumentMapper(),
		lookback: cfg.Lookback,
		cfg:      cfg.Detect,
		now:      time.Now,
	}
}

// loadInstruments refreshes the token table from the NSE dump once. The
// built-in tokens stay usable when the dump cannot be fetched.
func (k *KiteHistory) loadInstruments(ctx context.Context) {
	k.loadOnce.Do(func() {
		insts, err := k.kc.GetInstrumentsByExchange("NSE")
		if err != nil {
			logger.Warn(ctx, "Failed to load NSE instruments, using built-in tokens", "error", err)
			return
		}
		for _, inst := range insts {
			if inst.InstrumentToken > 0 && inst.Tradingsymbol != "" {
				k.mapper.addMapping(inst.Tradingsymbol, uint32(inst.InstrumentToken))
			}
		}
		logger.Info(ctx, "Loaded NSE instruments", "count", k.mapper.size())
	})
}

func (k *KiteHistory) History(ctx context.Context, symbol string) ([]types.HistoricalAnomaly, error) {
	k.loadInstruments(ctx)

	token, ok := k.mapper.getToken(symbol)
	if !ok {
		return nil, fmt.Errorf("no instrument token for %s", symbol)
	}

	to := k.now()
	from := to.Add(-k.lookback)

	stock, err := k.candles(ctx, token, from, to)
	if err != nil {
		return nil, fmt.Errorf("historical data for %s: %w", symbol, err)
	}
	index, err := k.candles(ctx, NiftyToken, from, to)
	if err != nil {
		return nil, fmt.Errorf("historical data for NIFTY 50: %w", err)
	}

	found := Detect(symbol, stock, index, k.cfg)
	logger.Debug(ctx, "Historical anomalies detected",
		"symbol", symbol, "tradingsymbol", k.mapper.getSymbol(token), "candles", len(stock), "anomalies", len(found))
	return found, nil
}

func (k *KiteHistory) candles(ctx context.Context, token uint32, from, to time.Time) ([]Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := k.kc.GetHistoricalData(int(token), "day", from, to, false, false)
	if err != nil {
		return nil, err
	}
	out := make([]Candle, 0, len(data))
	for _, d := range data {
		out = append(out, Candle{Date: d.Date.Time, Close: d.Close, Volume: float64(d.Volume)})
	}
	return out, nil
}
