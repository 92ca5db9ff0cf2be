// Package anomaly finds past abnormal trading days for a symbol.
package anomaly

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Amritha902/infocruxapp/internal/ta"
	"github.com/Amritha902/infocruxapp/internal/types"
)

const (
	dateLayout = "2006-01-02"
	// recentReturns is the window compared against the rest of the volume
	// window for volatility expansion.
	recentReturns = 5
)

// Candle is one daily bar. Only close and volume are used.
type Candle struct {
	Date   time.Time
	Close  float64
	Volume float64
}

// Config sets the detection thresholds.
type Config struct {
	ReturnThreshold float64 // absolute abnormal return in percent
	VolumeThreshold float64 // volume over trailing mean
	Window          int     // trailing days for the volume mean
	MinWindow       int     // fewer prior days than this skips the day
	MaxResults      int
}

func DefaultConfig() Config {
	return Config{
		ReturnThreshold: 2.0,
		VolumeThreshold: 2.0,
		Window:          20,
		MinWindow:       5,
		MaxResults:      5,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.ReturnThreshold <= 0 {
		c.ReturnThreshold = def.ReturnThreshold
	}
	if c.VolumeThreshold <= 0 {
		c.VolumeThreshold = def.VolumeThreshold
	}
	if c.Window <= 0 {
		c.Window = def.Window
	}
	if c.MinWindow <= 0 || c.MinWindow > c.Window {
		c.MinWindow = min(def.MinWindow, c.Window)
	}
	if c.MaxResults <= 0 {
		c.MaxResults = def.MaxResults
	}
	return c
}

// Detect compares each stock day with the index on the same date. The
// abnormal return is the stock's daily return minus the index's. Days
// breaching either threshold are returned newest first.
func Detect(symbol string, stock, index []Candle, cfg Config) []types.HistoricalAnomaly {
	cfg = cfg.withDefaults()

	stock = sortedByDate(stock)
	indexClose := make(map[string]float64, len(index))
	for _, c := range index {
		indexClose[c.Date.Format(dateLayout)] = c.Close
	}

	var out []types.HistoricalAnomaly
	for i := 1; i < len(stock); i++ {
		prev, cur := stock[i-1], stock[i]
		if prev.Close <= 0 {
			continue
		}
		idxPrev, okPrev := indexClose[prev.Date.Format(dateLayout)]
		idxCur, okCur := indexClose[cur.Date.Format(dateLayout)]
		if !okPrev || !okCur || idxPrev <= 0 {
			continue
		}

		start := max(0, i-cfg.Window)
		if i-start < cfg.MinWindow {
			continue
		}
		mean := ta.Mean(volumes(stock[start:i]))
		if math.IsNaN(mean) || mean <= 0 {
			continue
		}

		abnormal := pct(prev.Close, cur.Close) - pct(idxPrev, idxCur)
		spike := cur.Volume / mean

		priceHit := math.Abs(abnormal) >= cfg.ReturnThreshold
		volumeHit := spike >= cfg.VolumeThreshold
		if !priceHit && !volumeHit {
			continue
		}

		rec := types.HistoricalAnomaly{
			Symbol:           symbol,
			Date:             cur.Date.Format(dateLayout),
			AbnormalReturn:   round2(abnormal),
			VolumeSpikeRatio: round2(spike),
			Note:             note(priceHit, volumeHit, abnormal),
		}
		if exp, ok := ta.VolatilityExpansion(ta.Returns(closes(stock[start:i+1])), recentReturns); ok {
			rec.VolatilityExpansion = round2(exp)
		}
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	if len(out) > cfg.MaxResults {
		out = out[:cfg.MaxResults]
	}
	return out
}

func note(priceHit, volumeHit bool, abnormal float64) string {
	dir := "outperformed"
	if abnormal < 0 {
		dir = "underperformed"
	}
	switch {
	case priceHit && volumeHit:
		return fmt.Sprintf("%s NIFTY 50 on heavy volume", dir)
	case priceHit:
		return fmt.Sprintf("%s NIFTY 50", dir)
	default:
		return "volume spike without an abnormal price move"
	}
}

func sortedByDate(in []Candle) []Candle {
	out := make([]Candle, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func volumes(cs []Candle) []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Volume
	}
	return out
}

func closes(cs []Candle) []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Close
	}
	return out
}

func pct(from, to float64) float64 {
	return (to/from - 1) * 100
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
