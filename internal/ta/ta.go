// Package ta holds the small series statistics used to measure a market
// reaction.
package ta

import "math"

// Mean returns NaN for an empty series.
func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// StdDev is the population standard deviation.
func StdDev(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	m := Mean(vals)
	s := 0.0
	for _, v := range vals {
		d := v - m
		s += d * d
	}
	return math.Sqrt(s / float64(len(vals)))
}

// Returns converts closes to percent changes. A non-positive previous close
// yields 0 for that step.
func Returns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (closes[i]/closes[i-1]-1)*100)
	}
	return out
}

// VolatilityExpansion compares the spread of the last recent returns with
// the spread of the returns before them, in percent. ok is false when
// either part is too short or the baseline is flat.
func VolatilityExpansion(returns []float64, recent int) (expansion float64, ok bool) {
	if recent < 2 || len(returns) < recent+2 {
		return 0, false
	}
	split := len(returns) - recent
	base := StdDev(returns[:split])
	if base == 0 || math.IsNaN(base) {
		return 0, false
	}
	return (StdDev(returns[split:])/base - 1) * 100, true
}
