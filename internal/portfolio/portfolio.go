// Package portfolio derives totals, P&L and sector allocation from holdings.
package portfolio

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Amritha902/infocruxapp/internal/types"
)

var hundred = decimal.NewFromInt(100)

// Summarize fills the derived fields of every holding and aggregates them.
// Money values are rounded to paise, percentages to two decimals.
func Summarize(holdings []types.Holding) types.Portfolio {
	var invested, current, dayPnL decimal.Decimal
	bySector := make(map[string]decimal.Decimal)
	out := make([]types.Holding, 0, len(holdings))

	for _, h := range holdings {
		qty := decimal.NewFromInt(int64(h.Quantity))
		hInvested := qty.Mul(decimal.NewFromFloat(h.AvgPrice))
		hCurrent := qty.Mul(decimal.NewFromFloat(h.LTP))
		hDay := qty.Mul(decimal.NewFromFloat(h.DayChange))

		h.Invested = money(hInvested)
		h.CurrentValue = money(hCurrent)
		h.PnL = money(hCurrent.Sub(hInvested))
		h.DayPnL = money(hDay)
		out = append(out, h)

		invested = invested.Add(hInvested)
		current = current.Add(hCurrent)
		dayPnL = dayPnL.Add(hDay)
		bySector[h.Sector] = bySector[h.Sector].Add(hCurrent)
	}

	totalPnL := current.Sub(invested)
	// Day P&L is measured against the previous close value.
	prevClose := current.Sub(dayPnL)

	return types.Portfolio{
		TotalInvested:      money(invested),
		CurrentValue:       money(current),
		TotalPnL:           money(totalPnL),
		TotalPnLPercentage: percent(totalPnL, invested),
		DayPnL:             money(dayPnL),
		DayPnLPercentage:   percent(dayPnL, prevClose),
		Holdings:           out,
		SectorAllocations:  sectors(bySector),
	}
}

// Exposure returns the share of current portfolio value held in sym, in
// percent, or nil when sym is not held.
func Exposure(holdings []types.Holding, sym string) *float64 {
	var total, held decimal.Decimal
	found := false
	for _, h := range holdings {
		v := decimal.NewFromInt(int64(h.Quantity)).Mul(decimal.NewFromFloat(h.LTP))
		total = total.Add(v)
		if h.Symbol == sym {
			held = held.Add(v)
			found = true
		}
	}
	if !found {
		return nil
	}
	e := percent(held, total)
	return &e
}

// Impact is the portfolio-level return contribution of an abnormal return
// on a position with the given exposure, both in percent.
func Impact(exposure, abnormalReturn float64) float64 {
	f, _ := decimal.NewFromFloat(exposure).Mul(decimal.NewFromFloat(abnormalReturn)).Div(hundred).Round(2).Float64()
	return f
}

func sectors(bySector map[string]decimal.Decimal) []types.SectorAllocation {
	out := make([]types.SectorAllocation, 0, len(bySector))
	for sector, v := range bySector {
		out = append(out, types.SectorAllocation{Sector: sector, Value: money(v)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Sector < out[j].Sector
	})
	return out
}

func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func percent(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	f, _ := part.Div(whole).Mul(hundred).Round(2).Float64()
	return f
}
