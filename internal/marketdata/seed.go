// Package marketdata is the read-only store behind the dashboard views and
// the chat context assembler.
package marketdata

import (
	"time"

	"github.com/Amritha902/infocruxapp/internal/portfolio"
	"github.com/Amritha902/infocruxapp/internal/risk"
	"github.com/Amritha902/infocruxapp/internal/types"
)

// Dataset is the full set of seed records.
type Dataset struct {
	Announcements []types.Announcement
	Holdings      []types.Holding
	Watchlist     []types.WatchlistItem
	News          []types.NewsItem
	LiveRisk      []types.LiveRiskItem
}

// Seed returns the demo dataset with timestamps relative to now.
func Seed(now time.Time) Dataset {
	now = now.UTC().Truncate(time.Second)
	holdings := seedHoldings()
	return Dataset{
		Announcements: withExposure(seedAnnouncements(now), holdings),
		Holdings:      holdings,
		Watchlist:     seedWatchlist(),
		News:          seedNews(now),
		LiveRisk:      seedLiveRisk(now),
	}
}

func seedHoldings() []types.Holding {
	return []types.Holding{
		{ID: "1", Symbol: "RELIANCE.NS", Name: "Reliance Industries", Quantity: 10, AvgPrice: 2850, LTP: 2950, Sector: "Energy", DayChange: 25, DayChangePercentage: 0.85},
		{ID: "2", Symbol: "TCS.NS", Name: "Tata Consultancy Services", Quantity: 15, AvgPrice: 3800, LTP: 3850, Sector: "Information Technology", DayChange: 20, DayChangePercentage: 0.52},
		{ID: "3", Symbol: "HDFCBANK.NS", Name: "HDFC Bank", Quantity: 20, AvgPrice: 1500, LTP: 1525, Sector: "Financials", DayChange: 5, DayChangePercentage: 0.33},
		{ID: "4", Symbol: "INFY.NS", Name: "Infosys", Quantity: 25, AvgPrice: 1600, LTP: 1800, Sector: "Information Technology", DayChange: 24, DayChangePercentage: 1.35},
	}
}

func seedWatchlist() []types.WatchlistItem {
	return []types.WatchlistItem{
		{ID: "1", Symbol: "RELIANCE.NS", Name: "Reliance", Price: 2950.00, Change: 25.50, ChangePercentage: 0.87, RiskScore: 78},
		{ID: "2", Symbol: "TCS.NS", Name: "TCS", Price: 3850.20, Change: 15.10, ChangePercentage: 0.39, RiskScore: 25},
		{ID: "3", Symbol: "HDFCBANK.NS", Name: "HDFC Bank", Price: 1525.80, Change: -5.40, ChangePercentage: -0.35, RiskScore: 45},
		{ID: "4", Symbol: "INFY.NS", Name: "Infosys", Price: 1800.00, Change: 24.00, ChangePercentage: 1.35, RiskScore: 15},
		{ID: "5", Symbol: "ICICIBANK.NS", Name: "ICICI Bank", Price: 1100.50, Change: 10.20, ChangePercentage: 0.93, RiskScore: 10},
		{ID: "6", Symbol: "BHARTIARTL.NS", Name: "Bharti Airtel", Price: 1205.00, Change: -8.10, ChangePercentage: -0.67, RiskScore: 55},
	}
}

func seedAnnouncements(now time.Time) []types.Announcement {
	return []types.Announcement{
		{
			ID:                  "1",
			Symbol:              "RELIANCE.NS",
			CompanyName:         "Reliance Industries",
			Timestamp:           now,
			FullText:            "Reliance Industries Limited is pleased to announce a strategic partnership with ABC Infra Pvt Ltd, a leader in renewable energy solutions. This collaboration, backed by DEF Capital, aims to develop 5GW of solar capacity in Rajasthan. This move strengthens our commitment to sustainable energy and is expected to generate significant value for our shareholders.",
			RiskScore:           78,
			AbnormalReturn:      -4.8,
			VolumeSpikeRatio:    3.6,
			Category:            types.CategoryMergers,
			IndexAdjustedReturn: -5.1,
			VolatilityExpansion: 120,
			Drivers: []string{
				"Volume 3.6x the 20-day average",
				"Underperformed NIFTY 50 by 5.1% on the day",
				"Intraday volatility more than doubled",
			},
			IsVerified: true,
		},
		{
			ID:                  "2",
			Symbol:              "TCS.NS",
			CompanyName:         "Tata Consultancy Services",
			Timestamp:           now.Add(-2 * time.Hour),
			FullText:            "TCS has secured a multi-year, multi-million dollar deal with a leading European bank to transform its digital core. This partnership will leverage TCS's expertise in cloud and AI to enhance customer experience and operational efficiency.",
			RiskScore:           25,
			AbnormalReturn:      0.8,
			VolumeSpikeRatio:    1.2,
			Category:            types.CategoryEarnings,
			IndexAdjustedReturn: 0.6,
			VolatilityExpansion: 10,
			Drivers:             []string{"Modest outperformance against the index", "Volume close to average"},
			IsVerified:          true,
		},
		{
			ID:                  "3",
			Symbol:              "HDFCBANK.NS",
			CompanyName:         "HDFC Bank",
			Timestamp:           now.Add(-4 * time.Hour),
			FullText:            "The Board of Directors of HDFC Bank will meet on Friday, 26th July 2024, to consider and approve the unaudited financial results for the quarter ending June 30, 2024.",
			RiskScore:           45,
			AbnormalReturn:      -2.1,
			VolumeSpikeRatio:    2.5,
			Category:            types.CategoryEarnings,
			IndexAdjustedReturn: -1.9,
			VolatilityExpansion: 60,
			Drivers:             []string{"Volume 2.5x the 20-day average", "Pre-results positioning"},
			IsVerified:          true,
		},
		{
			ID:                  "4",
			Symbol:              "BHARTIARTL.NS",
			CompanyName:         "Bharti Airtel",
			Timestamp:           now.Add(-5 * time.Hour),
			FullText:            "Bharti Airtel announced a revision in its prepaid tariff plans, effective from July 3rd, 2024. The company stated this is to improve ARPU and invest in network expansion. The base plan will see an increase of approximately 15%.",
			RiskScore:           55,
			AbnormalReturn:      -3.2,
			VolumeSpikeRatio:    3.0,
			Category:            types.CategoryRegulatory,
			IndexAdjustedReturn: -3.0,
			VolatilityExpansion: 80,
			Drivers:             []string{"Volume 3x the 20-day average", "Sector peers also declined"},
			IsVerified:          false,
		},
	}
}

func seedNews(now time.Time) []types.NewsItem {
	return []types.NewsItem{
		{
			ID: "1", Headline: "Reliance partners ABC Infra for 5GW Rajasthan solar build-out",
			Source: "Economic Times", Timestamp: now.Add(-30 * time.Minute),
			RelatedCompany: "Reliance Industries", Symbol: "RELIANCE.NS",
			Tags:   []types.NewsTag{types.TagMergers},
			Impact: scored(78),
		},
		{
			ID: "2", Headline: "Bharti Airtel raises prepaid tariffs by about 15%",
			Source: "Mint", Timestamp: now.Add(-5 * time.Hour),
			RelatedCompany: "Bharti Airtel", Symbol: "BHARTIARTL.NS",
			Tags:   []types.NewsTag{types.TagRegulatory},
			Impact: scored(55),
		},
		{
			ID: "3", Headline: "HDFC Bank board to consider Q1 results on July 26",
			Source: "Business Standard", Timestamp: now.Add(-4 * time.Hour),
			RelatedCompany: "HDFC Bank", Symbol: "HDFCBANK.NS",
			Tags:   []types.NewsTag{types.TagEarnings},
			Impact: scored(45),
		},
		{
			ID: "4", Headline: "TCS wins multi-year digital transformation deal from European bank",
			Source: "Moneycontrol", Timestamp: now.Add(-2 * time.Hour),
			RelatedCompany: "Tata Consultancy Services", Symbol: "TCS.NS",
			Tags:   []types.NewsTag{types.TagEarnings},
			Impact: scored(25),
		},
		{
			ID: "5", Headline: "Infosys said to be weighing leadership changes in financial services unit",
			Source: "CNBC-TV18", Timestamp: now.Add(-7 * time.Hour),
			RelatedCompany: "Infosys", Symbol: "INFY.NS",
			Tags:   []types.NewsTag{types.TagRumor, types.TagManagementChange},
			Impact: types.NewsImpact{Status: risk.ImpactNone},
		},
	}
}

func seedLiveRisk(now time.Time) []types.LiveRiskItem {
	return []types.LiveRiskItem{
		{
			ID: "1", Symbol: "RELIANCE.NS", Name: "Reliance Industries", RiskScore: 78, Confidence: 0.91,
			Trend: types.TrendIncreasing, LastHourTrend: []float64{52, 58, 63, 70, 74, 78},
			Drivers: types.RiskDriver{Type: "volume", Text: "Volume 3.6x the 20-day average"}, UpdatedAt: now,
		},
		{
			ID: "2", Symbol: "BHARTIARTL.NS", Name: "Bharti Airtel", RiskScore: 55, Confidence: 0.84,
			Trend: types.TrendStable, LastHourTrend: []float64{54, 56, 55, 53, 55, 55},
			Drivers: types.RiskDriver{Type: "price", Text: "Down 3.2% against the index"}, UpdatedAt: now,
		},
		{
			ID: "3", Symbol: "HDFCBANK.NS", Name: "HDFC Bank", RiskScore: 45, Confidence: 0.79,
			Trend: types.TrendDecreasing, LastHourTrend: []float64{58, 55, 51, 49, 47, 45},
			Drivers: types.RiskDriver{Type: "volatility", Text: "Implied volatility easing into results"}, UpdatedAt: now,
		},
		{
			ID: "4", Symbol: "TCS.NS", Name: "Tata Consultancy Services", RiskScore: 25, Confidence: 0.88,
			Trend: types.TrendStable, LastHourTrend: []float64{24, 26, 25, 25, 24, 25},
			Drivers: types.RiskDriver{Type: "volume", Text: "Volume close to average"}, UpdatedAt: now,
		},
		{
			ID: "5", Symbol: "INFY.NS", Name: "Infosys", RiskScore: 15, Confidence: 0.9,
			Trend: types.TrendStable, LastHourTrend: []float64{14, 15, 16, 15, 15, 15},
			Drivers: types.RiskDriver{Type: "price", Text: "Tracking the IT index"}, UpdatedAt: now,
		},
		{
			ID: "6", Symbol: "ICICIBANK.NS", Name: "ICICI Bank", RiskScore: 10, Confidence: 0.86,
			Trend: types.TrendDecreasing, LastHourTrend: []float64{14, 13, 12, 11, 10, 10},
			Drivers: types.RiskDriver{Type: "volatility", Text: "Volatility below its monthly mean"}, UpdatedAt: now,
		},
	}
}

// scored builds a news impact whose wording follows the score's band.
func scored(score float64) types.NewsImpact {
	return types.NewsImpact{Status: risk.ImpactStatus(score), RiskScore: &score}
}

func withExposure(anns []types.Announcement, holdings []types.Holding) []types.Announcement {
	for i := range anns {
		if e := portfolio.Exposure(holdings, anns[i].Symbol); e != nil {
			impact := portfolio.Impact(*e, anns[i].AbnormalReturn)
			anns[i].PortfolioExposure = e
			anns[i].PortfolioImpact = &impact
		}
	}
	return anns
}
