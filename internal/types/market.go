package types

import "time"

type AnnouncementCategory string

const (
	CategoryMergers     AnnouncementCategory = "M&A"
	CategoryEarnings    AnnouncementCategory = "Earnings"
	CategoryFundraising AnnouncementCategory = "Fundraising"
	CategoryRegulatory  AnnouncementCategory = "Regulatory"
)

// Announcement is an immutable corporate disclosure with its measured
// market reaction.
type Announcement struct {
	ID                  string               `json:"id"`
	Symbol              string               `json:"symbol"`
	CompanyName         string               `json:"companyName"`
	Timestamp           time.Time            `json:"timestamp"`
	FullText            string               `json:"fullText"`
	RiskScore           float64              `json:"riskScore"`
	AbnormalReturn      float64              `json:"abnormalReturn"`
	VolumeSpikeRatio    float64              `json:"volumeSpikeRatio"`
	Category            AnnouncementCategory `json:"category"`
	IndexAdjustedReturn float64              `json:"indexAdjustedReturn"`
	VolatilityExpansion float64              `json:"volatilityExpansion"` // percent
	Drivers             []string             `json:"drivers"`
	IsVerified          bool                 `json:"isVerified"`
	PortfolioExposure   *float64             `json:"portfolioExposure,omitempty"`
	PortfolioImpact     *float64             `json:"portfolioImpact,omitempty"`
	RiskLevel           string               `json:"riskLevel,omitempty"`
	RiskBadge           string               `json:"riskBadge,omitempty"`
}

type Holding struct {
	ID                  string  `json:"id"`
	Symbol              string  `json:"symbol"`
	Name                string  `json:"name"`
	Quantity            int     `json:"quantity"`
	AvgPrice            float64 `json:"avgPrice"`
	LTP                 float64 `json:"ltp"`
	Sector              string  `json:"sector"`
	DayChange           float64 `json:"dayChange"`
	DayChangePercentage float64 `json:"dayChangePercentage"`

	// Derived by portfolio.Summarize.
	Invested     float64 `json:"invested"`
	CurrentValue float64 `json:"currentValue"`
	PnL          float64 `json:"pnl"`
	DayPnL       float64 `json:"dayPnl"`
}

type SectorAllocation struct {
	Sector string  `json:"sector"`
	Value  float64 `json:"value"`
}

type Portfolio struct {
	TotalInvested      float64            `json:"totalInvested"`
	CurrentValue       float64            `json:"currentValue"`
	TotalPnL           float64            `json:"totalPnl"`
	TotalPnLPercentage float64            `json:"totalPnlPercentage"`
	DayPnL             float64            `json:"dayPnl"`
	DayPnLPercentage   float64            `json:"dayPnlPercentage"`
	Holdings           []Holding          `json:"holdings"`
	SectorAllocations  []SectorAllocation `json:"sectorAllocations"`
}

type WatchlistItem struct {
	ID               string  `json:"id"`
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name"`
	Price            float64 `json:"price"`
	Change           float64 `json:"change"`
	ChangePercentage float64 `json:"changePercentage"`
	RiskScore        float64 `json:"riskScore"`
	RiskLevel        string  `json:"riskLevel,omitempty"`
	RiskBadge        string  `json:"riskBadge,omitempty"`
}

// StockData merges what is known about a symbol from holdings and watchlist.
type StockData struct {
	Symbol           string   `json:"symbol"`
	Name             string   `json:"name"`
	Price            float64  `json:"price"`
	Change           float64  `json:"change,omitempty"`
	ChangePercentage float64  `json:"changePercentage,omitempty"`
	RiskScore        *float64 `json:"riskScore,omitempty"`
	Holding          *Holding `json:"holding,omitempty"`
}

type NewsTag string

const (
	TagEarnings         NewsTag = "Earnings"
	TagMergers          NewsTag = "M&A"
	TagRegulatory       NewsTag = "Regulatory"
	TagRumor            NewsTag = "Rumor"
	TagFundraising      NewsTag = "Fundraising"
	TagManagementChange NewsTag = "Management change"
)

type NewsImpact struct {
	Status    string   `json:"status"`
	RiskScore *float64 `json:"riskScore,omitempty"`
}

type NewsItem struct {
	ID             string     `json:"id"`
	Headline       string     `json:"headline"`
	Source         string     `json:"source"`
	URL            string     `json:"url,omitempty"`
	Timestamp      time.Time  `json:"timestamp"`
	RelatedCompany string     `json:"relatedCompany"`
	Symbol         string     `json:"symbol"`
	Tags           []NewsTag  `json:"tags"`
	Impact         NewsImpact `json:"impact"`
}

type RiskTrend string

const (
	TrendIncreasing RiskTrend = "increasing"
	TrendDecreasing RiskTrend = "decreasing"
	TrendStable     RiskTrend = "stable"
)

type RiskDriver struct {
	Type string `json:"type"` // volume, price, volatility
	Text string `json:"text"`
}

// LiveRiskItem is one row of the live risk monitor.
type LiveRiskItem struct {
	ID            string     `json:"id"`
	Symbol        string     `json:"symbol"`
	Name          string     `json:"name"`
	RiskScore     float64    `json:"riskScore"`
	Confidence    float64    `json:"confidence"`
	Trend         RiskTrend  `json:"trend"`
	LastHourTrend []float64  `json:"lastHourTrend"`
	Drivers       RiskDriver `json:"drivers"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}
