package interfaces

import (
	"context"

	"github.com/Amritha902/infocruxapp/internal/types"
)

// WebSearcher answers a free-text query with a text digest of results.
type WebSearcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// AnomalyHistory returns past abnormal trading days for a symbol.
type AnomalyHistory interface {
	History(ctx context.Context, symbol string) ([]types.HistoricalAnomaly, error)
}

type Notifier interface {
	Notify(ctx context.Context, alerts []types.Announcement) error
}

// Analyst runs the three model-backed flows.
type Analyst interface {
	IntelligenceChat(ctx context.Context, input types.ChatInput) (*types.ChatResponse, error)
	SummarizeAnnouncement(ctx context.Context, fullText string) (*types.AnnouncementSummary, error)
	ExplainRiskScore(ctx context.Context, input types.RiskExplanationInput) (*types.RiskExplanation, error)
}
