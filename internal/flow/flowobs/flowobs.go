package flowobs

import (
	"context"

	"github.com/Amritha902/infocruxapp/internal/interfaces"
	"github.com/Amritha902/infocruxapp/internal/logger"
	"github.com/Amritha902/infocruxapp/internal/risk"
	"github.com/Amritha902/infocruxapp/internal/types"
)

// observableAnalyst wraps an Analyst with operation timing and risk alerts
type observableAnalyst struct {
	analyst interfaces.Analyst
}

// Compile-time interface check
var _ interfaces.Analyst = (*observableAnalyst)(nil)

func Wrap(analyst interfaces.Analyst) interfaces.Analyst {
	return &observableAnalyst{analyst: analyst}
}

func (oa *observableAnalyst) IntelligenceChat(ctx context.Context, input types.ChatInput) (*types.ChatResponse, error) {
	fields := []any{"query_len", len(input.UserQuery), "has_context", input.StockContext != nil}
	if input.StockContext != nil {
		fields = append(fields, "symbol", input.StockContext.Symbol, "has_announcement", input.StockContext.Announcement != nil)
	}
	op := logger.StartOperation(ctx, "flow.IntelligenceChat", fields...)

	resp, err := oa.analyst.IntelligenceChat(op.GetContext(), input)
	if err != nil {
		op.EndWithError(err)
		return nil, err
	}

	if ma := resp.MarketAnalysis; ma != nil && ma.RiskScore != nil && risk.IsAlert(*ma.RiskScore) && input.StockContext != nil {
		logger.RiskAlert(op.GetContext(), input.StockContext.Symbol, string(ma.RiskCategory), *ma.RiskScore)
	}
	op.End(
		"market_analysis", resp.MarketAnalysis != nil,
		"announcement_analysis", resp.AnnouncementAnalysis != nil,
		"general_response", resp.GeneralResponse != nil,
		"follow_ups", len(resp.FollowUpSuggestions),
	)
	return resp, nil
}

func (oa *observableAnalyst) SummarizeAnnouncement(ctx context.Context, fullText string) (*types.AnnouncementSummary, error) {
	op := logger.StartOperation(ctx, "flow.SummarizeAnnouncement", "text_len", len(fullText))

	summary, err := oa.analyst.SummarizeAnnouncement(op.GetContext(), fullText)
	if err != nil {
		op.EndWithError(err)
		return nil, err
	}
	op.End("entities", len(summary.ExtractedEntities))
	return summary, nil
}

func (oa *observableAnalyst) ExplainRiskScore(ctx context.Context, input types.RiskExplanationInput) (*types.RiskExplanation, error) {
	op := logger.StartOperation(ctx, "flow.ExplainRiskScore", "symbol", input.Symbol, "score", input.RiskScore)

	explanation, err := oa.analyst.ExplainRiskScore(op.GetContext(), input)
	if err != nil {
		op.EndWithError(err)
		return nil, err
	}
	if risk.IsAlert(input.RiskScore) {
		logger.RiskAlert(op.GetContext(), input.Symbol, string(explanation.Category), input.RiskScore)
	}
	op.End("category", explanation.Category)
	return explanation, nil
}
