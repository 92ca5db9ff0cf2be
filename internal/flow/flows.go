package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Amritha902/infocruxapp/internal/interfaces"
	"github.com/Amritha902/infocruxapp/internal/llm"
	"github.com/Amritha902/infocruxapp/internal/logger"
	"github.com/Amritha902/infocruxapp/internal/risk"
	"github.com/Amritha902/infocruxapp/internal/symbol"
	"github.com/Amritha902/infocruxapp/internal/types"
)

// ErrInvalidInput rejects a flow request before the model is called.
var ErrInvalidInput = errors.New("invalid input")

const maxFollowUps = 4

// Flows implements the three model-backed analyses.
type Flows struct {
	runner   *Runner
	searcher interfaces.WebSearcher
	history  interfaces.AnomalyHistory
}

var _ interfaces.Analyst = (*Flows)(nil)

// New builds the flows. A nil searcher or history removes the matching tool
// from the chat flow.
func New(model interfaces.Model, cfg Config, searcher interfaces.WebSearcher, history interfaces.AnomalyHistory) *Flows {
	return &Flows{
		runner:   NewRunner(model, cfg),
		searcher: searcher,
		history:  history,
	}
}

// IntelligenceChat answers a user query, optionally grounded in a stock
// context.
func (f *Flows) IntelligenceChat(ctx context.Context, input types.ChatInput) (*types.ChatResponse, error) {
	input.UserQuery = strings.TrimSpace(input.UserQuery)
	if err := types.Validate(input); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	p := Prompt{
		Name:           "intelligenceChat",
		System:         chatSystem,
		Template:       chatTemplate,
		Schema:         chatSchema,
		FailureMessage: "Failed to generate chat response.",
		Normalize: func(ctx context.Context, out any) {
			normalizeChat(ctx, out.(*types.ChatResponse), input.StockContext)
		},
	}

	var out types.ChatResponse
	if err := f.runner.Run(ctx, p, input, f.chatTools(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SummarizeAnnouncement condenses an announcement and lists its entities.
func (f *Flows) SummarizeAnnouncement(ctx context.Context, fullText string) (*types.AnnouncementSummary, error) {
	fullText = strings.TrimSpace(fullText)
	if fullText == "" {
		return nil, fmt.Errorf("%w: announcement text is empty", ErrInvalidInput)
	}

	p := Prompt{
		Name:           "announcementSummary",
		System:         summarySystem,
		Template:       summaryTemplate,
		Schema:         summarySchema,
		FailureMessage: "Failed to generate summary and entities.",
		Normalize: func(_ context.Context, out any) {
			s := out.(*types.AnnouncementSummary)
			s.ExtractedEntities = normalizeEntities(s.ExtractedEntities)
		},
	}

	var out types.AnnouncementSummary
	if err := f.runner.Run(ctx, p, struct{ FullText string }{fullText}, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExplainRiskScore explains a score and assigns its band. The band always
// agrees with risk.Categorize.
func (f *Flows) ExplainRiskScore(ctx context.Context, input types.RiskExplanationInput) (*types.RiskExplanation, error) {
	input.Symbol = symbol.Normalize(input.Symbol)
	if err := types.Validate(input); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	p := Prompt{
		Name:           "riskExplanation",
		System:         riskSystem,
		Template:       riskTemplate,
		Schema:         riskSchema,
		FailureMessage: "Failed to generate risk explanation.",
		Normalize: func(ctx context.Context, out any) {
			e := out.(*types.RiskExplanation)
			e.Category = reconcileCategory(ctx, input.Symbol, string(e.Category), input.RiskScore)
		},
	}

	var out types.RiskExplanation
	if err := f.runner.Run(ctx, p, input, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (f *Flows) chatTools() []Tool {
	var tools []Tool
	if f.searcher != nil {
		tools = append(tools, Tool{Tool: searchTool, Invoke: f.searchTheWeb})
	}
	if f.history != nil {
		tools = append(tools, Tool{Tool: anomalyTool, Invoke: f.lookupAnomalies})
	}
	return tools
}

func (f *Flows) searchTheWeb(ctx context.Context, call llm.ToolCall) (string, error) {
	query := strings.TrimSpace(call.StringArg("query"))
	if query == "" {
		return "", errors.New("query is required")
	}
	return f.searcher.Search(ctx, query)
}

func (f *Flows) lookupAnomalies(ctx context.Context, call llm.ToolCall) (string, error) {
	sym := symbol.Normalize(call.StringArg("symbol"))
	if sym == "" {
		return "", errors.New("symbol is required")
	}
	records, err := f.history.History(ctx, sym)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return fmt.Sprintf("No historical anomalies recorded for %s.", sym), nil
	}
	b, err := json.Marshal(records)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// normalizeChat pins market metrics to the context the model was given,
// reconciles the band, and maps entity types onto the fixed vocabulary.
func normalizeChat(ctx context.Context, out *types.ChatResponse, sc *types.StockContext) {
	if ma := out.MarketAnalysis; ma != nil {
		sym := ""
		if sc != nil {
			sym = sc.Symbol
			if a := sc.Announcement; a != nil {
				ma.RiskScore = pinMetric(ctx, sym, "riskScore", ma.RiskScore, a.RiskScore)
				ma.AbnormalReturn = pinMetric(ctx, sym, "abnormalReturn", ma.AbnormalReturn, a.AbnormalReturn)
				ma.VolumeSpikeRatio = pinMetric(ctx, sym, "volumeSpikeRatio", ma.VolumeSpikeRatio, a.VolumeSpikeRatio)
			}
		}
		switch {
		case ma.RiskScore != nil:
			ma.RiskCategory = reconcileCategory(ctx, sym, string(ma.RiskCategory), *ma.RiskScore)
		case ma.RiskCategory != "":
			if c, ok := risk.ParseCategory(string(ma.RiskCategory)); ok {
				ma.RiskCategory = c
			} else {
				logger.Warn(ctx, "Dropping unknown risk category", "symbol", sym, "category", ma.RiskCategory)
				ma.RiskCategory = ""
			}
		}
	}
	if aa := out.AnnouncementAnalysis; aa != nil {
		aa.ExtractedEntities = normalizeEntities(aa.ExtractedEntities)
	}

	followUps := out.FollowUpSuggestions[:0]
	for _, s := range out.FollowUpSuggestions {
		if s = strings.TrimSpace(s); s != "" {
			followUps = append(followUps, s)
		}
	}
	if len(followUps) > maxFollowUps {
		followUps = followUps[:maxFollowUps]
	}
	out.FollowUpSuggestions = followUps
}

func pinMetric(ctx context.Context, sym, name string, got *float64, want float64) *float64 {
	if got != nil && *got != want {
		logger.Warn(ctx, "Model metric differs from context, using context value",
			"symbol", sym, "metric", name, "model", *got, "context", want)
	}
	return &want
}

func reconcileCategory(ctx context.Context, sym, got string, score float64) types.RiskCategory {
	canonical := risk.Categorize(score)
	if parsed, ok := risk.ParseCategory(got); !ok || parsed != canonical {
		logger.Warn(ctx, "Model risk category disagrees with score band, using canonical band",
			"symbol", sym, "score", score, "model_category", got, "category", canonical)
	}
	return canonical
}

func normalizeEntities(in []types.ExtractedEntity) []types.ExtractedEntity {
	out := make([]types.ExtractedEntity, 0, len(in))
	for _, e := range in {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			continue
		}
		out = append(out, types.ExtractedEntity{Name: name, Type: types.NormalizeEntityType(string(e.Type))})
	}
	return out
}
