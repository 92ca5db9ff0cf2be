package types

// RiskCategory is the three-way market reaction band.
type RiskCategory string

const (
	RiskNormal   RiskCategory = "Normal"
	RiskModerate RiskCategory = "Moderate"
	RiskAbnormal RiskCategory = "Statistically Abnormal"
)

// AnnouncementContext carries the announcement facts handed to the model.
type AnnouncementContext struct {
	FullText         string  `json:"fullText"`
	Timestamp        string  `json:"timestamp"`
	RiskScore        float64 `json:"riskScore"`
	AbnormalReturn   float64 `json:"abnormalReturn"`
	VolumeSpikeRatio float64 `json:"volumeSpikeRatio"`
}

// StockContext is built per query. Announcement is nil for an
// identity-only context.
type StockContext struct {
	Symbol       string               `json:"symbol"`
	CompanyName  string               `json:"companyName"`
	Announcement *AnnouncementContext `json:"announcement,omitempty"`
}

type ChatInput struct {
	UserQuery    string        `json:"userQuery" validate:"required"`
	StockContext *StockContext `json:"stockContext,omitempty"`
}

type MarketAnalysis struct {
	MarketSummary    string       `json:"marketSummary" validate:"required"`
	RiskScore        *float64     `json:"riskScore,omitempty" validate:"omitempty,min=0,max=100"`
	RiskCategory     RiskCategory `json:"riskCategory,omitempty" validate:"omitempty,oneof=Normal Moderate 'Statistically Abnormal'"`
	AbnormalReturn   *float64     `json:"abnormalReturn,omitempty"`
	VolumeSpikeRatio *float64     `json:"volumeSpikeRatio,omitempty" validate:"omitempty,min=0"`
	Explanation      string       `json:"explanation,omitempty"`
}

type EntityType string

const (
	EntityCompany         EntityType = "Company"
	EntitySubsidiary      EntityType = "Subsidiary"
	EntityBank            EntityType = "Bank"
	EntityInvestmentFirm  EntityType = "Investment Firm"
	EntityGovernmentBody  EntityType = "Government Body"
	EntityIndividual      EntityType = "Individual"
	EntityCounterparty    EntityType = "Counterparty"
	EntityFinancialBacker EntityType = "Financial Backer"
	EntityOther           EntityType = "Other"
)

// EntityTypes lists the fixed vocabulary in prompt order.
var EntityTypes = []EntityType{
	EntityCompany,
	EntitySubsidiary,
	EntityBank,
	EntityInvestmentFirm,
	EntityGovernmentBody,
	EntityIndividual,
	EntityCounterparty,
	EntityFinancialBacker,
	EntityOther,
}

type ExtractedEntity struct {
	Name string     `json:"name" validate:"required"`
	Type EntityType `json:"type" validate:"required,entitytype"`
}

type AnnouncementAnalysis struct {
	Summary           string            `json:"summary" validate:"required"`
	ExtractedEntities []ExtractedEntity `json:"extractedEntities,omitempty" validate:"omitempty,dive"`
}

type GeneralResponse struct {
	Summary string   `json:"summary" validate:"required"`
	Sources []string `json:"sources,omitempty" validate:"omitempty,dive,url"`
}

// ChatResponse holds any of the three analysis branches. FollowUpSuggestions
// is always present.
type ChatResponse struct {
	MarketAnalysis       *MarketAnalysis       `json:"marketAnalysis,omitempty"`
	AnnouncementAnalysis *AnnouncementAnalysis `json:"announcementAnalysis,omitempty"`
	GeneralResponse      *GeneralResponse      `json:"generalResponse,omitempty"`
	FollowUpSuggestions  []string              `json:"followUpSuggestions" validate:"min=3,max=4,dive,required"`
}

// AnnouncementSummary is the output of the summarizer flow.
type AnnouncementSummary struct {
	Summary           string            `json:"summary" validate:"required"`
	ExtractedEntities []ExtractedEntity `json:"extractedEntities" validate:"dive"`
}

type RiskExplanationInput struct {
	Symbol             string  `json:"symbol" validate:"required"`
	Timestamp          string  `json:"timestamp" validate:"required"`
	RiskScore          float64 `json:"risk_score" validate:"min=0,max=100"`
	AbnormalReturn     float64 `json:"abnormal_return"`
	VolumeSpikeRatio   float64 `json:"volume_spike_ratio" validate:"min=0"`
	ExplanationContext string  `json:"explanationContext,omitempty"`
}

type RiskExplanation struct {
	Explanation string       `json:"explanation" validate:"required"`
	Category    RiskCategory `json:"category" validate:"required,oneof=Normal Moderate 'Statistically Abnormal'"`
}

// HistoricalAnomaly is a past abnormal trading day for a symbol.
type HistoricalAnomaly struct {
	Symbol              string  `json:"symbol"`
	Date                string  `json:"date"`
	AbnormalReturn      float64 `json:"abnormalReturn"`
	VolumeSpikeRatio    float64 `json:"volumeSpikeRatio"`
	VolatilityExpansion float64 `json:"volatilityExpansion,omitempty"`
	RiskScore           float64 `json:"riskScore,omitempty"`
	Note                string  `json:"note,omitempty"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat turn. UI is set on assistant turns.
type Message struct {
	ID      string        `json:"id"`
	Role    Role          `json:"role" validate:"required,oneof=user assistant"`
	Content string        `json:"content"`
	UI      *ChatResponse `json:"ui,omitempty"`
}
