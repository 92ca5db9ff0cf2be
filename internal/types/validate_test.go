package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatResponseFollowUpBounds(t *testing.T) {
	resp := ChatResponse{
		GeneralResponse:     &GeneralResponse{Summary: "A P/E ratio compares price to earnings."},
		FollowUpSuggestions: []string{"What is EPS?", "Is a high P/E bad?"},
	}
	assert.Error(t, Validate(resp))

	resp.FollowUpSuggestions = append(resp.FollowUpSuggestions, "How is P/E used?")
	assert.NoError(t, Validate(resp))

	resp.FollowUpSuggestions = append(resp.FollowUpSuggestions, "Q4", "Q5")
	assert.Error(t, Validate(resp))
}

func TestMarketAnalysisCategoryVocabulary(t *testing.T) {
	score := 78.0
	resp := ChatResponse{
		MarketAnalysis: &MarketAnalysis{
			MarketSummary: "Sharp drop on heavy volume.",
			RiskScore:     &score,
			RiskCategory:  RiskAbnormal,
		},
		FollowUpSuggestions: []string{"a", "b", "c"},
	}
	assert.NoError(t, Validate(resp))

	resp.MarketAnalysis.RiskCategory = "High"
	assert.Error(t, Validate(resp))
}

func TestGeneralResponseSourcesMustBeURLs(t *testing.T) {
	resp := ChatResponse{
		GeneralResponse:     &GeneralResponse{Summary: "x", Sources: []string{"not a url"}},
		FollowUpSuggestions: []string{"a", "b", "c"},
	}
	assert.Error(t, Validate(resp))

	resp.GeneralResponse.Sources = []string{"https://www.investopedia.com/terms/p/price-earningsratio.asp"}
	assert.NoError(t, Validate(resp))
}

func TestEntityTypeValidation(t *testing.T) {
	summary := AnnouncementSummary{
		Summary:           "Partnership for 5GW solar.",
		ExtractedEntities: []ExtractedEntity{{Name: "ABC Infra Pvt Ltd", Type: EntityCounterparty}},
	}
	assert.NoError(t, Validate(summary))

	summary.ExtractedEntities[0].Type = "Widget"
	assert.Error(t, Validate(summary))
}

func TestNormalizeEntityType(t *testing.T) {
	cases := map[string]EntityType{
		"bank":             EntityBank,
		" Investment firm ": EntityInvestmentFirm,
		"Acquiring entity": EntityCompany,
		"person":           EntityIndividual,
		"Spaceship":        EntityOther,
		"":                 EntityOther,
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeEntityType(in), in)
	}
}

func TestRiskExplanationInputBounds(t *testing.T) {
	in := RiskExplanationInput{Symbol: "TCS.NS", Timestamp: "2024-07-01T10:00:00Z", RiskScore: 101}
	assert.Error(t, Validate(in))
	in.RiskScore = 25
	assert.NoError(t, Validate(in))
}
