package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Amritha902/infocruxapp/internal/flow"
	"github.com/Amritha902/infocruxapp/internal/llm/llmtest"
	"github.com/Amritha902/infocruxapp/internal/marketdata"
	"github.com/Amritha902/infocruxapp/internal/types"
)

var seedTime = time.Date(2024, 7, 22, 10, 30, 0, 0, time.UTC)

func newStore() *marketdata.MemoryStore {
	return marketdata.NewMemoryStoreFrom(marketdata.Seed(seedTime))
}

func TestAssembleFullContext(t *testing.T) {
	a := NewAssembler(newStore())

	sc, err := a.Assemble(context.Background(), "Why is reliance.ns moving?")
	require.NoError(t, err)
	require.NotNil(t, sc)
	assert.Equal(t, "RELIANCE.NS", sc.Symbol)
	assert.Equal(t, "Reliance Industries", sc.CompanyName)
	require.NotNil(t, sc.Announcement)
	assert.Equal(t, 78.0, sc.Announcement.RiskScore)
	assert.Equal(t, -4.8, sc.Announcement.AbnormalReturn)
	assert.Equal(t, 3.6, sc.Announcement.VolumeSpikeRatio)
	assert.Equal(t, "2024-07-22T10:30:00Z", sc.Announcement.Timestamp)
	assert.Contains(t, sc.Announcement.FullText, "ABC Infra")
}

func TestAssembleMatchesStoredRecords(t *testing.T) {
	store := newStore()
	a := NewAssembler(store)
	anns, err := store.ListAnnouncements(context.Background())
	require.NoError(t, err)

	for _, ann := range anns {
		sc, err := a.Assemble(context.Background(), "Tell me about "+ann.Symbol)
		require.NoError(t, err)
		require.NotNil(t, sc)
		require.NotNil(t, sc.Announcement, ann.Symbol)
		assert.Equal(t, ann.FullText, sc.Announcement.FullText)
		assert.Equal(t, ann.RiskScore, sc.Announcement.RiskScore)
		assert.Equal(t, ann.AbnormalReturn, sc.Announcement.AbnormalReturn)
		assert.Equal(t, ann.VolumeSpikeRatio, sc.Announcement.VolumeSpikeRatio)
	}
}

func TestAssembleIdentityOnly(t *testing.T) {
	a := NewAssembler(newStore())

	sc, err := a.Assemble(context.Background(), "How is INFY.NS doing?")
	require.NoError(t, err)
	require.NotNil(t, sc)
	assert.Equal(t, types.StockContext{Symbol: "INFY.NS", CompanyName: "Infosys"}, *sc)

	sc, err = a.Assemble(context.Background(), "And WIPRO.NS?")
	require.NoError(t, err)
	require.NotNil(t, sc)
	assert.Equal(t, "WIPRO.NS", sc.CompanyName)
	assert.Nil(t, sc.Announcement)
}

func TestAssembleNoSymbol(t *testing.T) {
	a := NewAssembler(newStore())

	sc, err := a.Assemble(context.Background(), "What is a P/E ratio?")
	require.NoError(t, err)
	assert.Nil(t, sc)
}

type recordingAnalyst struct {
	inputs []types.ChatInput
	resp   *types.ChatResponse
	err    error
}

func (r *recordingAnalyst) IntelligenceChat(_ context.Context, in types.ChatInput) (*types.ChatResponse, error) {
	r.inputs = append(r.inputs, in)
	return r.resp, r.err
}

func (r *recordingAnalyst) SummarizeAnnouncement(context.Context, string) (*types.AnnouncementSummary, error) {
	return nil, errors.New("unused")
}

func (r *recordingAnalyst) ExplainRiskScore(context.Context, types.RiskExplanationInput) (*types.RiskExplanation, error) {
	return nil, errors.New("unused")
}

func TestRespondUsesLatestUserMessage(t *testing.T) {
	analyst := &recordingAnalyst{resp: &types.ChatResponse{
		GeneralResponse:     &types.GeneralResponse{Summary: "ok"},
		FollowUpSuggestions: []string{"a", "b", "c"},
	}}
	svc := NewService(newStore(), analyst)

	history := []types.Message{
		{Role: types.RoleUser, Content: "Why is RELIANCE.NS moving?"},
		{Role: types.RoleAssistant, Content: "..."},
		{Role: types.RoleUser, Content: "What is a P/E ratio?"},
		{Role: types.RoleAssistant, Content: "Thinking..."},
	}
	_, err := svc.Respond(context.Background(), history)
	require.NoError(t, err)

	require.Len(t, analyst.inputs, 1)
	assert.Equal(t, "What is a P/E ratio?", analyst.inputs[0].UserQuery)
	assert.Nil(t, analyst.inputs[0].StockContext)
}

func TestRespondWithoutUserQuery(t *testing.T) {
	svc := NewService(newStore(), &recordingAnalyst{})

	_, err := svc.Respond(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoUserQuery)

	_, err = svc.Respond(context.Background(), []types.Message{{Role: types.RoleAssistant, Content: "hi"}})
	assert.ErrorIs(t, err, ErrNoUserQuery)
}

func TestReplyEndToEnd(t *testing.T) {
	model := llmtest.New(llmtest.JSON(map[string]any{
		"marketAnalysis": map[string]any{
			"marketSummary": "Reliance is trading sharply lower on heavy volume.",
			"riskScore":     78,
			"riskCategory":  "Statistically Abnormal",
		},
		"followUpSuggestions": []string{"Who is ABC Infra?", "Is this unusual?", "Show past anomalies"},
	}))
	svc := NewService(newStore(), flow.New(model, flow.Config{}, nil, nil))

	msg, err := svc.Reply(context.Background(), []types.Message{{Role: types.RoleUser, Content: "Why is RELIANCE.NS moving?"}})
	require.NoError(t, err)

	assert.Equal(t, types.RoleAssistant, msg.Role)
	_, err = uuid.Parse(msg.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Reliance is trading sharply lower on heavy volume.", msg.Content)
	require.NotNil(t, msg.UI.MarketAnalysis)
	assert.Equal(t, -4.8, *msg.UI.MarketAnalysis.AbnormalReturn)
	assert.Equal(t, 3.6, *msg.UI.MarketAnalysis.VolumeSpikeRatio)

	prompt := model.Requests()[0].Messages[0].Text
	assert.Contains(t, prompt, "Abnormal return: -4.8%")
}

func TestReplyGenerationFailure(t *testing.T) {
	svc := NewService(newStore(), flow.New(llmtest.New(llmtest.Empty()), flow.Config{}, nil, nil))

	msg, err := svc.Reply(context.Background(), []types.Message{{Role: types.RoleUser, Content: "hello"}})
	assert.Nil(t, msg)
	assert.ErrorIs(t, err, flow.ErrGenerationFailed)
}
