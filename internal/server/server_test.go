package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Amritha902/infocruxapp/internal/flow"
	"github.com/Amritha902/infocruxapp/internal/marketdata"
	"github.com/Amritha902/infocruxapp/internal/monitor"
	"github.com/Amritha902/infocruxapp/internal/search"
	"github.com/Amritha902/infocruxapp/internal/types"
)

var seedTime = time.Date(2024, 7, 22, 10, 30, 0, 0, time.UTC)

type fakeAnalyst struct {
	mu         sync.Mutex
	chats      []types.ChatInput
	explains   []types.RiskExplanationInput
	summaryErr error
	chatDelay  time.Duration
}

func (f *fakeAnalyst) IntelligenceChat(_ context.Context, input types.ChatInput) (*types.ChatResponse, error) {
	time.Sleep(f.chatDelay)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats = append(f.chats, input)
	return &types.ChatResponse{
		GeneralResponse:     &types.GeneralResponse{Summary: fmt.Sprintf("answer %d", len(f.chats))},
		FollowUpSuggestions: []string{"a", "b", "c"},
	}, nil
}

func (f *fakeAnalyst) SummarizeAnnouncement(_ context.Context, fullText string) (*types.AnnouncementSummary, error) {
	if f.summaryErr != nil {
		return nil, f.summaryErr
	}
	return &types.AnnouncementSummary{
		Summary:           "Partnership announced.",
		ExtractedEntities: []types.ExtractedEntity{{Name: "ABC Infra", Type: types.EntityCounterparty}},
	}, nil
}

func (f *fakeAnalyst) ExplainRiskScore(_ context.Context, input types.RiskExplanationInput) (*types.RiskExplanation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.explains = append(f.explains, input)
	return &types.RiskExplanation{Explanation: "Heavy volume.", Category: types.RiskAbnormal}, nil
}

func newTestServer(t *testing.T) (*Server, *fakeAnalyst) {
	t.Helper()
	analyst := &fakeAnalyst{}
	store := marketdata.NewMemoryStoreFrom(marketdata.Seed(seedTime))
	return New(Deps{Store: store, Analyst: analyst}), analyst
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestDashboardEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/portfolio", "")
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[types.Portfolio](t, rec)
	assert.Len(t, p.Holdings, 4)
	assert.Greater(t, p.CurrentValue, p.TotalInvested)

	rec = do(t, s, http.MethodGet, "/api/watchlist", "")
	require.Equal(t, http.StatusOK, rec.Code)
	watch := decode[[]types.WatchlistItem](t, rec)
	require.Len(t, watch, 6)
	badges := map[string][2]string{}
	for _, it := range watch {
		badges[it.Symbol] = [2]string{it.RiskLevel, it.RiskBadge}
	}
	assert.Equal(t, [2]string{"High", "destructive"}, badges["RELIANCE.NS"])
	assert.Equal(t, [2]string{"Medium", "secondary"}, badges["HDFCBANK.NS"])
	assert.Equal(t, [2]string{"Low", "default"}, badges["TCS.NS"])

	rec = do(t, s, http.MethodGet, "/api/news", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[[]types.NewsItem](t, rec))

	rec = do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAnnouncementsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/announcements", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]types.Announcement](t, rec), 4)

	rec = do(t, s, http.MethodGet, "/api/announcements?min_risk=60", "")
	require.Equal(t, http.StatusOK, rec.Code)
	anns := decode[[]types.Announcement](t, rec)
	require.Len(t, anns, 1)
	assert.Equal(t, "RELIANCE.NS", anns[0].Symbol)
	assert.Equal(t, "High", anns[0].RiskLevel)
	assert.Equal(t, "destructive", anns[0].RiskBadge)

	for _, bad := range []string{"abc", "101", "-1"} {
		rec = do(t, s, http.MethodGet, "/api/announcements?min_risk="+bad, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

func TestAnnouncementBySymbol(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/announcements/reliance", "")
	require.Equal(t, http.StatusOK, rec.Code)
	ann := decode[types.Announcement](t, rec)
	assert.Equal(t, "RELIANCE.NS", ann.Symbol)
	assert.InDelta(t, 78, ann.RiskScore, 1e-9)
	assert.Equal(t, "High", ann.RiskLevel)

	rec = do(t, s, http.MethodGet, "/api/announcements/WIPRO.NS", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStockEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/stocks/tcs.ns", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stock := decode[types.StockData](t, rec)
	assert.Equal(t, "TCS.NS", stock.Symbol)
	assert.NotNil(t, stock.Holding)

	rec = do(t, s, http.MethodGet, "/api/stocks/NOPE", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRiskMonitorEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/risk-monitor", "")
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[monitor.Report](t, rec)
	assert.Equal(t, 1, report.HighRisk)
	assert.Equal(t, 2, report.Elevated)
	assert.Len(t, report.Items, 6)
}

func TestSearchEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/search?q=reliance", "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[search.Results](t, rec)
	assert.Equal(t, "reliance", res.Query)
	assert.NotEmpty(t, res.Stocks)
	assert.NotEmpty(t, res.Announcements)
}

func TestChatEndpoint(t *testing.T) {
	s, analyst := newTestServer(t)

	body := `{"messages":[
		{"id":"1","role":"user","content":"hello"},
		{"id":"2","role":"assistant","content":"hi"},
		{"id":"3","role":"user","content":"What happened with RELIANCE.NS today?"}
	]}`
	rec := do(t, s, http.MethodPost, "/api/chat", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	reply := decode[types.Message](t, rec)
	assert.Equal(t, types.RoleAssistant, reply.Role)
	assert.Equal(t, "answer 1", reply.Content)
	assert.NotEmpty(t, reply.ID)
	require.NotNil(t, reply.UI)
	assert.Len(t, reply.UI.FollowUpSuggestions, 3)

	require.Len(t, analyst.chats, 1)
	in := analyst.chats[0]
	assert.Equal(t, "What happened with RELIANCE.NS today?", in.UserQuery)
	require.NotNil(t, in.StockContext)
	require.NotNil(t, in.StockContext.Announcement)
	assert.InDelta(t, 78, in.StockContext.Announcement.RiskScore, 1e-9)
}

func TestChatEndpointRejectsBadRequests(t *testing.T) {
	s, analyst := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"messages":`},
		{"no user turn", `{"messages":[{"id":"1","role":"assistant","content":"hi"}]}`},
		{"blank user turn", `{"messages":[{"id":"1","role":"user","content":"   "}]}`},
		{"bad role", `{"messages":[{"id":"1","role":"system","content":"hi"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/chat", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Empty(t, analyst.chats)
}

func TestSummarizeEndpoint(t *testing.T) {
	s, analyst := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/summarize", `{"fullText":"Reliance partners with ABC Infra."}`)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[types.AnnouncementSummary](t, rec)
	require.Len(t, summary.ExtractedEntities, 1)
	assert.Equal(t, types.EntityCounterparty, summary.ExtractedEntities[0].Type)

	analyst.summaryErr = fmt.Errorf("%w: model returned no output", flow.ErrGenerationFailed)
	rec = do(t, s, http.MethodPost, "/api/summarize", `{"fullText":"x"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	analyst.summaryErr = fmt.Errorf("%w: fullText is required", flow.ErrInvalidInput)
	rec = do(t, s, http.MethodPost, "/api/summarize", `{"fullText":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExplainRiskEndpointNormalizesSymbol(t *testing.T) {
	s, analyst := newTestServer(t)

	body, err := json.Marshal(map[string]any{
		"symbol":             "reliance",
		"timestamp":          "2024-07-22T16:00:00+05:30",
		"risk_score":         78,
		"abnormal_return":    -4.8,
		"volume_spike_ratio": 3.6,
	})
	require.NoError(t, err)

	rec := do(t, s, http.MethodPost, "/api/explain-risk", string(body))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, types.RiskAbnormal, decode[types.RiskExplanation](t, rec).Category)

	require.Len(t, analyst.explains, 1)
	assert.Equal(t, "RELIANCE.NS", analyst.explains[0].Symbol)
	assert.InDelta(t, 3.6, analyst.explains[0].VolumeSpikeRatio, 1e-9)
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/chat", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/portfolio", "{}")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadGateway, statusFor(fmt.Errorf("%w: x", flow.ErrInvalidOutput)))
	assert.Equal(t, http.StatusInternalServerError, statusFor(bytes.ErrTooLarge))
}

func TestChatSocketKeepsHistory(t *testing.T) {
	s, analyst := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/chat"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var hello struct {
		Type    string            `json:"type"`
		Payload map[string]string `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, msgSession, hello.Type)
	assert.NotEmpty(t, hello.Payload["sessionId"])

	type reply struct {
		Type    string        `json:"type"`
		Payload types.Message `json:"payload"`
	}

	require.NoError(t, conn.WriteJSON(WSMessage{Type: msgUser, Content: "Tell me about TCS.NS"}))
	var first reply
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, msgReply, first.Type)
	assert.Equal(t, "answer 1", first.Payload.Content)

	require.NoError(t, conn.WriteJSON(WSMessage{Type: msgUser, Content: "What is a P/E ratio?"}))
	var second reply
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, "answer 2", second.Payload.Content)

	require.NoError(t, conn.WriteJSON(WSMessage{Type: msgUser, Content: "  "}))
	var empty WSMessage
	require.NoError(t, conn.ReadJSON(&empty))
	assert.Equal(t, msgError, empty.Type)

	require.NoError(t, conn.WriteJSON(WSMessage{Type: msgReset}))
	var reset WSMessage
	require.NoError(t, conn.ReadJSON(&reset))
	assert.Equal(t, msgResetDone, reset.Type)

	analyst.mu.Lock()
	defer analyst.mu.Unlock()
	require.Len(t, analyst.chats, 2)
	require.NotNil(t, analyst.chats[0].StockContext)
	assert.Equal(t, "TCS.NS", analyst.chats[0].StockContext.Symbol)
	assert.Equal(t, "What is a P/E ratio?", analyst.chats[1].UserQuery)
	assert.Nil(t, analyst.chats[1].StockContext)
}

func TestChatSocketSurvivesIdleAndSlowTurns(t *testing.T) {
	s, analyst := newTestServer(t)
	s.pongWait = 200 * time.Millisecond
	analyst.chatDelay = 3 * s.pongWait
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/chat"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// The client answers pings only while it is reading.
	incoming := make(chan WSMessage, 8)
	go func() {
		defer close(incoming)
		for {
			var m WSMessage
			if err := conn.ReadJSON(&m); err != nil {
				return
			}
			incoming <- m
		}
	}()
	next := func() WSMessage {
		t.Helper()
		select {
		case m, ok := <-incoming:
			require.True(t, ok, "session closed")
			return m
		case <-time.After(5 * time.Second):
			t.Fatal("no message from server")
			return WSMessage{}
		}
	}

	assert.Equal(t, msgSession, next().Type)

	time.Sleep(3 * s.pongWait)
	require.NoError(t, conn.WriteJSON(WSMessage{Type: msgUser, Content: "Tell me about TCS.NS"}))
	assert.Equal(t, msgReply, next().Type)

	require.NoError(t, conn.WriteJSON(WSMessage{Type: msgUser, Content: "And its volume?"}))
	assert.Equal(t, msgReply, next().Type)

	analyst.mu.Lock()
	defer analyst.mu.Unlock()
	require.Len(t, analyst.chats, 2)
	assert.Equal(t, "And its volume?", analyst.chats[1].UserQuery)
}

func TestChatSocketRejectsUnknownOrigin(t *testing.T) {
	store := marketdata.NewMemoryStoreFrom(marketdata.Seed(seedTime))
	s := New(Deps{Store: store, Analyst: &fakeAnalyst{}, AllowedOrigins: []string{"http://localhost:3000/"}})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/chat"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": {"http://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": {"http://localhost:3000"}})
	require.NoError(t, err)
	conn.Close()
}
