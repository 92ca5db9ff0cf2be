package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Amritha902/infocruxapp/internal/llm"
)

func TestGenerateParsesToolCalls(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "x", "object": "chat.completion", "model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "tool_calls", "message": {
				"role": "assistant", "content": "",
				"tool_calls": [{"id": "call_1", "type": "function",
					"function": {"name": "searchTheWeb", "arguments": "{\"query\":\"P/E ratio\"}"}}]
			}}]
		}`)
	}))
	defer srv.Close()

	p := New(Config{APIKey: "k", BaseURL: srv.URL})
	resp, err := p.Generate(context.Background(), &llm.Request{
		System:   "sys",
		Messages: []llm.Message{llm.UserText("What is a P/E ratio?")},
		Tools:    []llm.Tool{{Name: "searchTheWeb", Parameters: llm.Object("", map[string]*llm.Schema{"query": llm.String("q")}, "query")}},
	})
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "searchTheWeb", resp.ToolCalls[0].Name)
	assert.Equal(t, "P/E ratio", resp.ToolCalls[0].StringArg("query"))
	assert.Equal(t, "tool_calls", resp.FinishReason)

	msgs := captured["messages"].([]any)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Len(t, captured["tools"], 1)
}

func TestGenerateMarksServerErrorsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error":{"message":"overloaded","type":"server_error"}}`)
	}))
	defer srv.Close()

	p := New(Config{APIKey: "k", BaseURL: srv.URL})
	_, err := p.Generate(context.Background(), &llm.Request{Messages: []llm.Message{llm.UserText("hi")}})
	require.Error(t, err)
	assert.True(t, llm.IsTransient(err))
}

func TestBuildRequestJSONModeOnlyWithoutTools(t *testing.T) {
	p := New(Config{APIKey: "k"})
	schema := llm.Object("out", map[string]*llm.Schema{"summary": llm.String("s")}, "summary")

	req := p.buildRequest(&llm.Request{System: "sys", Schema: schema, Messages: []llm.Message{llm.UserText("x")}})
	require.NotNil(t, req.ResponseFormat)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "sys", req.Messages[0].Content)

	req = p.buildRequest(&llm.Request{Schema: schema, Tools: []llm.Tool{{Name: "t"}}})
	assert.Nil(t, req.ResponseFormat)
}

func TestToMessagesExpandsToolResults(t *testing.T) {
	out := toMessages([]llm.Message{
		{Role: llm.RoleTool, ToolResults: []llm.ToolResult{{CallID: "a", Content: "1"}, {CallID: "b", Content: "2"}}},
	})
	require.Len(t, out, 2)
	assert.Equal(t, "tool", out[0].Role)
	assert.Equal(t, "b", out[1].ToolCallID)
}
