package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	tests := map[string]string{
		`{"a":1}`:                                  `{"a":1}`,
		"```json\n{\"a\":1}\n```":                  `{"a":1}`,
		`Here you go: {"a":{"b":"}"}} thanks`:      `{"a":{"b":"}"}}`,
		`{"s":"quote \" and { brace"} trailing`:    `{"s":"quote \" and { brace"}`,
		`no json here`:                             `no json here`,
	}
	for in, want := range tests {
		assert.Equal(t, want, ExtractJSON(in), in)
	}
}

func TestSchemaMap(t *testing.T) {
	s := Object("root", map[string]*Schema{
		"score":     Number("score").WithRange(0, 100),
		"followUps": Array("questions", String("q")).WithItems(3, 4),
		"category":  Enum("band", "Normal", "Moderate"),
	}, "followUps")

	m := s.Map()
	assert.Equal(t, "object", m["type"])
	assert.Equal(t, []string{"followUps"}, m["required"])
	props := m["properties"].(map[string]any)
	follow := props["followUps"].(map[string]any)
	assert.Equal(t, 3, follow["minItems"])
	assert.Equal(t, 4, follow["maxItems"])
	score := props["score"].(map[string]any)
	assert.Equal(t, 100.0, score["maximum"])
	assert.Equal(t, []string{"category", "followUps", "score"}, s.PropertyNames())
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(Transient(errors.New("boom"))))
	assert.True(t, IsTransient(fmt.Errorf("wrapped: %w", Transient(errors.New("x")))))
	assert.True(t, IsTransient(errors.New("Error 429, Status: RESOURCE_EXHAUSTED")))
	assert.False(t, IsTransient(errors.New("invalid api key")))
	assert.False(t, IsTransient(context.Canceled))
	assert.False(t, IsTransient(context.DeadlineExceeded))
	assert.False(t, IsTransient(Transient(fmt.Errorf("attempt: %w", context.DeadlineExceeded))))
	assert.True(t, IsTransient(&net.DNSError{Err: "i/o timeout", Name: "api.example.com", IsTimeout: true}))
	assert.False(t, IsTransient(ErrEmptyResponse))
	assert.False(t, IsTransient(nil))
}

func TestResponseEmpty(t *testing.T) {
	var r *Response
	assert.True(t, r.Empty())
	assert.True(t, (&Response{Text: "  "}).Empty())
	assert.False(t, (&Response{ToolCalls: []ToolCall{{Name: "searchTheWeb"}}}).Empty())
	assert.False(t, (&Response{Text: "{}"}).Empty())
}

func TestToolCallStringArg(t *testing.T) {
	c := ToolCall{Args: map[string]any{"query": "P/E ratio", "n": 3}}
	assert.Equal(t, "P/E ratio", c.StringArg("query"))
	assert.Equal(t, "3", c.StringArg("n"))
	assert.Equal(t, "", c.StringArg("missing"))
}
