// Package llmtest provides a scripted model for tests.
package llmtest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Amritha902/infocruxapp/internal/llm"
)

// Step is one scripted reply.
type Step struct {
	Response *llm.Response
	Err      error
}

// Model replays Steps in order and records every request it receives.
type Model struct {
	mu       sync.Mutex
	steps    []Step
	requests []*llm.Request
}

func New(steps ...Step) *Model {
	return &Model{steps: steps}
}

// Text scripts a plain text reply.
func Text(s string) Step {
	return Step{Response: &llm.Response{Text: s, Provider: "scripted"}}
}

// JSON scripts a reply containing v marshalled as JSON.
func JSON(v any) Step {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return Text(string(b))
}

// Call scripts a single tool call.
func Call(id, name string, args map[string]any) Step {
	return Step{Response: &llm.Response{
		Provider:  "scripted",
		ToolCalls: []llm.ToolCall{{ID: id, Name: name, Args: args}},
	}}
}

func Fail(err error) Step {
	return Step{Err: err}
}

// Empty scripts a reply with no output.
func Empty() Step {
	return Step{Response: &llm.Response{Provider: "scripted"}}
}

func (m *Model) Generate(_ context.Context, req *llm.Request) (*llm.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, cloneRequest(req))
	if len(m.steps) == 0 {
		return nil, fmt.Errorf("llmtest: unexpected call %d", len(m.requests))
	}
	step := m.steps[0]
	m.steps = m.steps[1:]
	return step.Response, step.Err
}

// Requests returns the requests received so far.
func (m *Model) Requests() []*llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*llm.Request(nil), m.requests...)
}

// Remaining reports how many scripted steps were not consumed.
func (m *Model) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.steps)
}

func cloneRequest(req *llm.Request) *llm.Request {
	if req == nil {
		return nil
	}
	c := *req
	c.Messages = append([]llm.Message(nil), req.Messages...)
	return &c
}
