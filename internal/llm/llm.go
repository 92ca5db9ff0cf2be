// Package llm defines the provider-neutral request and response shapes
// exchanged with generative models.
package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyResponse is returned by providers that received neither text nor
// tool calls.
var ErrEmptyResponse = errors.New("llm: empty response")

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one conversation entry. Assistant messages may carry tool
// calls; tool messages carry their results.
type Message struct {
	Role        Role
	Text        string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// StringArg returns the named argument as a string, or "" if it is absent.
func (c ToolCall) StringArg(name string) string {
	v, ok := c.Args[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

type ToolResult struct {
	CallID  string
	Name    string
	Content string
	IsError bool
}

// Tool is a function the model may call mid-generation.
type Tool struct {
	Name        string
	Description string
	Parameters  *Schema
}

type Request struct {
	System      string
	Messages    []Message
	Tools       []Tool
	Schema      *Schema
	Temperature float32
	MaxTokens   int
}

type Response struct {
	Text         string
	ToolCalls    []ToolCall
	Provider     string
	Model        string
	FinishReason string
}

// Empty reports whether the model produced no usable output.
func (r *Response) Empty() bool {
	return r == nil || (strings.TrimSpace(r.Text) == "" && len(r.ToolCalls) == 0)
}

// UserText builds a single user message.
func UserText(text string) Message {
	return Message{Role: RoleUser, Text: text}
}
