// Package flow runs prompt templates against a model, mediates tool calls
// and decodes validated structured output.
package flow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/Amritha902/infocruxapp/internal/interfaces"
	"github.com/Amritha902/infocruxapp/internal/llm"
	"github.com/Amritha902/infocruxapp/internal/logger"
	"github.com/Amritha902/infocruxapp/internal/trace"
	"github.com/Amritha902/infocruxapp/internal/types"
)

var (
	// ErrGenerationFailed means the model produced nothing usable. No partial
	// result accompanies it.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrInvalidOutput means the model answered but the answer does not match
	// the output schema.
	ErrInvalidOutput = errors.New("invalid model output")
)

const DefaultMaxToolRounds = 4

// ToolFunc executes one tool call and returns the text handed back to the
// model.
type ToolFunc func(ctx context.Context, call llm.ToolCall) (string, error)

// Tool pairs a declaration with its implementation.
type Tool struct {
	llm.Tool
	Invoke ToolFunc
}

// Prompt describes one flow.
type Prompt struct {
	Name string
	// System is the persona and output contract. The schema description is
	// appended to it.
	System   string
	Template *template.Template
	Schema   *llm.Schema
	// FailureMessage prefixes generation failures.
	FailureMessage string
	// Normalize runs after decoding and before validation.
	Normalize func(ctx context.Context, out any)
}

type Config struct {
	MaxToolRounds int
	Temperature   float32
	MaxTokens     int
}

type Runner struct {
	model interfaces.Model
	cfg   Config
}

func NewRunner(model interfaces.Model, cfg Config) *Runner {
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = DefaultMaxToolRounds
	}
	return &Runner{model: model, cfg: cfg}
}

// Run renders p with input, converses with the model until it returns a
// final answer, and decodes that answer into out.
func (r *Runner) Run(ctx context.Context, p Prompt, input any, tools []Tool, out any) error {
	ctx, span := trace.StartSpan(ctx, "flow."+p.Name)
	defer span.End()

	rendered, err := Render(p.Template, input)
	if err != nil {
		return fmt.Errorf("render %s prompt: %w", p.Name, err)
	}

	req := &llm.Request{
		System:      systemPrompt(p),
		Messages:    []llm.Message{llm.UserText(rendered)},
		Schema:      p.Schema,
		Temperature: r.cfg.Temperature,
		MaxTokens:   r.cfg.MaxTokens,
	}
	byName := make(map[string]Tool, len(tools))
	for _, t := range tools {
		req.Tools = append(req.Tools, t.Tool)
		byName[t.Name] = t
	}

	for round := 0; ; round++ {
		resp, err := r.model.Generate(ctx, req)
		if err != nil {
			return r.failed(p, err)
		}
		if resp.Empty() {
			return r.failed(p, llm.ErrEmptyResponse)
		}
		if len(resp.ToolCalls) == 0 {
			return decode(ctx, p, resp.Text, out)
		}
		if round >= r.cfg.MaxToolRounds {
			return r.failed(p, fmt.Errorf("model still calling tools after %d rounds", round))
		}

		req.Messages = append(req.Messages, llm.Message{
			Role:      llm.RoleAssistant,
			Text:      resp.Text,
			ToolCalls: resp.ToolCalls,
		})
		results := make([]llm.ToolResult, 0, len(resp.ToolCalls))
		for _, call := range resp.ToolCalls {
			results = append(results, invoke(ctx, byName, call))
		}
		req.Messages = append(req.Messages, llm.Message{Role: llm.RoleTool, ToolResults: results})
	}
}

func (r *Runner) failed(p Prompt, cause error) error {
	msg := p.FailureMessage
	if msg == "" {
		msg = p.Name
	}
	return fmt.Errorf("%w: %s: %w", ErrGenerationFailed, strings.TrimSuffix(msg, "."), cause)
}

func invoke(ctx context.Context, tools map[string]Tool, call llm.ToolCall) llm.ToolResult {
	result := llm.ToolResult{CallID: call.ID, Name: call.Name}
	t, ok := tools[call.Name]
	if !ok {
		logger.Warn(ctx, "Model requested unknown tool", "tool", call.Name)
		result.Content = fmt.Sprintf("unknown tool %q", call.Name)
		result.IsError = true
		return result
	}

	ctx, span := trace.StartSpan(ctx, "tool."+call.Name)
	defer span.End()
	logger.ToolInvocation(ctx, call.Name, "args", call.Args)

	content, err := t.Invoke(ctx, call)
	if err != nil {
		trace.Fail(span, err)
		logger.ErrorWithErr(ctx, "Tool call failed", err, "tool", call.Name)
		result.Content = err.Error()
		result.IsError = true
		return result
	}
	result.Content = content
	return result
}

func decode(ctx context.Context, p Prompt, text string, out any) error {
	raw := llm.ExtractJSON(text)
	if raw == "" {
		return fmt.Errorf("%w: %s: no JSON object in response", ErrInvalidOutput, p.Name)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidOutput, p.Name, err)
	}
	if p.Normalize != nil {
		p.Normalize(ctx, out)
	}
	if err := types.Validate(out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidOutput, p.Name, err)
	}
	return nil
}

func systemPrompt(p Prompt) string {
	if p.Schema == nil {
		return p.System
	}
	var b strings.Builder
	b.WriteString(p.System)
	b.WriteString("\n\nRespond with a single JSON object matching this schema and nothing else:\n")
	b.WriteString(p.Schema.String())
	return b.String()
}

// Render executes tmpl with data.
func Render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
