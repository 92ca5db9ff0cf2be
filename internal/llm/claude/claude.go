package claude

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/Amritha902/infocruxapp/internal/interfaces"
	"github.com/Amritha902/infocruxapp/internal/llm"
	"github.com/Amritha902/infocruxapp/internal/trace"
)

const (
	ProviderName     = "claude"
	DefaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 4096
)

type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	// Endpoint overrides the public API base URL (proxies, gateways).
	Endpoint string
}

// Provider implements the model boundary on the Anthropic Messages API.
type Provider struct {
	cfg Config

	once   sync.Once
	client anthropic.Client
}

var _ interfaces.Model = (*Provider)(nil)

func New(cfg Config) *Provider {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	return &Provider{cfg: cfg}
}

func (p *Provider) getClient() anthropic.Client {
	p.once.Do(func() {
		opts := []option.RequestOption{option.WithAPIKey(p.cfg.APIKey)}
		if p.cfg.Endpoint != "" {
			opts = append(opts, option.WithBaseURL(p.cfg.Endpoint))
		}
		p.client = anthropic.NewClient(opts...)
	})
	return p.client
}

func (p *Provider) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	ctx, span := trace.StartSpan(ctx, "claude.Messages.New")
	defer span.End()

	if p.cfg.APIKey == "" {
		return nil, errors.New("CLAUDE_API_KEY missing")
	}

	params, err := p.buildParams(req)
	if err != nil {
		return nil, err
	}

	client := p.getClient()
	msg, err := client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) && llm.StatusTransient(apiErr.StatusCode) {
			return nil, llm.Transient(fmt.Errorf("claude API call failed: %w", err))
		}
		if llm.IsTransient(err) {
			return nil, llm.Transient(fmt.Errorf("claude API call failed: %w", err))
		}
		return nil, fmt.Errorf("claude API call failed: %w", err)
	}

	out := &llm.Response{
		Provider:     ProviderName,
		Model:        string(msg.Model),
		FinishReason: string(msg.StopReason),
	}
	var text strings.Builder
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			args := map[string]any{}
			if len(block.Input) > 0 {
				if err := json.Unmarshal(block.Input, &args); err != nil {
					return nil, fmt.Errorf("claude tool input for %s: %w", block.Name, err)
				}
			}
			out.ToolCalls = append(out.ToolCalls, llm.ToolCall{ID: block.ID, Name: block.Name, Args: args})
		}
	}
	out.Text = text.String()
	return out, nil
}

func (p *Provider) buildParams(req *llm.Request) (anthropic.MessageNewParams, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.cfg.MaxTokens
	}

	system := req.System

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.cfg.Model),
		MaxTokens: int64(maxTokens),
		Messages:  toMessages(req.Messages),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	temp := req.Temperature
	if temp <= 0 {
		temp = p.cfg.Temperature
	}
	if temp > 0 {
		params.Temperature = anthropic.Float(float64(temp))
	}

	for _, t := range req.Tools {
		schema := anthropic.ToolInputSchemaParam{}
		if t.Parameters != nil {
			schema.Properties = t.Parameters.Map()["properties"]
			schema.Required = t.Parameters.Required
		}
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: schema,
			},
		})
	}

	if len(params.Messages) == 0 {
		return params, errors.New("claude request has no messages")
	}
	return params, nil
}

func toMessages(msgs []llm.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case llm.RoleAssistant:
			blocks := []anthropic.ContentBlockParamUnion{}
			if m.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Text))
			}
			for _, c := range m.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(c.ID, c.Args, c.Name))
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		case llm.RoleTool:
			blocks := make([]anthropic.ContentBlockParamUnion, 0, len(m.ToolResults))
			for _, r := range m.ToolResults {
				blocks = append(blocks, anthropic.NewToolResultBlock(r.CallID, r.Content, r.IsError))
			}
			out = append(out, anthropic.NewUserMessage(blocks...))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Text)))
		}
	}
	return out
}
