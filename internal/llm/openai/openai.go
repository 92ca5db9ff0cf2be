package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Amritha902/infocruxapp/internal/interfaces"
	"github.com/Amritha902/infocruxapp/internal/llm"
	"github.com/Amritha902/infocruxapp/internal/trace"
)

const (
	ProviderName = "openai"
	DefaultModel = "gpt-4o-mini"
)

type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	BaseURL     string
}

type Provider struct {
	cfg    Config
	client *openai.Client
}

var _ interfaces.Model = (*Provider)(nil)

func New(cfg Config) *Provider {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Provider{cfg: cfg, client: openai.NewClientWithConfig(clientCfg)}
}

func (p *Provider) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	ctx, span := trace.StartSpan(ctx, "openai.CreateChatCompletion")
	defer span.End()

	if p.cfg.APIKey == "" {
		return nil, errors.New("OPENAI_API_KEY missing")
	}

	resp, err := p.client.CreateChatCompletion(ctx, p.buildRequest(req))
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && llm.StatusTransient(apiErr.HTTPStatusCode) {
			return nil, llm.Transient(fmt.Errorf("openai api error: %w", err))
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) && llm.StatusTransient(reqErr.HTTPStatusCode) {
			return nil, llm.Transient(fmt.Errorf("openai request error: %w", err))
		}
		return nil, fmt.Errorf("openai api error: %w", err)
	}

	out := &llm.Response{Provider: ProviderName, Model: resp.Model}
	if len(resp.Choices) == 0 {
		return out, nil
	}
	choice := resp.Choices[0]
	out.Text = choice.Message.Content
	out.FinishReason = string(choice.FinishReason)
	for _, tc := range choice.Message.ToolCalls {
		args := map[string]any{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("openai tool arguments for %s: %w", tc.Function.Name, err)
			}
		}
		out.ToolCalls = append(out.ToolCalls, llm.ToolCall{ID: tc.ID, Name: tc.Function.Name, Args: args})
	}
	return out, nil
}

func (p *Provider) buildRequest(req *llm.Request) openai.ChatCompletionRequest {
	temp := req.Temperature
	if temp <= 0 {
		temp = p.cfg.Temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.cfg.MaxTokens
	}

	system := req.System

	out := openai.ChatCompletionRequest{
		Model:       p.cfg.Model,
		Temperature: temp,
		MaxTokens:   maxTokens,
	}
	if system != "" {
		out.Messages = append(out.Messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	out.Messages = append(out.Messages, toMessages(req.Messages)...)

	for _, t := range req.Tools {
		out.Tools = append(out.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters.Map(),
			},
		})
	}
	if req.Schema != nil && len(req.Tools) == 0 {
		out.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}
	return out
}

func toMessages(msgs []llm.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case llm.RoleAssistant:
			msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.Text}
			for _, c := range m.ToolCalls {
				args, _ := json.Marshal(c.Args)
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:       c.ID,
					Type:     openai.ToolTypeFunction,
					Function: openai.FunctionCall{Name: c.Name, Arguments: string(args)},
				})
			}
			out = append(out, msg)
		case llm.RoleTool:
			for _, r := range m.ToolResults {
				out = append(out, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    r.Content,
					Name:       r.Name,
					ToolCallID: r.CallID,
				})
			}
		default:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: m.Text})
		}
	}
	return out
}
