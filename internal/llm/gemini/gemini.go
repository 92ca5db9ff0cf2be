// Package gemini adapts the Google Gen AI SDK to the model boundary.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/Amritha902/infocruxapp/internal/interfaces"
	"github.com/Amritha902/infocruxapp/internal/llm"
	"github.com/Amritha902/infocruxapp/internal/trace"
)

const (
	ProviderName = "gemini"
	DefaultModel = "gemini-2.5-flash"
)

type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Provider owns one lazily-built genai client shared by all requests.
type Provider struct {
	cfg Config

	mu     sync.Mutex
	client *genai.Client
}

var _ interfaces.Model = (*Provider)(nil)

func New(cfg Config) *Provider {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Provider{cfg: cfg}
}

func (p *Provider) getClient(ctx context.Context) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}
	if p.cfg.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY missing")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}
	p.client = client
	return client, nil
}

// Close drops the client. The next Generate builds a fresh one.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.client = nil
	return nil
}

func (p *Provider) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	ctx, span := trace.StartSpan(ctx, "gemini.GenerateContent")
	defer span.End()

	client, err := p.getClient(ctx)
	if err != nil {
		return nil, err
	}

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	resp, err := client.Models.GenerateContent(ctx, p.cfg.Model, toContents(req.Messages), p.buildConfig(req))
	if err != nil {
		if llm.IsTransient(err) {
			return nil, llm.Transient(fmt.Errorf("gemini API call failed: %w", err))
		}
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}

	out := &llm.Response{
		Provider: ProviderName,
		Model:    p.cfg.Model,
		Text:     resp.Text(),
	}
	for _, fc := range resp.FunctionCalls() {
		out.ToolCalls = append(out.ToolCalls, llm.ToolCall{ID: fc.ID, Name: fc.Name, Args: fc.Args})
	}
	if len(resp.Candidates) > 0 {
		out.FinishReason = string(resp.Candidates[0].FinishReason)
	}
	return out, nil
}

func (p *Provider) buildConfig(req *llm.Request) *genai.GenerateContentConfig {
	temp := req.Temperature
	if temp <= 0 {
		temp = p.cfg.Temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.cfg.MaxTokens
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temp),
	}
	if maxTokens > 0 {
		config.MaxOutputTokens = int32(maxTokens)
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  toGenaiSchema(t.Parameters),
			})
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	} else if req.Schema != nil {
		// Function calling and controlled JSON output cannot be combined, so
		// the schema is only enforced natively on tool-free requests.
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = toGenaiSchema(req.Schema)
	}
	return config
}

func toContents(msgs []llm.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case llm.RoleAssistant:
			c := &genai.Content{Role: genai.RoleModel}
			if m.Text != "" {
				c.Parts = append(c.Parts, genai.NewPartFromText(m.Text))
			}
			for _, call := range m.ToolCalls {
				c.Parts = append(c.Parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   call.ID,
					Name: call.Name,
					Args: call.Args,
				}})
			}
			contents = append(contents, c)
		case llm.RoleTool:
			c := &genai.Content{Role: genai.RoleUser}
			for _, r := range m.ToolResults {
				key := "output"
				if r.IsError {
					key = "error"
				}
				c.Parts = append(c.Parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
					ID:       r.CallID,
					Name:     r.Name,
					Response: map[string]any{key: r.Content},
				}})
			}
			contents = append(contents, c)
		default:
			contents = append(contents, genai.NewContentFromText(m.Text, genai.RoleUser))
		}
	}
	return contents
}

func toGenaiSchema(s *llm.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        toGenaiType(s.Type),
		Description: s.Description,
		Enum:        s.Enum,
		Format:      s.Format,
		Required:    s.Required,
		Minimum:     s.Minimum,
		Maximum:     s.Maximum,
	}
	if s.MinItems != nil {
		out.MinItems = genai.Ptr(int64(*s.MinItems))
	}
	if s.MaxItems != nil {
		out.MaxItems = genai.Ptr(int64(*s.MaxItems))
	}
	if s.Items != nil {
		out.Items = toGenaiSchema(s.Items)
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for _, name := range s.PropertyNames() {
			out.Properties[name] = toGenaiSchema(s.Properties[name])
		}
		out.PropertyOrdering = s.PropertyNames()
	}
	return out
}

func toGenaiType(t llm.SchemaType) genai.Type {
	switch t {
	case llm.TypeObject:
		return genai.TypeObject
	case llm.TypeArray:
		return genai.TypeArray
	case llm.TypeNumber:
		return genai.TypeNumber
	case llm.TypeInteger:
		return genai.TypeInteger
	case llm.TypeBoolean:
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}
