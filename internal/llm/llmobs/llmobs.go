package llmobs

import (
	"context"
	"time"

	"github.com/Amritha902/infocruxapp/internal/interfaces"
	"github.com/Amritha902/infocruxapp/internal/llm"
	"github.com/Amritha902/infocruxapp/internal/logger"
	"github.com/Amritha902/infocruxapp/internal/trace"
)

// observableModel wraps a Model with logging and tracing
type observableModel struct {
	model    interfaces.Model
	provider string
}

// Compile-time interface check
var _ interfaces.Model = (*observableModel)(nil)

// Wrap wraps a model with observability middleware
func Wrap(model interfaces.Model, provider string) interfaces.Model {
	return &observableModel{
		model:    model,
		provider: provider,
	}
}

func (om *observableModel) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Generate")
	defer span.End()
	span.SetAttributes(trace.Attrs("llm.provider", om.provider, "llm.tools", len(req.Tools))...)

	// Skip one frame so the caller of the middleware is reported
	logger.DebugSkip(ctx, 1, "Requesting model output",
		"provider", om.provider,
		"messages", len(req.Messages),
		"tools", len(req.Tools),
		"structured", req.Schema != nil,
	)

	start := time.Now()
	resp, err := om.model.Generate(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		trace.Fail(span, err)
		logger.ErrorWithErrSkip(ctx, 1, "Model call failed", err,
			"provider", om.provider,
			"duration", elapsed,
			"transient", llm.IsTransient(err),
		)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Model output received",
		"provider", om.provider,
		"model", resp.Model,
		"tool_calls", len(resp.ToolCalls),
		"chars", len(resp.Text),
		"finish_reason", resp.FinishReason,
		"duration", elapsed,
	)
	return resp, nil
}
