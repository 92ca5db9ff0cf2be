package noop

import (
	"context"

	"github.com/Amritha902/infocruxapp/internal/interfaces"
	"github.com/Amritha902/infocruxapp/internal/llm"
	"github.com/Amritha902/infocruxapp/internal/logger"
)

const ProviderName = "noop"

// Model is the fallback used when no provider is configured. It never
// produces output, so every flow run against it fails with a generation
// failure rather than fabricating analysis.
type Model struct{}

var _ interfaces.Model = (*Model)(nil)

func New() *Model {
	return &Model{}
}

func (m *Model) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	logger.Debug(ctx, "Noop model called - returning no output", "messages", len(req.Messages))
	return &llm.Response{Provider: ProviderName}, nil
}
