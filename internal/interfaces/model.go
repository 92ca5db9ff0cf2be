package interfaces

import (
	"context"

	"github.com/Amritha902/infocruxapp/internal/llm"
)

// Model is the generative model boundary. A response with no text and no
// tool calls is treated as no output by callers.
type Model interface {
	Generate(ctx context.Context, req *llm.Request) (*llm.Response, error)
}
