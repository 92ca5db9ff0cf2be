package trace

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpanDisabledIsNoop(t *testing.T) {
	require.NoError(t, Shutdown(context.Background()))

	ctx, span := StartSpan(context.Background(), "flow.chat")
	span.End()
	assert.False(t, Enabled())
	_, _, ok := GetTraceFields(ctx)
	assert.False(t, ok)
}

func TestFailRecordsErrorStatus(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	require.NoError(t, InitWithExporter(exp))
	t.Cleanup(func() { _ = Shutdown(context.Background()) })

	ctx, span := StartSpan(context.Background(), "model.generate")
	traceID, spanID, ok := GetTraceFields(ctx)
	require.True(t, ok)
	assert.NotEmpty(t, traceID)
	assert.NotEmpty(t, spanID)

	Fail(span, nil)
	Fail(span, errors.New("quota exhausted"))
	span.End()

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "model.generate", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "quota exhausted", spans[0].Status.Description)
	assert.Len(t, spans[0].Events, 1)
}

func TestAttrs(t *testing.T) {
	attrs := Attrs("symbol", "RELIANCE.NS", "score", 78.0, "rounds", 2, "grounded", true,
		"elapsed", 2*time.Second, 42, "dropped", "dangling")

	assert.Equal(t, []attribute.KeyValue{
		attribute.String("symbol", "RELIANCE.NS"),
		attribute.Float64("score", 78),
		attribute.Int("rounds", 2),
		attribute.Bool("grounded", true),
		attribute.String("elapsed", "2s"),
	}, attrs)
}
