package logger

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Amritha902/infocruxapp/internal/trace"
)

var (
	// Global logger instance
	globalLogger = zap.NewNop()
	// Whether detailed logging is enabled
	detailedLogging bool
)

// LogConfig holds logging configuration
type LogConfig struct {
	Level           string // DEBUG, INFO, WARN, ERROR
	Format          string // json or console
	DetailedLogging bool   // Enable debug logs and caller info
}

// WithEnv overrides config with LOG_LEVEL, LOG_FORMAT and LOG_DETAILED when
// they are set.
func (config LogConfig) WithEnv() LogConfig {
	config.Level = getEnvOrDefault("LOG_LEVEL", config.Level)
	config.Format = getEnvOrDefault("LOG_FORMAT", config.Format)
	if v, ok := os.LookupEnv("LOG_DETAILED"); ok {
		config.DetailedLogging = v == "true"
	}
	return config
}

// InitWithConfig builds the zap core for the given configuration
func InitWithConfig(config LogConfig) error {
	level, err := parseLogLevel(config.Level)
	if err != nil {
		return err
	}
	detailedLogging = config.DetailedLogging
	if detailedLogging && level > zapcore.DebugLevel {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.MessageKey = "msg"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if strings.EqualFold(config.Format, "json") {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level)
	opts := []zap.Option{zap.AddStacktrace(zapcore.DPanicLevel)}
	if detailedLogging {
		opts = append(opts, zap.AddCaller())
	}
	globalLogger = zap.New(core, opts...)
	return nil
}

// Replace swaps the global logger and returns a function restoring the previous one.
func Replace(l *zap.Logger, detailed bool) func() {
	prev, prevDetailed := globalLogger, detailedLogging
	globalLogger, detailedLogging = l, detailed
	return func() {
		globalLogger, detailedLogging = prev, prevDetailed
	}
}

// Sync flushes buffered entries.
func Sync() error {
	return globalLogger.Sync()
}

func parseLogLevel(level string) (zapcore.Level, error) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zapcore.DebugLevel, nil
	case "", "INFO":
		return zapcore.InfoLevel, nil
	case "WARN", "WARNING":
		return zapcore.WarnLevel, nil
	case "ERROR":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Debug logs a debug message
func Debug(ctx context.Context, msg string, args ...any) {
	if !detailedLogging {
		return
	}
	logWithTrace(ctx, zapcore.DebugLevel, msg, 2, args...)
}

// DebugSkip logs a debug message reporting the caller skip frames above.
// Middleware uses it so the wrapped call site shows up as the source.
func DebugSkip(ctx context.Context, skip int, msg string, args ...any) {
	if !detailedLogging {
		return
	}
	logWithTrace(ctx, zapcore.DebugLevel, msg, 2+skip, args...)
}

// Info logs an info message
func Info(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, zapcore.InfoLevel, msg, 2, args...)
}

// InfoSkip is Info with extra caller frames skipped
func InfoSkip(ctx context.Context, skip int, msg string, args ...any) {
	logWithTrace(ctx, zapcore.InfoLevel, msg, 2+skip, args...)
}

// Warn logs a warning message
func Warn(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, zapcore.WarnLevel, msg, 2, args...)
}

// ErrorWithErr logs an error message with an error object
func ErrorWithErr(ctx context.Context, msg string, err error, args ...any) {
	recordSpanError(ctx, err)
	logWithTrace(ctx, zapcore.ErrorLevel, msg, 2, append([]any{"error", err}, args...)...)
}

// ErrorWithErrSkip is ErrorWithErr with extra caller frames skipped
func ErrorWithErrSkip(ctx context.Context, skip int, msg string, err error, args ...any) {
	recordSpanError(ctx, err)
	logWithTrace(ctx, zapcore.ErrorLevel, msg, 2+skip, append([]any{"error", err}, args...)...)
}

func recordSpanError(ctx context.Context, err error) {
	if err == nil || !trace.Enabled() {
		return
	}
	span := oteltrace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		trace.Fail(span, err)
	}
}

// logWithTrace writes one entry with trace and span IDs when available.
// skip counts frames between zap and the caller that should be reported.
func logWithTrace(ctx context.Context, level zapcore.Level, msg string, skip int, args ...any) {
	l := globalLogger
	if detailedLogging {
		l = l.WithOptions(zap.AddCallerSkip(skip))
	}
	ce := l.Check(level, msg)
	if ce == nil {
		return
	}

	fields := make([]zap.Field, 0, len(args)/2+2)
	if traceID, spanID, ok := trace.GetTraceFields(ctx); ok {
		fields = append(fields, zap.String("trace_id", traceID), zap.String("span_id", spanID))
	}
	ce.Write(append(fields, toFields(args)...)...)
}

func toFields(args []any) []zap.Field {
	fields := make([]zap.Field, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprintf("arg%d", i)
		}
		if i+1 >= len(args) {
			fields = append(fields, zap.String("!BADKEY", key))
			break
		}
		switch v := args[i+1].(type) {
		case error:
			fields = append(fields, zap.NamedError(key, v))
		case time.Duration:
			fields = append(fields, zap.Duration(key, v))
		default:
			fields = append(fields, zap.Any(key, v))
		}
	}
	return fields
}

// OperationTimer measures an operation and ends its span
type OperationTimer struct {
	ctx       context.Context
	span      oteltrace.Span
	operation string
	start     time.Time
	fields    []any
}

// StartOperation starts timing an operation with an OpenTelemetry span
func StartOperation(ctx context.Context, operation string, fields ...any) *OperationTimer {
	var span oteltrace.Span
	if trace.Enabled() {
		ctx, span = trace.StartSpan(ctx, operation)
		span.SetAttributes(trace.Attrs(fields...)...)
	}

	Debug(ctx, "Operation started", append([]any{"operation", operation}, fields...)...)

	return &OperationTimer{
		ctx:       ctx,
		span:      span,
		operation: operation,
		start:     time.Now(),
		fields:    fields,
	}
}

// End completes the operation timer and logs the duration
func (ot *OperationTimer) End(additionalFields ...any) time.Duration {
	duration := time.Since(ot.start)

	if ot.span != nil {
		ot.span.SetAttributes(attribute.Int64("duration_ms", duration.Milliseconds()))
		ot.span.SetAttributes(trace.Attrs(additionalFields...)...)
		ot.span.SetStatus(codes.Ok, "completed")
		ot.span.End()
	}

	fields := append([]any{"operation", ot.operation, "duration_ms", duration.Milliseconds()}, ot.fields...)
	Debug(ot.ctx, "Operation completed", append(fields, additionalFields...)...)
	return duration
}

// EndWithError completes the operation timer with an error
func (ot *OperationTimer) EndWithError(err error, additionalFields ...any) time.Duration {
	duration := time.Since(ot.start)

	if ot.span != nil {
		ot.span.SetAttributes(attribute.Int64("duration_ms", duration.Milliseconds()))
		trace.Fail(ot.span, err)
		ot.span.End()
	}

	fields := append([]any{"operation", ot.operation, "duration_ms", duration.Milliseconds(), "error", err}, ot.fields...)
	logWithTrace(ot.ctx, zapcore.ErrorLevel, "Operation failed", 2, append(fields, additionalFields...)...)
	return duration
}

// GetContext returns the context with the span
func (ot *OperationTimer) GetContext() context.Context {
	return ot.ctx
}

// RiskAlert logs a canonical risk-band event for a symbol. Always logged.
func RiskAlert(ctx context.Context, symbol, category string, score float64, fields ...any) {
	if trace.Enabled() {
		span := oteltrace.SpanFromContext(ctx)
		if span.SpanContext().IsValid() {
			span.AddEvent("risk_alert", oteltrace.WithAttributes(
				attribute.String("symbol", symbol),
				attribute.String("category", category),
				attribute.Float64("risk_score", score),
			))
		}
	}

	allFields := append([]any{
		"type", "RISK",
		"symbol", symbol,
		"category", category,
		"risk_score", score,
	}, fields...)
	logWithTrace(ctx, zapcore.WarnLevel, "Risk alert", 2, allFields...)
}

// ToolInvocation logs a model-requested tool call
func ToolInvocation(ctx context.Context, tool string, fields ...any) {
	if trace.Enabled() {
		span := oteltrace.SpanFromContext(ctx)
		if span.SpanContext().IsValid() {
			span.AddEvent("tool_call", oteltrace.WithAttributes(attribute.String("tool", tool)))
		}
	}
	logWithTrace(ctx, zapcore.InfoLevel, "Tool invoked", 2, append([]any{"type", "TOOL", "tool", tool}, fields...)...)
}
