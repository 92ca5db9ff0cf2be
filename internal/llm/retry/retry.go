// Package retry wraps a model with bounded retries for transient failures.
package retry

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/Amritha902/infocruxapp/internal/interfaces"
	"github.com/Amritha902/infocruxapp/internal/llm"
	"github.com/Amritha902/infocruxapp/internal/logger"
)

type Config struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

const (
	DefaultMaxAttempts       = 3
	DefaultInitialBackoff    = 2 * time.Second
	DefaultMaxBackoff        = 30 * time.Second
	DefaultBackoffMultiplier = 2.0
)

func DefaultConfig() Config {
	return Config{
		MaxAttempts:       DefaultMaxAttempts,
		InitialBackoff:    DefaultInitialBackoff,
		MaxBackoff:        DefaultMaxBackoff,
		BackoffMultiplier: DefaultBackoffMultiplier,
	}
}

type retryingModel struct {
	next  interfaces.Model
	cfg   Config
	sleep func(ctx context.Context, d time.Duration) error
}

var _ interfaces.Model = (*retryingModel)(nil)

// Wrap retries transient errors from next. Permanent errors and empty
// responses are returned on the first attempt.
func Wrap(next interfaces.Model, cfg Config) interfaces.Model {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultInitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultMaxBackoff
	}
	if cfg.BackoffMultiplier < 1 {
		cfg.BackoffMultiplier = DefaultBackoffMultiplier
	}
	return &retryingModel{next: next, cfg: cfg, sleep: sleepCtx}
}

func (r *retryingModel) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	var lastErr error
	for attempt := 0; attempt < r.cfg.MaxAttempts; attempt++ {
		resp, err := r.next.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !llm.IsTransient(err) || attempt == r.cfg.MaxAttempts-1 {
			break
		}

		backoff := r.cfg.Backoff(attempt, ExtractRetryDelay(err))
		logger.Warn(ctx, "Retrying model call", "attempt", attempt+1, "backoff", backoff, "error", err)
		if err := r.sleep(ctx, backoff); err != nil {
			return nil, err
		}
	}
	if llm.IsTransient(lastErr) {
		return nil, fmt.Errorf("model call failed after %d attempts: %w", r.cfg.MaxAttempts, lastErr)
	}
	return nil, lastErr
}

// Backoff computes the wait before retry number attempt (0-based). A
// provider-suggested delay replaces the initial backoff as the base.
func (c Config) Backoff(attempt int, suggested time.Duration) time.Duration {
	base := c.InitialBackoff
	if suggested > 0 {
		base = suggested
	}
	multiplier := 1.0
	for i := 0; i < attempt; i++ {
		multiplier *= c.BackoffMultiplier
	}
	// Clamped before converting: a large attempt overflows time.Duration.
	if f := float64(base) * multiplier; f < float64(c.MaxBackoff) {
		return time.Duration(f)
	}
	return c.MaxBackoff
}

var retryDelayRegex = regexp.MustCompile(`(?i)(?:Please retry in |retryDelay[:\s"]+)(\d+(?:\.\d+)?)\s*s`)

// ExtractRetryDelay parses a "Please retry in 12.5s" hint from a provider
// error. Zero means no hint.
func ExtractRetryDelay(err error) time.Duration {
	if err == nil {
		return 0
	}
	matches := retryDelayRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0
	}
	seconds, parseErr := strconv.ParseFloat(matches[1], 64)
	if parseErr != nil {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
