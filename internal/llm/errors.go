package llm

import (
	"context"
	"errors"
	"net"
	"strings"
)

// TransientError marks a provider failure that may succeed on retry.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as retryable. A nil err stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// StatusTransient reports whether an HTTP status code is worth retrying.
func StatusTransient(code int) bool {
	return code == 408 || code == 429 || code >= 500
}

// IsTransient classifies err. Explicit TransientError marks win; otherwise
// network timeouts and well-known rate-limit or overload messages count.
// Context cancellation and deadlines never do.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrEmptyResponse) {
		return false
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	msg := err.Error()
	for _, marker := range []string{"429", "RESOURCE_EXHAUSTED", "UNAVAILABLE", "overloaded", "503", "502", "504", "rate limit"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
