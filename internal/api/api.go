// Package api is the JSON-over-HTTP client shared by the search and feed
// integrations.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Amritha902/infocruxapp/internal/logger"
)

const defaultTimeout = 30 * time.Second

// Client sends requests relative to an optional base URL with a fixed set of
// default headers.
type Client struct {
	hc      *http.Client
	baseURL string
	headers http.Header
	verbose bool
}

type ClientOption func(*Client)

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.hc.Timeout = d }
}

func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

func WithHeader(key, value string) ClientOption {
	return func(c *Client) { c.headers.Set(key, value) }
}

// WithLogging logs every request and response at debug level and failures
// at warn.
func WithLogging(on bool) ClientOption {
	return func(c *Client) { c.verbose = on }
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.hc = hc }
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		hc:      &http.Client{Timeout: defaultTimeout},
		headers: http.Header{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Request is built fluently and sent with Do or DoWithRetry.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    any
	Headers http.Header
	ctx     context.Context
}

func NewRequest(method, path string) *Request {
	return &Request{Method: method, Path: path, Headers: http.Header{}, ctx: context.Background()}
}

func (r *Request) WithContext(ctx context.Context) *Request {
	r.ctx = ctx
	return r
}

func (r *Request) WithQuery(q url.Values) *Request {
	r.Query = q
	return r
}

// WithBody sets a value to be sent as JSON.
func (r *Request) WithBody(body any) *Request {
	r.Body = body
	return r
}

func (r *Request) WithHeader(key, value string) *Request {
	r.Headers.Set(key, value)
	return r
}

type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// ParseJSON decodes the body into v.
func (r *Response) ParseJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return nil
}

func (r *Response) String() string { return string(r.Body) }

// StatusError carries a response with status 400 or above.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Retryable is true for 408, 429 and 5xx.
func (e *StatusError) Retryable() bool {
	switch {
	case e.StatusCode == http.StatusRequestTimeout, e.StatusCode == http.StatusTooManyRequests:
		return true
	default:
		return e.StatusCode >= http.StatusInternalServerError
	}
}

func (c *Client) build(r *Request) (*http.Request, error) {
	target := c.baseURL + r.Path
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	var body io.Reader
	if r.Body != nil {
		b, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(r.ctx, r.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	for _, h := range []http.Header{c.headers, r.Headers} {
		for k := range h {
			req.Header.Set(k, h.Get(k))
		}
	}
	if r.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// Do sends r once. Statuses of 400 and above return a *StatusError.
func (c *Client) Do(r *Request) (*Response, error) {
	req, err := c.build(r)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		c.warn(r.ctx, "HTTP request failed", "method", r.Method, "path", r.Path, "error", err)
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	c.debug(r.ctx, "HTTP response",
		"method", r.Method,
		"path", r.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"bytes", len(body))

	if resp.StatusCode >= http.StatusBadRequest {
		c.warn(r.ctx, "HTTP error response", "method", r.Method, "path", r.Path, "status", resp.StatusCode)
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return &Response{StatusCode: resp.StatusCode, Body: body, Headers: resp.Header}, nil
}

// GET sends a GET to path with optional extra headers.
func (c *Client) GET(ctx context.Context, path string, headers ...map[string]string) (*Response, error) {
	r := NewRequest(http.MethodGet, path).WithContext(ctx)
	for _, h := range headers {
		for k, v := range h {
			r.WithHeader(k, v)
		}
	}
	return c.Do(r)
}

func (c *Client) debug(ctx context.Context, msg string, kv ...any) {
	if c.verbose {
		logger.Debug(ctx, msg, kv...)
	}
}

func (c *Client) warn(ctx context.Context, msg string, kv ...any) {
	if c.verbose {
		logger.Warn(ctx, msg, kv...)
	}
}

// BrowserHeaders are sent to sites that reject non-browser clients.
func BrowserHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Accept":          "application/json, text/plain, */*",
		"Accept-Language": "en-IN,en;q=0.9",
	}
}

type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{MaxAttempts: 3, InitialWait: time.Second, MaxWait: 5 * time.Second}
}

// DoWithRetry repeats Do on network errors and retryable statuses, doubling
// the wait up to MaxWait. A nil cfg uses DefaultRetryConfig.
func (c *Client) DoWithRetry(r *Request, cfg *RetryConfig) (*Response, error) {
	if cfg == nil {
		cfg = DefaultRetryConfig()
	}

	wait := cfg.InitialWait
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		resp, err := c.Do(r)
		if err == nil {
			return resp, nil
		}
		if !shouldRetry(r.ctx, err) {
			return nil, err
		}
		lastErr = err
		if attempt == cfg.MaxAttempts {
			break
		}

		c.debug(r.ctx, "Retrying request", "attempt", attempt, "wait", wait)
		t := time.NewTimer(wait)
		select {
		case <-r.ctx.Done():
			t.Stop()
			return nil, r.ctx.Err()
		case <-t.C:
		}
		wait = min(wait*2, cfg.MaxWait)
	}

	return nil, fmt.Errorf("all %d retry attempts failed: %w", cfg.MaxAttempts, lastErr)
}

func shouldRetry(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return true
}
