// Package api is the HTTP client for the parking reservation backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/parkspot/internal/log"
	"github.com/felixgeelhaar/parkspot/internal/version"
)

// DefaultTimeout is the http.Client timeout used when none is configured
const DefaultTimeout = 30 * time.Second

// TokenSource supplies the bearer token for outgoing requests.
// An empty token means the request is sent without an Authorization header.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource
type TokenFunc func() string

// Token implements TokenSource
func (f TokenFunc) Token() string { return f() }

// Observer receives one call per completed request. Status is 0 when the
// request never got a response.
type Observer interface {
	ObserveRequest(method, endpoint string, status int, elapsed time.Duration)
}

// Client is the parking API client
type Client struct {
	baseURL  string
	http     *http.Client
	tokens   TokenSource
	logger   *log.Logger
	observer Observer
	newID    func() string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the request timeout of the underlying http.Client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithTokenSource installs the interceptor's token source
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithLogger sets the logger used for request traces
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithObserver reports every request to o
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// NewClient creates a client bound to a fixed base URL such as
// http://localhost:5000/api.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  log.Nop(),
		newID:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the base URL every path is appended to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Response is a successful API response
type Response struct {
	Status    int
	Data      json.RawMessage
	RequestID string
}

// Decode unmarshals the response body into target
func (r *Response) Decode(target interface{}) error {
	if len(bytes.TrimSpace(r.Data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Data, target); err != nil {
		return &APIError{
			Kind:      KindDecode,
			Status:    r.Status,
			Message:   "failed to decode response",
			RequestID: r.RequestID,
			Cause:     err,
		}
	}
	return nil
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with a JSON body
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// Put performs a PUT request with a JSON body
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, body)
}

// Delete performs a DELETE request
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}

// Do performs an HTTP request. Transport failures and non-2xx responses
// are returned as *APIError. Nothing is retried.
func (c *Client) Do(ctx context.Context, method, path string, body interface{}) (*Response, error) {
	requestID := c.newID()

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("User-Agent", version.UserAgent())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.intercept(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.observe(method, path, 0, elapsed)
		apiErr := transportError(err)
		apiErr.Method, apiErr.Path, apiErr.RequestID = method, path, requestID
		c.logger.Debug("api request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return nil, apiErr
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	c.observe(method, path, resp.StatusCode, elapsed)
	if err != nil {
		apiErr := transportError(err)
		apiErr.Method, apiErr.Path, apiErr.RequestID, apiErr.Status = method, path, requestID, resp.StatusCode
		return nil, apiErr
	}

	c.logger.Debug("api request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", elapsed.Milliseconds(),
		"request_id", requestID,
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := statusError(resp.StatusCode, data)
		apiErr.Method, apiErr.Path, apiErr.RequestID = method, path, requestID
		return nil, apiErr
	}

	return &Response{Status: resp.StatusCode, Data: data, RequestID: requestID}, nil
}

// intercept attaches the bearer token when one is available
func (c *Client) intercept(req *http.Request) {
	if c.tokens == nil {
		return
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

var numericSegment = regexp.MustCompile(`/\d+(/|$)`)

func (c *Client) observe(method, path string, status int, elapsed time.Duration) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveRequest(method, Endpoint(path), status, elapsed)
}

// Endpoint collapses numeric path segments so /admin/parking-lots/12
// and /admin/parking-lots/13 report as the same endpoint.
func Endpoint(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	for numericSegment.MatchString(path) {
		path = numericSegment.ReplaceAllString(path, "/:id$1")
	}
	return path
}

// get decodes a GET response into target
func (c *Client) get(ctx context.Context, path string, target interface{}) error {
	resp, err := c.Get(ctx, path)
	if err != nil {
		return err
	}
	return resp.Decode(target)
}

// send performs a request with a body and decodes the response into target
func (c *Client) send(ctx context.Context, method, path string, body, target interface{}) error {
	resp, err := c.Do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if target == nil {
		return nil
	}
	return resp.Decode(target)
}
