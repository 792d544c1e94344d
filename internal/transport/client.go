// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// =============================================================================
// CLIENT CONSTANTS
// =============================================================================

// DefaultPromptParam is the query parameter that carries the prompt.
const DefaultPromptParam = "userprompt"

// DefaultHeaderTimeout bounds the wait for response headers. The body itself
// is streamed without a deadline.
const DefaultHeaderTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response is kept for diagnostics.
const maxErrorBody = 512

// =============================================================================
// SOURCE
// =============================================================================

// Source opens the byte stream for a single run.
type Source interface {
	Open(ctx context.Context, prompt string) (io.ReadCloser, error)
}

// =============================================================================
// HTTP CLIENT
// =============================================================================

// Client opens event streams over HTTP.
type Client struct {
	endpoint    string
	promptParam string
	httpClient  *http.Client
	logger      *log.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithPromptParam sets the query parameter that carries the prompt.
func WithPromptParam(name string) ClientOption {
	return func(c *Client) {
		if name != "" {
			c.promptParam = name
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithHeaderTimeout bounds the wait for response headers.
func WithHeaderTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = newHTTPClient(d)
		}
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(l *log.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client for the given endpoint URL.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:    strings.TrimSpace(endpoint),
		promptParam: DefaultPromptParam,
		httpClient:  newHTTPClient(DefaultHeaderTimeout),
		logger:      log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// newHTTPClient builds a client with no overall timeout so long streams
// are not cut off.
func newHTTPClient(headerTimeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: headerTimeout,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

// Endpoint returns the configured endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Open submits the prompt and returns the streaming response body.
// Cancelling ctx aborts the request and releases a blocked read on the body.
// Any failure is returned as a *TransportError; there is no retry.
func (c *Client) Open(ctx context.Context, prompt string) (io.ReadCloser, error) {
	if c.endpoint == "" {
		return nil, &TransportError{Err: ErrNoEndpoint}
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	q := u.Query()
	q.Set(c.promptParam, prompt)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Printf("STREAM_OPEN_FAILED | endpoint=%s error=%v", c.endpoint, err)
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		c.logger.Printf("STREAM_OPEN_FAILED | endpoint=%s status=%d", c.endpoint, resp.StatusCode)
		return nil, &TransportError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			Err:        ErrBadStatus,
		}
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		c.logger.Printf("STREAM_OPEN_FAILED | endpoint=%s reason=no_body", c.endpoint)
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: ErrNoBody}
	}

	c.logger.Printf("STREAM_OPEN | endpoint=%s status=%d latency=%dms",
		c.endpoint, resp.StatusCode, time.Since(start).Milliseconds())
	return resp.Body, nil
}

// =============================================================================
// FILE SOURCE
// =============================================================================

// FileSource replays a captured stream from disk. The prompt is ignored.
type FileSource struct {
	Path string
}

// Open opens the capture file.
func (f FileSource) Open(ctx context.Context, _ string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	return file, nil
}
