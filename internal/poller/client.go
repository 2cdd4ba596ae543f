package poller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxResponseBodySize bounds a stats response. A larger body is reported as
// an error rather than handed truncated to a decoder.
const maxResponseBodySize = 4 << 20 // 4MB

// connection pooling limits; overlapping ticks may hold several requests
// per query open at once
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 16
	defaultMaxConnsPerHost     = 32
	defaultIdleConnTimeout     = 60 * time.Second
)

// ErrBodyTooLarge is reported when a response exceeds the body size limit.
var ErrBodyTooLarge = fmt.Errorf("response body exceeds %d bytes", maxResponseBodySize)

// Response is the outcome of one stats request made by [Client].
type Response struct {
	// Body is the complete response body. nil when Error is set.
	Body []byte

	// StatusCode is the HTTP status code.
	// Zero if the request failed before receiving a response.
	StatusCode int

	// Latency is the total time taken for the request.
	Latency time.Duration

	// Error is a transport failure, an expired per-query timeout or an
	// oversized body. HTTP error statuses are not errors here.
	Error error
}

// Client issues stats queries over a shared connection pool.
//
// Each query carries its own timeout, applied per request via context.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new query [Client] with connection pooling.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
	}
}

// Fetch GETs url with the query's headers, bounded by timeout when it is
// positive.
//
// Fetch always returns a Response; errors are captured in the Error field
// rather than returned separately. Cancelling ctx yields an error wrapping
// [context.Canceled]; an expired timeout yields one wrapping
// [context.DeadlineExceeded].
func (c *Client) Fetch(ctx context.Context, url string, headers map[string]string, timeout time.Duration) Response {
	reqCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	fail := func(status int, err error) Response {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", timeout, context.DeadlineExceeded)
		}
		return Response{StatusCode: status, Latency: time.Since(start), Error: err}
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return fail(0, fmt.Errorf("failed to create request: %w", err))
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// already "Get <url>: <cause>"
		return fail(0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize+1))
	if err != nil {
		return fail(resp.StatusCode, fmt.Errorf("failed to read response body: %w", err))
	}
	if len(body) > maxResponseBodySize {
		return fail(resp.StatusCode, ErrBodyTooLarge)
	}

	return Response{
		Body:       body,
		StatusCode: resp.StatusCode,
		Latency:    time.Since(start),
	}
}

// Close closes all idle connections in the client's connection pool.
// Safe to call multiple times and on a nil receiver.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
