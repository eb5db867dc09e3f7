// Package fetch is the outbound HTTP wrapper used by server-side callers to
// reach the JSON API. Every call returns a response envelope: transport
// failures, timeouts and non-2xx statuses are normalised into failure
// envelopes instead of being returned as Go errors.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-devflow-backend/internal/apperr"
	"github.com/tbourn/go-devflow-backend/internal/envelope"
)

// DefaultTimeout bounds a request when neither the call nor the client sets one.
const DefaultTimeout = 5 * time.Second

// Client holds the shared settings of outbound calls.
type Client struct {
	// BaseURL is prefixed to relative paths ("/users").
	BaseURL string
	// HTTP performs the requests; nil uses http.DefaultClient.
	HTTP *http.Client
	// Timeout applies when Options.Timeout is zero.
	Timeout time.Duration
	// Logger receives warnings and errors; nil uses the global logger.
	Logger *zerolog.Logger
}

// NewClient returns a Client for baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), Timeout: timeout}
}

// Options configures one request.
type Options struct {
	Method string // GET when empty
	// Body is sent as is when it is []byte, string or io.Reader and JSON
	// encoded otherwise.
	Body    any
	Headers map[string]string // merged over the JSON defaults
	Timeout time.Duration
}

// TimeoutError reports a request cancelled by its timeout.
type TimeoutError struct {
	URL   string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to %s timed out after %s", e.URL, e.After)
}

// Timeout marks the error as a timeout for net.Error style checks.
func (e *TimeoutError) Timeout() bool { return true }

// Unwrap lets errors.Is match context.DeadlineExceeded.
func (e *TimeoutError) Unwrap() error { return context.DeadlineExceeded }

var defaultHeaders = map[string]string{
	"Content-Type": "application/json",
	"Accept":       "application/json",
}

// Request performs one call and decodes the body into an envelope. A nil
// client uses the defaults.
func Request[T any](ctx context.Context, c *Client, url string, opt Options) envelope.Response[T] {
	if c == nil {
		c = &Client{}
	}
	url = c.resolve(url)
	lg := c.logger()

	timeout := opt.Timeout
	if timeout <= 0 {
		timeout = c.Timeout
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := encodeBody(opt.Body)
	if err != nil {
		return fail[T](lg, url, err)
	}
	method := opt.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fail[T](lg, url, err)
	}
	for k, v := range defaultHeaders {
		req.Header.Set(k, v)
	}
	for k, v := range opt.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return failTimeout[T](ctx, lg, url, timeout, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return fail[T](lg, url, apperr.New(resp.StatusCode, fmt.Sprintf("HTTP error: %d", resp.StatusCode)))
	}

	var out envelope.Response[T]
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return failTimeout[T](ctx, lg, url, timeout, err)
	}
	return out
}

func (c *Client) resolve(url string) string {
	if c.BaseURL == "" || strings.Contains(url, "://") {
		return url
	}
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(url, "/")
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) logger() *zerolog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return &log.Logger
}

func encodeBody(v any) (io.Reader, error) {
	switch b := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(b), nil
	case string:
		return strings.NewReader(b), nil
	case io.Reader:
		return b, nil
	}
	buf, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return bytes.NewReader(buf), nil
}

// failTimeout reports err as a timeout when the request deadline fired.
func failTimeout[T any](ctx context.Context, lg *zerolog.Logger, url string, timeout time.Duration, err error) envelope.Response[T] {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		lg.Warn().Str("url", url).Dur("timeout", timeout).Msgf("request to %s timed out", url)
		_, r := envelope.HandleError[T](lg, &TimeoutError{URL: url, After: timeout}, envelope.ModeServer)
		return r
	}
	return fail[T](lg, url, err)
}

func fail[T any](lg *zerolog.Logger, url string, err error) envelope.Response[T] {
	lg.Error().Err(err).Str("url", url).Msgf("error fetching %s", url)
	_, r := envelope.HandleError[T](lg, err, envelope.ModeServer)
	return r
}
