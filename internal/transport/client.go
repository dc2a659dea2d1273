package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultMaxBodyBytes = 16 << 20
)

// Response is the status and fully-read body of an upstream reply.
type Response struct {
	Status int
	Body   []byte
}

// OK reports whether the response carried HTTP 200.
func (r Response) OK() bool {
	return r.Status == http.StatusOK
}

// ErrBodyTooLarge reports a response body longer than the configured limit.
var ErrBodyTooLarge = errors.New("response body exceeds limit")

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client performs timed, rate-limited HTTP requests.
type Client struct {
	http         HTTPDoer
	timeout      time.Duration
	limiter      *rate.Limiter
	userAgent    string
	maxBodyBytes int64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithRateLimit paces outgoing requests to rps per second with the given
// burst. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithUserAgent sets the User-Agent sent when a request does not carry one.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		c.userAgent = strings.TrimSpace(agent)
	}
}

// WithMaxBodyBytes caps how much of a response body is read. Longer bodies
// fail with ErrBodyTooLarge.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// New creates a Client whose requests time out after timeout.
func New(timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := &Client{
		http:         &http.Client{Timeout: timeout},
		timeout:      timeout,
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, url string, headers http.Header) (Response, error) {
	return c.do(ctx, http.MethodGet, url, headers, nil)
}

// Post issues a POST request with body.
func (c *Client) Post(ctx context.Context, url string, headers http.Header, body []byte) (Response, error) {
	return c.do(ctx, http.MethodPost, url, headers, body)
}

func (c *Client) do(ctx context.Context, method, url string, headers http.Header, body []byte) (Response, error) {
	if c == nil {
		return Response{}, errors.New("transport: client is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Response{}, fmt.Errorf("transport: rate limit wait: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return Response{}, fmt.Errorf("transport: build request: %w", err)
	}
	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if req.Header.Get("User-Agent") == "" && c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	requestStart := time.Now()
	resp, err := c.http.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return Response{}, fmt.Errorf("transport: %s %s (latency=%v): %w", method, url, latency, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return Response{}, fmt.Errorf("transport: read %s body (latency=%v): %w", url, latency, err)
	}
	if int64(len(payload)) > c.maxBodyBytes {
		return Response{}, fmt.Errorf("transport: read %s body: %w (limit %d bytes)", url, ErrBodyTooLarge, c.maxBodyBytes)
	}
	return Response{Status: resp.StatusCode, Body: payload}, nil
}
