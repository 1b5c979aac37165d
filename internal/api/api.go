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

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"dynamic-dca-bot/internal/logger"
)

// Client is an HTTP client with default headers, a request rate limit and retry support
type Client struct {
	httpClient *http.Client
	baseURL    string
	headers    map[string]string
	limiter    *rate.Limiter
	useLogging bool
}

func (c *Client) logDebug(ctx context.Context, msg string, args ...any) {
	if c.useLogging {
		logger.DebugSkip(ctx, 1, msg, args...)
	}
}

func (c *Client) logWarn(ctx context.Context, msg string, args ...any) {
	if c.useLogging {
		logger.WarnSkip(ctx, 1, msg, args...)
	}
}

// ClientOption configures the API client
type ClientOption func(*Client)

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHeader sets a default header for all requests
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithRateLimit caps outgoing requests per second. Zero or negative disables the limit.
func WithRateLimit(perSecond int) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Second/time.Duration(perSecond)), perSecond)
	}
}

func WithLogging(enabled bool) ClientOption {
	return func(c *Client) {
		c.useLogging = enabled
	}
}

// WithHTTPClient replaces the underlying transport client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(opts ...ClientOption) *Client {
	client := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		headers: make(map[string]string),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Request represents an HTTP request configuration
type Request struct {
	Method  string
	URL     string
	Query   url.Values
	Body    any
	Headers map[string]string
	ctx     context.Context
}

type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// StatusError is returned for responses with a 4xx or 5xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed if repeated
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func NewRequest(method, url string) *Request {
	return &Request{
		Method:  method,
		URL:     url,
		Headers: make(map[string]string),
		ctx:     context.Background(),
	}
}

func (r *Request) WithContext(ctx context.Context) *Request {
	r.ctx = ctx
	return r
}

// WithQuery sets the query string. Keys are encoded in sorted order.
func (r *Request) WithQuery(q url.Values) *Request {
	r.Query = q
	return r
}

// WithBody sets the request body. json.RawMessage and []byte are sent as is, anything else is JSON encoded.
func (r *Request) WithBody(body any) *Request {
	r.Body = body
	return r
}

func (r *Request) WithHeader(key, value string) *Request {
	r.Headers[key] = value
	return r
}

func (r *Request) encodeBody() ([]byte, error) {
	switch b := r.Body.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return b, nil
	case []byte:
		return b, nil
	default:
		return json.Marshal(b)
	}
}

// Do executes the request once
func (c *Client) Do(req *Request) (*Response, error) {
	target := req.URL
	if c.baseURL != "" {
		target = c.baseURL + req.URL
	}
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	body, err := req.encodeBody()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(req.ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	httpReq, err := http.NewRequestWithContext(req.ctx, req.Method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	for key, value := range c.headers {
		httpReq.Header.Set(key, value)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	if body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	c.logDebug(req.ctx, "HTTP Request", "method", req.Method, "url", req.URL)

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logDebug(req.ctx, "HTTP Response",
		"method", req.Method,
		"url", req.URL,
		"status", httpResp.StatusCode,
		"duration", time.Since(start),
		"bodySize", len(respBody))

	if httpResp.StatusCode >= 400 {
		return nil, &StatusError{StatusCode: httpResp.StatusCode, Body: string(respBody)}
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       respBody,
		Headers:    httpResp.Header,
	}, nil
}

func (c *Client) GET(ctx context.Context, path string, query url.Values, headers ...map[string]string) (*Response, error) {
	req := NewRequest(http.MethodGet, path).WithContext(ctx).WithQuery(query)
	if len(headers) > 0 {
		for key, value := range headers[0] {
			req.WithHeader(key, value)
		}
	}
	return c.Do(req)
}

func (c *Client) POST(ctx context.Context, path string, body any, headers ...map[string]string) (*Response, error) {
	req := NewRequest(http.MethodPost, path).WithContext(ctx).WithBody(body)
	if len(headers) > 0 {
		for key, value := range headers[0] {
			req.WithHeader(key, value)
		}
	}
	return c.Do(req)
}

func (r *Response) ParseJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return nil
}

func (r *Response) String() string {
	return string(r.Body)
}

// RetryConfig configures retry behavior
type RetryConfig struct {
	MaxRetries  int
	InitialWait time.Duration
	MaxWait     time.Duration
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:  3,
		InitialWait: 500 * time.Millisecond,
		MaxWait:     5 * time.Second,
	}
}

// DoWithRetry repeats the request with exponential backoff. Only transport failures, 429 and 5xx
// are retried; other statuses fail immediately.
func (c *Client) DoWithRetry(req *Request, config *RetryConfig) (*Response, error) {
	if config == nil {
		config = DefaultRetryConfig()
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = config.InitialWait
	exp.MaxInterval = config.MaxWait
	exp.MaxElapsedTime = 0

	var policy backoff.BackOff = exp
	if config.MaxRetries >= 0 {
		policy = backoff.WithMaxRetries(exp, uint64(config.MaxRetries))
	}
	policy = backoff.WithContext(policy, req.ctx)

	var resp *Response
	attempt := 0
	operation := func() error {
		attempt++
		var err error
		resp, err = c.Do(req)
		if err == nil {
			return nil
		}
		if req.ctx.Err() != nil || !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.logWarn(req.ctx, "Request failed, retrying", "attempt", attempt, "error", err, "wait", wait)
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, err
	}
	return resp, nil
}

func retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	return true
}
