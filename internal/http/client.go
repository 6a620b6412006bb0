// Package http is the transport used by the resource clients. It resolves the
// {tenant} placeholder, authenticates requests and reports connection
// failures as arium.ConnectionError. It never interprets status codes: every
// response is handed back so the content decoder can decide.
package http

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/arium-client/internal/constants"
	"github.com/fivetwenty-io/arium-client/pkg/arium"
)

// TokenManager supplies bearer tokens.
type TokenManager interface {
	GetToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) error
}

// Logger is the logging interface used by the transport.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Request is one platform call.
type Request struct {
	Method string
	// Path is relative to the base URL and may contain {tenant}. An absolute
	// URL is sent as is, still with platform credentials.
	Path  string
	Query url.Values
	// Body is encoded as JSON when set.
	Body interface{}
	// RawBody is sent as is, with ContentType, when Body is nil.
	RawBody     []byte
	ContentType string
	Headers     map[string]string
}

// Response is the result of one HTTP exchange.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// URL is the resolved request URL, used for error context.
	URL string
}

// Client performs platform requests.
type Client struct {
	baseURL      string
	tokenManager TokenManager
	httpClient   *retryablehttp.Client
	interceptors *arium.InterceptorChain
	logger       Logger
	debug        bool
	userAgent    string
	tenant       string
	verify       bool
	timeout      time.Duration
	baseHTTP     *http.Client
	headers      map[string]string
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request and response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithTenant sets the value of the {tenant} placeholder.
func WithTenant(tenant string) Option {
	return func(c *Client) {
		c.tenant = tenant
	}
}

// WithRetryConfig enables transport retries of 429 and 5xx responses.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.retryMax = retryMax
		c.retryWaitMin = waitMin
		c.retryWaitMax = waitMax
	}
}

// WithVerify controls TLS certificate verification.
func WithVerify(verify bool) Option {
	return func(c *Client) {
		c.verify = verify
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithHTTPClient replaces the underlying client. Its transport is used as
// is, so WithVerify has no effect.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.baseHTTP = httpClient
	}
}

// WithHeaders adds headers to every platform request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		c.headers = headers
	}
}

// NewClient creates a transport for baseURL. tokenManager may be nil for
// unauthenticated use.
func NewClient(baseURL string, tokenManager TokenManager, opts ...Option) *Client {
	client := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		tokenManager: tokenManager,
		userAgent:    constants.DefaultUserAgent,
		verify:       true,
		timeout:      constants.DefaultHTTPTimeout,
		retryWaitMin: constants.DefaultRetryWaitMin,
		retryWaitMax: constants.DefaultRetryWaitMax,
	}

	for _, opt := range opts {
		opt(client)
	}

	client.httpClient = client.newRetryableClient()
	client.interceptors = client.newInterceptorChain()

	return client
}

func (c *Client) newRetryableClient() *retryablehttp.Client {
	httpClient := c.baseHTTP
	if httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if !c.verify {
			//nolint:gosec // opt-in via SkipTLSVerify
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		}

		httpClient = &http.Client{Transport: transport, Timeout: c.timeout}
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = httpClient
	retryClient.RetryMax = c.retryMax
	retryClient.RetryWaitMin = c.retryWaitMin
	retryClient.RetryWaitMax = c.retryWaitMax
	retryClient.CheckRetry = checkRetry
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil

	if c.debug && c.logger != nil {
		retryClient.Logger = &leveledLogger{logger: c.logger}
	}

	return retryClient
}

func (c *Client) newInterceptorChain() *arium.InterceptorChain {
	chain := arium.NewInterceptorChain()
	chain.AddRequestInterceptor(arium.TenantInterceptor(c.tenant))
	chain.AddRequestInterceptor(arium.RequestIDInterceptor())

	if len(c.headers) > 0 {
		chain.AddRequestInterceptor(arium.HeaderInterceptor(c.headers))
	}

	if c.debug && c.logger != nil {
		chain.AddRequestInterceptor(arium.LoggingInterceptor(c.logger))
		chain.AddResponseInterceptor(arium.LoggingResponseInterceptor(c.logger))
	}

	return chain
}

// checkRetry retries 429 and 5xx responses. Connection failures are left to
// the caller's retry wrapper so they are not retried twice.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err != nil {
		return false, nil
	}

	return retryablehttp.DefaultRetryPolicy(ctx, resp, nil)
}

// Verify reports whether TLS certificates are verified.
func (c *Client) Verify() bool {
	return c.verify
}

// Tenant returns the tenant the {tenant} placeholder resolves to.
func (c *Client) Tenant() string {
	return c.tenant
}

// Do performs a platform request. Non-2xx responses are returned without an
// error.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, err
	}

	ireq := &arium.Request{
		Method:  req.Method,
		Path:    req.Path,
		Headers: make(http.Header),
		Body:    body,
	}

	for key, value := range req.Headers {
		ireq.Headers.Set(key, value)
	}

	err = c.interceptors.ExecuteRequestInterceptors(ctx, ireq)
	if err != nil {
		return nil, err
	}

	fullURL := ireq.Path
	if !isAbsolute(fullURL) {
		fullURL = c.baseURL + fullURL
	}
	if len(req.Query) > 0 {
		separator := "?"
		if strings.Contains(fullURL, "?") {
			separator = "&"
		}

		fullURL += separator + req.Query.Encode()
	}

	resp, err := c.send(ctx, ireq, fullURL, contentType, true)
	if err == nil && resp.StatusCode == http.StatusUnauthorized && c.tokenManager != nil {
		refreshErr := c.tokenManager.RefreshToken(ctx)
		if refreshErr == nil {
			resp, err = c.send(ctx, ireq, fullURL, contentType, true)
		}
	}

	iresp := &arium.Response{Error: err}
	if resp != nil {
		iresp.StatusCode = resp.StatusCode
		iresp.Headers = resp.Header
		iresp.Body = resp.Body
	}

	interceptErr := c.interceptors.ExecuteResponseInterceptors(ctx, ireq, iresp)
	if err != nil {
		return nil, err
	}

	if interceptErr != nil {
		return nil, interceptErr
	}

	return resp, nil
}

func (c *Client) send(ctx context.Context, ireq *arium.Request, fullURL, contentType string, authenticate bool) (*Response, error) {
	var body interface{}
	if ireq.Body != nil {
		body = ireq.Body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, ireq.Method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for key, values := range ireq.Headers {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	if contentType != "" {
		httpReq.Header.Set(constants.HeaderContentType, contentType)
	}

	if authenticate {
		httpReq.Header.Set("User-Agent", c.userAgent)

		if c.tokenManager != nil {
			token, tokenErr := c.tokenManager.GetToken(ctx)
			if tokenErr != nil {
				return nil, fmt.Errorf("getting token: %w", tokenErr)
			}

			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if httpResp != nil {
			_ = httpResp.Body.Close()
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s %s: %w", ireq.Method, redact(fullURL), ctxErr)
		}

		return nil, &arium.ConnectionError{Method: ireq.Method, URL: redact(fullURL), Err: err}
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &arium.ConnectionError{Method: ireq.Method, URL: redact(fullURL), Err: err}
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
		URL:        redact(fullURL),
	}, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// PutRaw performs a PUT request with a raw body.
func (c *Client) PutRaw(ctx context.Context, path string, data []byte, contentType string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, RawBody: data, ContentType: contentType})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

// GetURL fetches a Location reference. Absolute references are presigned
// and fetched without platform credentials; relative ones are platform paths.
func (c *Client) GetURL(ctx context.Context, ref string) (*Response, error) {
	if !isAbsolute(ref) {
		return c.Get(ctx, ref, nil)
	}

	return c.send(ctx, &arium.Request{Method: http.MethodGet, Path: ref, Headers: make(http.Header)}, ref, "", false)
}

// PutURL uploads data to a Location reference.
func (c *Client) PutURL(ctx context.Context, ref string, data []byte) (*Response, error) {
	if !isAbsolute(ref) {
		return c.PutRaw(ctx, ref, data, "")
	}

	return c.send(ctx, &arium.Request{Method: http.MethodPut, Path: ref, Headers: make(http.Header), Body: data}, ref, "", false)
}

func encodeBody(req *Request) ([]byte, string, error) {
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, "", fmt.Errorf("encoding request body: %w", err)
		}

		return data, constants.ContentTypeJSON, nil
	}

	if req.RawBody != nil {
		return req.RawBody, req.ContentType, nil
	}

	return nil, "", nil
}

func isAbsolute(ref string) bool {
	parsed, err := url.Parse(ref)

	return err == nil && parsed.IsAbs()
}

// redact drops the query string, which carries signatures on presigned
// references.
func redact(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}

	return rawURL
}

// leveledLogger adapts Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, toFields(keysAndValues))
}

func toFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		if key == "url" {
			fields[key] = redact(fmt.Sprint(keysAndValues[i+1]))

			continue
		}

		fields[key] = keysAndValues[i+1]
	}

	return fields
}

var _ retryablehttp.LeveledLogger = (*leveledLogger)(nil)
