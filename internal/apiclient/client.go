// Package apiclient is the single shared HTTP client every storefront service
// talks to the backend through.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SigNoz/storefront-go-client/internal/metrics"
	"github.com/cenkalti/backoff/v5"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	healthPath      = "/health"
	requestIDHeader = "X-Request-ID"
	defaultTimeout  = 30 * time.Second
)

// TokenSource issues the bearer credential for the signed-in user
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenSource
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticToken always returns the same credential
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) {
	return string(s), nil
}

// Options configures a Client
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	Tokens     TokenSource
	Logger     *zap.Logger
	LogTraffic bool // request/response logging, non-production builds only
	Metrics    *metrics.AppMetrics
	HTTPClient *http.Client

	// HealthGate holds every request until GET /health succeeds once
	HealthGate     bool
	HealthInterval time.Duration
}

// Client issues authenticated requests to the backend
type Client struct {
	http       *resty.Client
	tokens     TokenSource
	logger     *zap.Logger
	logTraffic bool
	metrics    *metrics.AppMetrics

	mu          sync.Mutex
	refs        int
	interceptor atomic.Pointer[credentialInterceptor]

	gate           *healthGate
	healthInterval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

type credentialInterceptor struct {
	tokens TokenSource
}

type healthGate struct {
	once  sync.Once
	ready chan struct{}
}

// New creates the shared client. Only one request hook is ever registered on the
// underlying transport; it dispatches to whichever credential interceptor is active.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoop()
	}
	if opts.HealthInterval <= 0 {
		opts.HealthInterval = 500 * time.Millisecond
	}

	var rc *resty.Client
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		http:           rc,
		tokens:         opts.Tokens,
		logger:         opts.Logger,
		logTraffic:     opts.LogTraffic,
		metrics:        opts.Metrics,
		healthInterval: opts.HealthInterval,
		ctx:            ctx,
		cancel:         cancel,
	}
	if opts.HealthGate {
		c.gate = &healthGate{ready: make(chan struct{})}
	}

	rc.OnBeforeRequest(c.beforeRequest)
	rc.OnAfterResponse(c.afterResponse)
	rc.OnError(c.onError)
	return c
}

// Close stops the health probe and rejects further requests
func (c *Client) Close() {
	c.cancel()
}

// Lease keeps the credential interceptor active while held
type Lease struct {
	c    *Client
	once sync.Once
}

// Acquire registers a consumer of the client. The first lease activates the
// credential interceptor; later leases share it.
func (c *Client) Acquire() *Lease {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.refs++
	if c.refs == 1 {
		c.interceptor.Store(&credentialInterceptor{tokens: c.tokens})
		c.logger.Debug("credential interceptor attached")
	}
	return &Lease{c: c}
}

// Release drops the lease. Releasing the last lease detaches the interceptor.
// Calling Release more than once is a no-op.
func (l *Lease) Release() {
	l.once.Do(func() {
		l.c.mu.Lock()
		defer l.c.mu.Unlock()

		l.c.refs--
		if l.c.refs == 0 {
			l.c.interceptor.Store(nil)
			l.c.logger.Debug("credential interceptor detached")
		}
	})
}

// Client returns the client the lease was taken from
func (l *Lease) Client() *Client {
	return l.c
}

// ActiveInterceptors reports how many credential interceptors are attached (0 or 1)
func (c *Client) ActiveInterceptors() int {
	if c.interceptor.Load() != nil {
		return 1
	}
	return 0
}

// Leases reports the number of outstanding leases
func (c *Client) Leases() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refs
}

func (c *Client) beforeRequest(_ *resty.Client, req *resty.Request) error {
	if req.Header.Get(requestIDHeader) == "" {
		req.SetHeader(requestIDHeader, uuid.NewString())
	}

	ic := c.interceptor.Load()
	if ic == nil || ic.tokens == nil {
		return nil
	}

	// a failed credential fetch lets the request go out unauthenticated; the server answers 401
	token, err := ic.tokens.Token(req.Context())
	if err != nil {
		c.logger.Debug("credential unavailable, sending request without it", zap.Error(err))
		return nil
	}
	if token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return nil
}

func (c *Client) afterResponse(_ *resty.Client, resp *resty.Response) error {
	if !c.logTraffic {
		return nil
	}
	c.logger.Debug("api response",
		zap.String("method", resp.Request.Method),
		zap.String("url", resp.Request.URL),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("duration", resp.Time()),
		zap.String("request_id", resp.Request.Header.Get(requestIDHeader)),
	)
	return nil
}

func (c *Client) onError(req *resty.Request, err error) {
	if !c.logTraffic {
		return
	}
	c.logger.Debug("api request failed",
		zap.String("method", req.Method),
		zap.String("url", req.URL),
		zap.String("request_id", req.Header.Get(requestIDHeader)),
		zap.Error(err),
	)
}

// RequestOption customizes a single request
type RequestOption func(*resty.Request)

// WithQuery adds a query parameter
func WithQuery(key, value string) RequestOption {
	return func(r *resty.Request) { r.SetQueryParam(key, value) }
}

// WithHeader adds a request header
func WithHeader(key, value string) RequestOption {
	return func(r *resty.Request) { r.SetHeader(key, value) }
}

// WithIdempotencyKey tags a mutation so the backend can deduplicate it
func WithIdempotencyKey(key string) RequestOption {
	return WithHeader("Idempotency-Key", key)
}

// Get issues GET path and decodes the response into out
func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodGet, path, nil, out, opts)
}

// Post issues POST path with a JSON body
func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodPost, path, body, out, opts)
}

// Put issues PUT path with a JSON body
func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodPut, path, body, out, opts)
}

// Delete issues DELETE path
func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodDelete, path, nil, out, opts)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, opts []RequestOption) error {
	if c.ctx.Err() != nil {
		return &APIError{Method: method, Path: path, Err: ErrClosed}
	}
	if path != healthPath {
		if err := c.WaitHealthy(ctx); err != nil {
			return &APIError{Method: method, Path: path, Err: err}
		}
	}

	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	for _, opt := range opts {
		opt(req)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	status := 0
	if resp != nil {
		status = resp.StatusCode()
	}
	c.metrics.RecordAPIRequest(ctx, method, routeLabel(path), status, start)

	if err != nil {
		return &APIError{Method: method, Path: path, Err: err}
	}
	if resp.IsError() {
		return newStatusError(method, path, status, resp.Body())
	}
	if out != nil && len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
		}
	}
	return nil
}

// WaitHealthy blocks until the backend has answered GET /health once. Without a
// health gate it returns immediately.
func (c *Client) WaitHealthy(ctx context.Context) error {
	if c.gate == nil {
		return nil
	}
	c.gate.once.Do(func() { go c.probeHealth() })

	select {
	case <-c.gate.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.ctx.Done():
		return ErrClosed
	}
}

// Health issues a single GET /health
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, healthPath, nil, nil, nil)
}

func (c *Client) probeHealth() {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.healthInterval
	b.MaxInterval = 10 * c.healthInterval

	for {
		if err := c.Health(c.ctx); err == nil {
			close(c.gate.ready)
			c.logger.Info("backend is healthy")
			return
		} else {
			c.logger.Debug("backend not ready", zap.Error(err))
		}

		timer := time.NewTimer(b.NextBackOff())
		select {
		case <-timer.C:
		case <-c.ctx.Done():
			timer.Stop()
			return
		}
	}
}

// routeLabel keeps metric cardinality bounded by collapsing id segments
func routeLabel(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	segments := strings.Split(path, "/")
	for i, s := range segments {
		if s == "" {
			continue
		}
		if strings.IndexFunc(s, func(r rune) bool { return !(r >= 'a' && r <= 'z' || r == '-') }) >= 0 {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}
