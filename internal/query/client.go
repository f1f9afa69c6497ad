// Package query caches backend entities per key and refreshes them when a
// mutation invalidates them.
package query

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SigNoz/storefront-go-client/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// RetryPolicy is the delay before each retry of a transient fetch failure
type RetryPolicy struct {
	Delays []time.Duration
}

// DefaultRetryPolicy retries three times, after 2s, 5s and 10s
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Delays: []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second}}
}

// Options configures a Client
type Options struct {
	Logger  *zap.Logger
	Metrics *metrics.AppMetrics
	Retry   *RetryPolicy

	// StaleTime bounds how long a value is served without refetching. Zero keeps
	// values until they are invalidated.
	StaleTime time.Duration
}

type entry interface {
	// invalidate marks the cached value stale and reports whether it was ever read
	invalidate() bool
	refresh(ctx context.Context) error
}

// Client owns every registered query and the background refetches
type Client struct {
	logger    *zap.Logger
	metrics   *metrics.AppMetrics
	retry     RetryPolicy
	staleTime time.Duration
	group     singleflight.Group

	mu      sync.Mutex
	entries map[Key]entry
	closed  bool

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewClient creates an empty query client
func NewClient(opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoop()
	}
	retry := DefaultRetryPolicy()
	if opts.Retry != nil {
		retry = *opts.Retry
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		retry:     retry,
		staleTime: opts.StaleTime,
		entries:   make(map[Key]entry),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (c *Client) register(key Key, e entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; exists {
		panic(fmt.Sprintf("query: key %q registered twice", key))
	}
	c.entries[key] = e
}

// Registered reports whether a query exists for key
func (c *Client) Registered(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// Invalidate marks each key stale and schedules a background refetch for keys
// that have been read. Fetches already in flight for those keys are discarded.
func (c *Client) Invalidate(keys ...Key) {
	for _, key := range keys {
		c.metrics.RecordInvalidation(c.ctx, string(key))

		c.mu.Lock()
		e, ok := c.entries[key]
		if !ok || !e.invalidate() || c.closed {
			c.mu.Unlock()
			continue
		}
		c.wg.Add(1)
		c.mu.Unlock()

		go func(key Key, e entry) {
			defer c.wg.Done()
			if err := e.refresh(c.ctx); err != nil {
				c.logger.Debug("background refetch failed", zap.String("key", string(key)), zap.Error(err))
			}
		}(key, e)
	}
}

// MutationSucceeded invalidates everything the mutation is declared to change
func (c *Client) MutationSucceeded(m Mutation) {
	keys, ok := Invalidations[m]
	if !ok {
		c.logger.Warn("mutation has no invalidation entry", zap.String("mutation", string(m)))
		return
	}
	c.logger.Debug("mutation succeeded", zap.String("mutation", string(m)), zap.Int("keys", len(keys)))
	c.Invalidate(keys...)
}

// Wait blocks until every scheduled refetch has finished
func (c *Client) Wait() {
	c.wg.Wait()
}

// Close cancels background refetches and waits for them to exit
func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
	c.wg.Wait()
}
