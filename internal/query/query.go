package query

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/SigNoz/storefront-go-client/internal/apiclient"
	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// Fetcher loads the current value of an entity from the backend
type Fetcher[T any] func(ctx context.Context) (T, error)

// State is a point-in-time view of a query
type State[T any] struct {
	Data      T
	HasData   bool
	IsLoading bool
	IsError   bool
	Err       error
	IsStale   bool
	UpdatedAt time.Time
}

// Query caches one entity
type Query[T any] struct {
	c     *Client
	key   Key
	fetch Fetcher[T]

	mu         sync.Mutex
	generation uint64
	data       T
	hasData    bool
	updatedAt  time.Time
	stale      bool
	err        error
	inflight   int
	read       bool
}

var errSuperseded = errors.New("fetch superseded by invalidation")

// maxSupersededAttempts bounds how often Get restarts a fetch that an
// invalidation overtook
const maxSupersededAttempts = 3

// Register adds a query for key. Registering the same key twice panics.
func Register[T any](c *Client, key Key, fetch Fetcher[T]) *Query[T] {
	q := &Query[T]{c: c, key: key, fetch: fetch}
	c.register(key, q)
	return q
}

// Key returns the cache key of the query
func (q *Query[T]) Key() Key {
	return q.key
}

// Get returns the cached value while it is fresh, otherwise fetches it.
// Concurrent callers share a single fetch.
func (q *Query[T]) Get(ctx context.Context) (T, error) {
	q.mu.Lock()
	q.read = true
	if q.freshLocked() {
		data := q.data
		q.mu.Unlock()
		q.c.metrics.RecordCacheLookup(ctx, string(q.key), true)
		return data, nil
	}
	q.mu.Unlock()

	q.c.metrics.RecordCacheLookup(ctx, string(q.key), false)
	return q.load(ctx, false)
}

// Refetch fetches the value regardless of freshness
func (q *Query[T]) Refetch(ctx context.Context) (T, error) {
	q.mu.Lock()
	q.read = true
	q.mu.Unlock()
	return q.load(ctx, true)
}

// Set stores a value returned by a mutation. In-flight fetches are discarded.
func (q *Query[T]) Set(data T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.generation++
	q.data = data
	q.hasData = true
	q.updatedAt = time.Now()
	q.stale = false
	q.err = nil
}

// State returns a snapshot
func (q *Query[T]) State() State[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return State[T]{
		Data:      q.data,
		HasData:   q.hasData,
		IsLoading: q.inflight > 0,
		IsError:   q.err != nil,
		Err:       q.err,
		IsStale:   q.hasData && !q.freshLocked(),
		UpdatedAt: q.updatedAt,
	}
}

func (q *Query[T]) freshLocked() bool {
	if !q.hasData || q.stale {
		return false
	}
	return q.c.staleTime <= 0 || time.Since(q.updatedAt) < q.c.staleTime
}

func (q *Query[T]) invalidate() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.generation++
	q.stale = true
	return q.read
}

func (q *Query[T]) refresh(ctx context.Context) error {
	_, err := q.load(ctx, false)
	return err
}

// load fetches through the shared flight for the current generation. Unless
// forced, a flight that finds the generation already fresh returns the cache.
func (q *Query[T]) load(ctx context.Context, force bool) (T, error) {
	var last fetchResult[T]
	for attempt := 0; attempt < maxSupersededAttempts; attempt++ {
		q.mu.Lock()
		gen := q.generation
		q.mu.Unlock()

		fr, err := q.shared(ctx, gen, force)
		if !errors.Is(err, errSuperseded) {
			return fr.v, err
		}
		last = fr
	}
	// invalidations kept overtaking the fetch; hand back the last outcome uncached
	return last.v, last.err
}

// fetchResult carries a fetch outcome through the shared flight, including
// the fetch error of a superseded flight
type fetchResult[T any] struct {
	v   T
	err error
}

func (q *Query[T]) shared(ctx context.Context, gen uint64, force bool) (fetchResult[T], error) {
	flightKey := string(q.key) + "#" + strconv.FormatUint(gen, 10)
	if force {
		flightKey += "!"
	}

	ch := q.c.group.DoChan(flightKey, func() (any, error) {
		if !force {
			if v, ok := q.cachedAt(gen); ok {
				return fetchResult[T]{v: v}, nil
			}
		}

		// the shared fetch outlives any single caller but not the query client
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		stop := context.AfterFunc(q.c.ctx, cancel)
		defer stop()
		defer cancel()

		v, err := q.fetchWithRetry(fctx)
		if !q.commit(gen, v, err) {
			return fetchResult[T]{v: v, err: err}, errSuperseded
		}
		return fetchResult[T]{v: v}, err
	})

	select {
	case res := <-ch:
		fr, _ := res.Val.(fetchResult[T])
		return fr, res.Err
	case <-ctx.Done():
		return fetchResult[T]{}, ctx.Err()
	}
}

func (q *Query[T]) cachedAt(gen uint64) (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if gen == q.generation && q.freshLocked() {
		return q.data, true
	}
	var zero T
	return zero, false
}

// commit stores the result unless the generation moved on while fetching
func (q *Query[T]) commit(gen uint64, v T, err error) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if gen != q.generation {
		q.c.logger.Debug("discarding superseded fetch", zap.String("key", string(q.key)))
		return false
	}
	if err != nil {
		q.err = err
		return true
	}
	q.data = v
	q.hasData = true
	q.updatedAt = time.Now()
	q.stale = false
	q.err = nil
	return true
}

func (q *Query[T]) fetchWithRetry(ctx context.Context) (T, error) {
	q.mu.Lock()
	q.inflight++
	q.mu.Unlock()
	defer func() {
		q.mu.Lock()
		q.inflight--
		q.mu.Unlock()
	}()

	delays := q.c.retry.Delays
	op := func() (T, error) {
		v, err := q.fetch(ctx)
		if err != nil && !apiclient.IsTransient(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}
	notify := func(err error, next time.Duration) {
		q.c.logger.Debug("retrying fetch",
			zap.String("key", string(q.key)),
			zap.Duration("after", next),
			zap.Error(err),
		)
	}

	v, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(&schedule{delays: delays}),
		backoff.WithMaxTries(uint(len(delays)+1)),
		backoff.WithNotify(notify),
	)
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Err
	}
	return v, err
}

// schedule yields a fixed sequence of delays, then stops
type schedule struct {
	delays []time.Duration
	next   int
}

func (s *schedule) NextBackOff() time.Duration {
	if s.next >= len(s.delays) {
		return backoff.Stop
	}
	d := s.delays[s.next]
	s.next++
	return d
}

func (s *schedule) Reset() {
	s.next = 0
}
