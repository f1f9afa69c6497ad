package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoAuthServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
			return
		}
		_, _ = w.Write([]byte(`{"message":"` + r.Header.Get("Authorization") + `"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

type messageBody struct {
	Message string `json:"message"`
}

func TestAcquireRelease_SingleInterceptor(t *testing.T) {
	c := New(Options{BaseURL: "http://localhost", Tokens: StaticToken("t")})
	defer c.Close()

	const consumers = 64
	leases := make([]*Lease, consumers)
	var wg sync.WaitGroup
	for i := 0; i < consumers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			leases[i] = c.Acquire()
			assert.Equal(t, 1, c.ActiveInterceptors())
		}(i)
	}
	wg.Wait()

	assert.Equal(t, consumers, c.Leases())
	assert.Equal(t, 1, c.ActiveInterceptors())

	for i := 0; i < consumers; i++ {
		wg.Add(1)
		go func(l *Lease) {
			defer wg.Done()
			l.Release()
			l.Release()
		}(leases[i])
	}
	wg.Wait()

	assert.Equal(t, 0, c.Leases())
	assert.Equal(t, 0, c.ActiveInterceptors())
}

func TestAcquireRelease_ChurnKeepsAtMostOne(t *testing.T) {
	c := New(Options{BaseURL: "http://localhost", Tokens: StaticToken("t")})
	defer c.Close()

	keep := c.Acquire()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				l := c.Acquire()
				assert.LessOrEqual(t, c.ActiveInterceptors(), 1)
				l.Release()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, c.ActiveInterceptors())
	keep.Release()
	assert.Equal(t, 0, c.ActiveInterceptors())
}

func TestCredentialAttachedOnlyWhileLeased(t *testing.T) {
	srv := echoAuthServer(t)
	c := New(Options{BaseURL: srv.URL, Tokens: StaticToken("secret")})
	defer c.Close()
	ctx := context.Background()

	err := c.Get(ctx, "/me", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))

	lease := c.Acquire()
	var body messageBody
	require.NoError(t, c.Get(ctx, "/me", &body))
	assert.Equal(t, "Bearer secret", body.Message)

	lease.Release()
	err = c.Get(ctx, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))
}

func TestTokenFetchedPerRequest(t *testing.T) {
	srv := echoAuthServer(t)
	var calls atomic.Int32
	c := New(Options{BaseURL: srv.URL, Tokens: TokenFunc(func(context.Context) (string, error) {
		n := calls.Add(1)
		if n == 2 {
			return "", errors.New("identity provider unavailable")
		}
		return "tok", nil
	})})
	defer c.Close()
	lease := c.Acquire()
	defer lease.Release()
	ctx := context.Background()

	require.NoError(t, c.Get(ctx, "/me", nil))

	// the token failure does not block the request, the backend rejects it instead
	err := c.Get(ctx, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))
	assert.Equal(t, "Unauthorized", UserMessage(err, "fallback"))

	require.NoError(t, c.Get(ctx, "/me", nil))
	assert.Equal(t, int32(3), calls.Load())
}

func TestRequestIDHeader(t *testing.T) {
	ids := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids <- r.Header.Get(requestIDHeader)
	}))
	defer srv.Close()
	c := New(Options{BaseURL: srv.URL})
	defer c.Close()

	require.NoError(t, c.Get(context.Background(), "/products", nil))
	require.NoError(t, c.Get(context.Background(), "/products", nil))
	first, second := <-ids, <-ids
	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

func TestRequestOptions(t *testing.T) {
	seen := make(chan *http.Request, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r
	}))
	defer srv.Close()
	c := New(Options{BaseURL: srv.URL})
	defer c.Close()

	err := c.Post(context.Background(), "/wallet/redeem", map[string]string{"type": "gold"}, nil,
		WithQuery("dryRun", "true"),
		WithHeader("X-Client", "terminal"),
		WithIdempotencyKey("redeem-1"),
	)
	require.NoError(t, err)

	r := <-seen
	assert.Equal(t, "true", r.URL.Query().Get("dryRun"))
	assert.Equal(t, "terminal", r.Header.Get("X-Client"))
	assert.Equal(t, "redeem-1", r.Header.Get("Idempotency-Key"))
}

func TestErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/busy":
			w.WriteHeader(http.StatusServiceUnavailable)
		case "/bad":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"Insufficient coins"}`))
		case "/raw":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`<html>stack trace</html>`))
		case "/slow":
			time.Sleep(200 * time.Millisecond)
		}
	}))
	defer srv.Close()
	c := New(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	defer c.Close()
	ctx := context.Background()

	err := c.Get(ctx, "/busy", nil)
	assert.Equal(t, http.StatusServiceUnavailable, StatusOf(err))
	assert.True(t, IsTransient(err))

	err = c.Post(ctx, "/bad", map[string]string{"type": "gold"}, nil)
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
	assert.False(t, IsTransient(err))
	assert.Equal(t, "Insufficient coins", UserMessage(err, "Failed to redeem"))

	err = c.Get(ctx, "/raw", nil)
	assert.False(t, IsTransient(err))
	assert.Equal(t, "Something went wrong", UserMessage(err, "Something went wrong"))

	err = c.Get(ctx, "/slow", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 0, apiErr.Status)
	assert.True(t, IsTransient(err))
}

func TestCancelledRequestIsNotTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()
	c := New(Options{BaseURL: srv.URL})
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Get(ctx, "/orders", nil)
	require.Error(t, err)
	assert.False(t, IsTransient(err))
}

func TestHealthGate_HoldsRequestsUntilHealthy(t *testing.T) {
	var healthChecks atomic.Int32
	var ordersServed atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			if healthChecks.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			assert.GreaterOrEqual(t, healthChecks.Load(), int32(3), "request sent before backend was healthy")
			ordersServed.Add(1)
			_, _ = w.Write([]byte(`{"orders":[]}`))
		}
	}))
	defer srv.Close()
	c := New(Options{BaseURL: srv.URL, HealthGate: true, HealthInterval: 5 * time.Millisecond})
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Get(ctx, "/orders", nil))
	assert.Equal(t, int32(1), ordersServed.Load())
}

func TestHealthGate_ClosedClientRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	c := New(Options{BaseURL: srv.URL, HealthGate: true, HealthInterval: 5 * time.Millisecond})

	done := make(chan error, 1)
	go func() { done <- c.Get(context.Background(), "/orders", nil) }()
	time.Sleep(20 * time.Millisecond)
	c.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("request still blocked after Close")
	}
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "/orders/reorder/{id}", routeLabel("/orders/reorder/665f1c2ab9"))
	assert.Equal(t, "/cart/{id}", routeLabel("/cart/p1"))
	assert.Equal(t, "/products/recommendations/personalized", routeLabel("/products/recommendations/personalized"))
	assert.Equal(t, "/wallet/validate-coupon", routeLabel("/wallet/validate-coupon?x=1"))
}
