package sandbox

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
)

// Faults injects backend failures for tests and demos
type Faults struct {
	failConfirm atomic.Bool
	unhealthy   atomic.Int32

	mu        sync.Mutex
	transient map[string]int
}

// FailConfirmOrder makes POST /payment/confirm-order answer 500 while on
func (f *Faults) FailConfirmOrder(on bool) {
	f.failConfirm.Store(on)
}

// UnavailableHealthChecks makes the next n health probes answer 503
func (f *Faults) UnavailableHealthChecks(n int) {
	f.unhealthy.Store(int32(n))
}

// Transient503 makes the next n requests to path answer 503
func (f *Faults) Transient503(path string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transient == nil {
		f.transient = make(map[string]int)
	}
	f.transient[path] = n
}

func (f *Faults) takeTransient(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transient[path] > 0 {
		f.transient[path]--
		return true
	}
	return false
}

func (f *Faults) takeUnhealthy() bool {
	for {
		n := f.unhealthy.Load()
		if n <= 0 {
			return false
		}
		if f.unhealthy.CompareAndSwap(n, n-1) {
			return true
		}
	}
}

// Middleware answers 503 for paths with pending transient faults
func (f *Faults) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f.takeTransient(r.URL.Path) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Service temporarily unavailable"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
