// Package health provides Kubernetes-style liveness and readiness probes.
// Registered checks run periodically in the background; the HTTP endpoints
// only read the most recent results.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
)

// CheckFunc is a health check. It returns nil when the checked component is
// healthy.
type CheckFunc func(ctx context.Context) error

// check holds one registered check and its latest result.
type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc

	// lastErr is written by the runner goroutine and read by HTTP handlers.
	lastErr atomic.Pointer[error]
}

func (c *check) run(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.fn(checkCtx)
	c.lastErr.Store(&err)
}

func (c *check) err() error {
	if p := c.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

// Service runs liveness and readiness checks and serves their results.
// Readiness additionally gates on SetReady, so the application can drain
// before shutdown.
type Service struct {
	mu        sync.Mutex
	liveness  []*check
	readiness []*check

	ready  atomic.Bool
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an empty health Service. Register checks before Start.
func New() *Service {
	return &Service{}
}

// AddLivenessCheck registers a liveness check with a per-run timeout.
func (s *Service) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.liveness = append(s.liveness, &check{name: name, timeout: timeout, fn: fn})
}

// AddReadinessCheck registers a readiness check with a per-run timeout.
func (s *Service) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readiness = append(s.readiness, &check{name: name, timeout: timeout, fn: fn})
}

// SetReady flips the readiness gate. A not-ready service fails /readyz even
// when every check passes.
func (s *Service) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Start launches the background runner executing all checks every interval.
// Each check also runs once immediately.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		s.runAll(runCtx)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				s.runAll(runCtx)
			}
		}
	}()
}

// Stop terminates the background runner and waits for it to exit.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *Service) runAll(ctx context.Context) {
	s.mu.Lock()
	checks := make([]*check, 0, len(s.liveness)+len(s.readiness))
	checks = append(checks, s.liveness...)
	checks = append(checks, s.readiness...)
	s.mu.Unlock()

	for _, c := range checks {
		c.run(ctx)
	}
}

// LiveEndpoint serves the liveness probe.
func (s *Service) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	checks := append([]*check(nil), s.liveness...)
	s.mu.Unlock()

	writeProbe(w, checks, true)
}

// ReadyEndpoint serves the readiness probe. It fails while the ready gate is
// down or any readiness check errors.
func (s *Service) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	checks := append([]*check(nil), s.readiness...)
	s.mu.Unlock()

	writeProbe(w, checks, s.ready.Load())
}

func writeProbe(w http.ResponseWriter, checks []*check, gate bool) {
	healthy := gate
	results := make(map[string]string, len(checks))
	for _, c := range checks {
		if err := c.err(); err != nil {
			healthy = false
			results[c.name] = err.Error()
		} else {
			results[c.name] = "ok"
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"healthy": healthy,
		"checks":  results,
	})
}

// GoroutineCountCheck returns a liveness check that fails when the process
// exceeds maxGoroutines, a cheap proxy for goroutine leaks.
func GoroutineCountCheck(maxGoroutines int) CheckFunc {
	return func(_ context.Context) error {
		if n := runtime.NumGoroutine(); n > maxGoroutines {
			return errors.Errorf("too many goroutines: %d > %d", n, maxGoroutines)
		}
		return nil
	}
}
