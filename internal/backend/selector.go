// Package backend decides which store serves a persistence call and keeps
// the one-way failover latch.
package backend

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"studyhelper_backend/pkg/logger"
	"studyhelper_backend/pkg/monitoring"

	"go.uber.org/zap"
)

const (
	DefaultTimeout     = 5 * time.Second
	fallbackInitBudget = 10 * time.Second
)

// Options configures a Selector.
type Options struct {
	// Timeout bounds every call to the primary.
	Timeout time.Duration
	// InitFallback prepares the fallback schema. It must be idempotent.
	InitFallback func(ctx context.Context) error
	// FallbackEnabled is false when no fallback store is configured.
	FallbackEnabled bool
}

// Selector tracks whether the primary backend is usable. Once the primary
// has failed it stays out of service for the life of the Selector.
type Selector struct {
	available atomic.Bool
	timeout   time.Duration
	enabled   bool

	mu     sync.RWMutex
	reason string
	cause  error

	initMu   sync.Mutex
	initFn   func(ctx context.Context) error
	initDone bool

	hooksMu sync.Mutex
	hooks   []func(reason string)

	log *zap.Logger
}

func NewSelector(opts Options) *Selector {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	s := &Selector{
		timeout: timeout,
		enabled: opts.FallbackEnabled,
		initFn:  opts.InitFallback,
		log:     logger.Named("backend"),
	}
	s.available.Store(true)
	monitoring.SetPrimaryAvailable(true)
	return s
}

// Probe runs ping against the primary once, under the call timeout. A
// failure trips the latch.
func (s *Selector) Probe(ctx context.Context, ping func(ctx context.Context) error) bool {
	pctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := ping(pctx); err != nil {
		s.MarkFailed("startup_probe", err)
		return false
	}
	s.log.Info("Primary backend reachable")
	return true
}

// UsePrimary reports whether calls should still go to the primary.
func (s *Selector) UsePrimary() bool {
	return s.available.Load()
}

// MarkFailed trips the latch. Only the first call records a reason; it
// returns true for that call.
func (s *Selector) MarkFailed(op string, err error) bool {
	if !s.available.CompareAndSwap(true, false) {
		return false
	}

	reason := op
	if err != nil {
		reason = op + ": " + err.Error()
	}
	s.mu.Lock()
	s.reason = reason
	s.cause = err
	s.mu.Unlock()

	monitoring.SetPrimaryAvailable(false)
	monitoring.Failovers.Inc()
	s.log.Warn("Primary backend marked unavailable, switching to fallback",
		zap.String("op", op), zap.Error(err))

	if s.enabled {
		ctx, cancel := context.WithTimeout(context.Background(), fallbackInitBudget)
		defer cancel()
		if ierr := s.EnsureFallback(ctx); ierr != nil {
			s.log.Error("Fallback initialization failed", zap.Error(ierr))
		}
	}

	s.hooksMu.Lock()
	hooks := append([]func(string){}, s.hooks...)
	s.hooksMu.Unlock()
	for _, h := range hooks {
		h(reason)
	}
	return true
}

// Reason is the diagnostic recorded when the latch tripped, or "".
func (s *Selector) Reason() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reason
}

// Cause is the error that tripped the latch, or nil.
func (s *Selector) Cause() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cause
}

// FallbackEnabled reports whether a fallback store exists.
func (s *Selector) FallbackEnabled() bool {
	return s.enabled
}

// EnsureFallback initializes the fallback schema once. A failed attempt is
// retried on the next call.
func (s *Selector) EnsureFallback(ctx context.Context) error {
	if !s.enabled {
		return ErrFallbackDisabled
	}
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if s.initDone {
		return nil
	}
	if s.initFn != nil {
		if err := s.initFn(ctx); err != nil {
			return err
		}
	}
	s.initDone = true
	return nil
}

// FallbackReady reports whether the fallback schema has been initialized.
func (s *Selector) FallbackReady() bool {
	s.initMu.Lock()
	defer s.initMu.Unlock()
	return s.initDone
}

// OnFailover registers a callback run once, synchronously, when the latch
// trips.
func (s *Selector) OnFailover(fn func(reason string)) {
	s.hooksMu.Lock()
	s.hooks = append(s.hooks, fn)
	s.hooksMu.Unlock()
}

func (s *Selector) Timeout() time.Duration {
	return s.timeout
}

// Status is a point-in-time view for health reporting.
type Status struct {
	Primary       string `json:"primary"`
	Reason        string `json:"reason,omitempty"`
	Fallback      bool   `json:"fallback_enabled"`
	FallbackReady bool   `json:"fallback_ready"`
}

func (s *Selector) Status() Status {
	st := Status{
		Primary:       "up",
		Reason:        s.Reason(),
		Fallback:      s.enabled,
		FallbackReady: s.FallbackReady(),
	}
	if !s.UsePrimary() {
		st.Primary = "down"
	}
	return st
}
