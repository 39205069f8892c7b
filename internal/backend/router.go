package backend

import (
	"context"
	"errors"
	"fmt"

	"studyhelper_backend/pkg/logger"
	"studyhelper_backend/pkg/monitoring"
	"studyhelper_backend/pkg/tracing"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	PrimaryName  = "primary"
	FallbackName = "fallback"
)

var (
	ErrFallbackDisabled   = errors.New("fallback backend disabled")
	ErrPrimaryUnavailable = errors.New("primary backend unavailable")
)

// BothBackendsFailedError is the only storage failure surfaced to callers.
type BothBackendsFailedError struct {
	Op       string
	Primary  error
	Fallback error
}

func (e *BothBackendsFailedError) Error() string {
	return fmt.Sprintf("%s failed on both backends: primary: %v; fallback: %v", e.Op, e.Primary, e.Fallback)
}

func (e *BothBackendsFailedError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Primary != nil {
		errs = append(errs, e.Primary)
	}
	if e.Fallback != nil {
		errs = append(errs, e.Fallback)
	}
	return errs
}

type outcomeError struct {
	err error
}

func (e *outcomeError) Error() string { return e.err.Error() }
func (e *outcomeError) Unwrap() error { return e.err }

// Outcome marks err as a result of the operation (not found, denied,
// invalid input) rather than a backend fault. Outcomes are returned as-is
// and never trip the latch.
func Outcome(err error) error {
	if err == nil {
		return nil
	}
	return &outcomeError{err: err}
}

// IsOutcome reports whether err is an operation outcome. gorm's
// record-not-found and errors exposing Outcome() bool count as outcomes.
func IsOutcome(err error) bool {
	if err == nil {
		return false
	}
	var o *outcomeError
	if errors.As(err, &o) {
		return true
	}
	var marked interface{ Outcome() bool }
	if errors.As(err, &marked) && marked.Outcome() {
		return true
	}
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func unwrapOutcome(err error) error {
	var o *outcomeError
	if errors.As(err, &o) {
		return o.err
	}
	return err
}

// Router pairs the primary and fallback implementations of one store.
type Router[S any] struct {
	Selector *Selector
	Primary  S
	Fallback S
}

func NewRouter[S any](sel *Selector, primary, fallback S) *Router[S] {
	return &Router[S]{Selector: sel, Primary: primary, Fallback: fallback}
}

// Do runs fn against the primary while it is healthy, under the selector's
// timeout. A backend fault trips the latch and fn is re-run on the
// fallback. Cancellation by the caller is returned without failing over.
func Do[S, T any](ctx context.Context, r *Router[S], op string, fn func(ctx context.Context, store S) (T, error)) (T, error) {
	var zero T
	var primaryErr error

	if r.Selector.UsePrimary() {
		pctx, cancel := context.WithTimeout(ctx, r.Selector.Timeout())
		v, err := invoke(pctx, op, PrimaryName, r.Primary, fn)
		cancel()

		if err == nil {
			return v, nil
		}
		if IsOutcome(err) {
			return v, unwrapOutcome(err)
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		r.Selector.MarkFailed(op, err)
		primaryErr = err
	} else {
		primaryErr = fmt.Errorf("%w: %s", ErrPrimaryUnavailable, r.Selector.Reason())
	}

	if err := r.Selector.EnsureFallback(ctx); err != nil {
		return zero, bothFailed(op, primaryErr, err)
	}

	v, err := invoke(ctx, op, FallbackName, r.Fallback, fn)
	if err == nil {
		return v, nil
	}
	if IsOutcome(err) {
		return v, unwrapOutcome(err)
	}
	if ctx.Err() != nil {
		return zero, ctx.Err()
	}
	return zero, bothFailed(op, primaryErr, err)
}

// Exec is Do for operations without a result.
func Exec[S any](ctx context.Context, r *Router[S], op string, fn func(ctx context.Context, store S) error) error {
	_, err := Do(ctx, r, op, func(ctx context.Context, store S) (struct{}, error) {
		return struct{}{}, fn(ctx, store)
	})
	return err
}

func bothFailed(op string, primaryErr, fallbackErr error) error {
	err := &BothBackendsFailedError{Op: op, Primary: primaryErr, Fallback: fallbackErr}
	logger.Named("backend").Error("Persistence failed on both backends",
		zap.String("op", op),
		zap.NamedError("primary", primaryErr),
		zap.NamedError("fallback", fallbackErr))
	return err
}

func invoke[S, T any](ctx context.Context, op, backendName string, store S, fn func(ctx context.Context, store S) (T, error)) (v T, err error) {
	ctx, span := tracing.StartSpan(ctx, "backend."+op, "backend", backendName)
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in %s on %s backend: %v", op, backendName, rec)
		}

		outcome := "ok"
		switch {
		case err == nil:
		case IsOutcome(err):
			outcome = "outcome"
		default:
			outcome = "error"
		}
		monitoring.BackendOperations.WithLabelValues(op, backendName, outcome).Inc()

		if outcome == "error" {
			tracing.EndSpan(span, err)
		} else {
			tracing.EndSpan(span, nil)
		}
	}()

	return fn(ctx, store)
}
