// Package saga records undo steps for a sequence of writes that cannot run in
// one transaction.
package saga

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// UndoFunc reverses one completed step.
type UndoFunc func(ctx context.Context) error

type step struct {
	name string
	undo UndoFunc
}

// Saga is a compensation list. Add pushes an undo action after each
// successful step; Compensate runs them newest first.
type Saga struct {
	mu    sync.Mutex
	steps []step
}

func New() *Saga {
	return &Saga{}
}

func (s *Saga) Add(name string, undo UndoFunc) {
	s.mu.Lock()
	s.steps = append(s.steps, step{name: name, undo: undo})
	s.mu.Unlock()
}

// Len returns the number of pending undo steps.
func (s *Saga) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.steps)
}

// Compensate runs every undo step in reverse order. All steps are attempted
// even when one fails; the failures are joined into the returned error.
// The list is empty afterwards.
func (s *Saga) Compensate(ctx context.Context) error {
	s.mu.Lock()
	steps := s.steps
	s.steps = nil
	s.mu.Unlock()

	var errs []error
	for i := len(steps) - 1; i >= 0; i-- {
		if err := steps[i].undo(ctx); err != nil {
			errs = append(errs, fmt.Errorf("undo %s: %w", steps[i].name, err))
		}
	}
	return errors.Join(errs...)
}
