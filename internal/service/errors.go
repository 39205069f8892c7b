package service

import (
	"errors"
	"fmt"
)

// ValidationError rejects input before anything is written.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// Outcome marks validation failures as results, not backend faults.
func (e *ValidationError) Outcome() bool { return true }

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// PartialWriteError reports a multi-row write that failed at Step. When the
// rows could not be removed afterwards, CompensationErr says why and the
// leftovers need manual cleanup.
type PartialWriteError struct {
	Op              string
	Step            string
	Err             error
	RolledBack      bool
	CompensationErr error
}

func (e *PartialWriteError) Error() string {
	switch {
	case e.CompensationErr != nil:
		return fmt.Sprintf("%s failed at %s: %v; compensation failed: %v", e.Op, e.Step, e.Err, e.CompensationErr)
	case e.RolledBack:
		return fmt.Sprintf("%s failed at %s: %v (rolled back)", e.Op, e.Step, e.Err)
	default:
		return fmt.Sprintf("%s failed at %s: %v (compensated)", e.Op, e.Step, e.Err)
	}
}

func (e *PartialWriteError) Unwrap() []error {
	if e.CompensationErr != nil {
		return []error{e.Err, e.CompensationErr}
	}
	return []error{e.Err}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
