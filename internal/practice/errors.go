package practice

import (
	"errors"
	"fmt"
)

var (
	// ErrConflict is returned when intake hits a conflict of interest
	ErrConflict = errors.New("conflict of interest")
	// ErrNotFound is returned when no brief carries the requested case id
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned for form values that fail validation
	ErrInvalidInput = errors.New("invalid input")
)

// ConflictError names the earlier brief in which the opposing party was our client
type ConflictError struct {
	Party  string
	CaseID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("ethical conflict: %q was represented in case %s", e.Party, e.CaseID)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
