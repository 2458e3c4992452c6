package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an operation targets a record that does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation matches every ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidRange is returned by price range queries whose lower bound exceeds the upper bound.
	ErrInvalidRange = &ValidationError{Field: "price", Reason: "min price must not exceed max price"}
)

// ValidationError describes input that violates a catalog invariant.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// PersistenceError wraps a backing store failure with the operation that caused it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
