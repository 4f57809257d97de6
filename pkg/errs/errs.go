// Package errs defines the error kinds shared across the computation
// packages. Structural problems surface as one of the sentinel errors below,
// wrapped with context; numeric edge cases (shift edges, division by zero,
// log of non-positive values) are not errors at all and propagate as NaN
// values in the output panels.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks malformed caller input: an unknown frequency
	// string, an invalid fill method, a min duration that is not strictly
	// smaller than the max duration.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidInput marks structurally unusable data, such as columns of
	// unequal length or duplicate column names.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTypeMismatch marks two panels whose shapes cannot be combined,
	// such as reindexing a grouped panel against an ungrouped one.
	ErrTypeMismatch = errors.New("type mismatch")
)

// InvalidArgumentf wraps ErrInvalidArgument with a formatted message.
func InvalidArgumentf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidArgument)...)
}

// InvalidInputf wraps ErrInvalidInput with a formatted message.
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidInput)...)
}

// TypeMismatchf wraps ErrTypeMismatch with a formatted message.
func TypeMismatchf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrTypeMismatch)...)
}
