// Package numeric provides exact signed 256-bit arithmetic helpers for feed values.
package numeric

import "errors"

var (
	// ErrNoValues indicates that a median was requested over an empty set.
	ErrNoValues = errors.New("no values")
	// ErrNotInteger indicates that a parsed value has a fractional part.
	ErrNotInteger = errors.New("value is not an integer")
	// ErrOutOfRange indicates that a value does not fit in a signed 256-bit integer.
	ErrOutOfRange = errors.New("value out of int256 range")
)
