// Package feed holds per-feed configuration and the operator roster.
package feed

import "errors"

// Configuration errors.
var (
	// ErrInvalidFeedID indicates an empty, oversized or non-URL-safe feed id.
	ErrInvalidFeedID = errors.New("invalid feed id")
	// ErrInvalidDecimals indicates decimals outside 1..18.
	ErrInvalidDecimals = errors.New("decimals must be between 1 and 18")
	// ErrInvalidMinSubmissions indicates a quorum below one.
	ErrInvalidMinSubmissions = errors.New("min submissions must be at least 1")
	// ErrInvalidMaxSubmissions indicates a capacity below quorum, above the roster size or above MaxOperators.
	ErrInvalidMaxSubmissions = errors.New("invalid max submissions")
	// ErrNoTrigger indicates that both heartbeat and deviation gating are disabled.
	ErrNoTrigger = errors.New("heartbeat or deviation threshold must be set")
	// ErrInvalidInterval indicates a negative heartbeat or timeout.
	ErrInvalidInterval = errors.New("intervals must not be negative")
	// ErrInvalidBounds indicates missing, inverted or sentinel value bounds.
	ErrInvalidBounds = errors.New("invalid value bounds")
	// ErrDescriptionTooLong indicates a description longer than MaxDescriptionLength.
	ErrDescriptionTooLong = errors.New("description too long")
	// ErrDecimalsImmutable indicates an attempt to change decimals after creation.
	ErrDecimalsImmutable = errors.New("decimals cannot be changed")
	// ErrFeedIDImmutable indicates an attempt to change the feed id on update.
	ErrFeedIDImmutable = errors.New("feed id cannot be changed")
)

// Roster errors.
var (
	// ErrInvalidOperator indicates the zero address was given as an operator.
	ErrInvalidOperator = errors.New("invalid operator address")
	// ErrOperatorExists indicates the operator is already on the roster.
	ErrOperatorExists = errors.New("operator already exists")
	// ErrOperatorNotFound indicates the operator is not on the roster.
	ErrOperatorNotFound = errors.New("operator not found")
	// ErrRosterFull indicates the roster already holds MaxOperators entries.
	ErrRosterFull = errors.New("operator roster full")
)
