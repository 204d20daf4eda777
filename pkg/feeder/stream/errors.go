// Package stream subscribes to the oracle-rounds WebSocket event stream with reconnection.
package stream

import "errors"

var (
	// ErrMaxRetriesExceeded indicates that the maximum connection retries have been exceeded.
	ErrMaxRetriesExceeded = errors.New("max connection retries exceeded")
	// ErrConnectionLost indicates that an established connection dropped.
	ErrConnectionLost = errors.New("connection lost")
)
