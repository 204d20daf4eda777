// Package client is an operator-side HTTP client for the oracle-rounds API with endpoint failover.
package client

import "errors"

var (
	// ErrNoEndpoints indicates that at least one API endpoint is required.
	ErrNoEndpoints = errors.New("at least one API endpoint is required")
	// ErrAllEndpointsFailed indicates that every endpoint failed at the transport level.
	ErrAllEndpointsFailed = errors.New("all API endpoints failed")
	// ErrServerError indicates that the API answered with a non-2xx status.
	ErrServerError = errors.New("API returned an error")
)
