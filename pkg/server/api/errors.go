// Package api provides the HTTP and WebSocket surface of the round engine.
package api

import (
	"errors"
	"net/http"

	"github.com/StrathCole/oracle-rounds/pkg/config"
	"github.com/StrathCole/oracle-rounds/pkg/numeric"
	"github.com/StrathCole/oracle-rounds/pkg/server/aggregator"
	"github.com/StrathCole/oracle-rounds/pkg/server/compat"
	"github.com/StrathCole/oracle-rounds/pkg/server/feed"
)

var (
	// ErrInvalidRequest indicates a request body or parameter that cannot be decoded.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrAdminDisabled indicates admin routes were called without a configured token.
	ErrAdminDisabled = errors.New("admin API disabled")
	// ErrUnauthorized indicates a missing or wrong admin token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRateLimited indicates the client exceeded its submission rate.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// statusTable maps sentinel errors to HTTP status codes. First match wins.
var statusTable = []struct {
	err    error
	status int
}{
	{aggregator.ErrNoFeed, http.StatusNotFound},
	{compat.ErrUnknownFeed, http.StatusNotFound},
	{aggregator.ErrNoData, http.StatusNotFound},
	{aggregator.ErrHistoryEvicted, http.StatusNotFound},
	{compat.ErrNoDataPresent, http.StatusNotFound},
	{feed.ErrOperatorNotFound, http.StatusNotFound},
	{aggregator.ErrBadRoundID, http.StatusBadRequest},
	{ErrInvalidRequest, http.StatusBadRequest},
	{ErrUnauthorized, http.StatusUnauthorized},
	{aggregator.ErrUnauthenticated, http.StatusUnauthorized},
	{ErrAdminDisabled, http.StatusForbidden},
	{aggregator.ErrNotOperator, http.StatusForbidden},
	{ErrRateLimited, http.StatusTooManyRequests},
	{aggregator.ErrPaused, http.StatusServiceUnavailable},
	{aggregator.ErrNoAuthenticator, http.StatusServiceUnavailable},
	{aggregator.ErrNotDue, http.StatusConflict},
	{aggregator.ErrWrongRound, http.StatusConflict},
	{aggregator.ErrRoundFull, http.StatusConflict},
	{aggregator.ErrDuplicateSubmission, http.StatusConflict},
	{aggregator.ErrRoundOpen, http.StatusConflict},
	{aggregator.ErrFeedExists, http.StatusConflict},
	{aggregator.ErrRosterTooSmall, http.StatusConflict},
	{feed.ErrOperatorExists, http.StatusConflict},
	{feed.ErrRosterFull, http.StatusConflict},
	{aggregator.ErrFeedMismatch, http.StatusUnprocessableEntity},
	{aggregator.ErrExpired, http.StatusUnprocessableEntity},
	{aggregator.ErrOutOfBounds, http.StatusUnprocessableEntity},
	{aggregator.ErrEmptyBatch, http.StatusUnprocessableEntity},
	{aggregator.ErrLengthMismatch, http.StatusUnprocessableEntity},
	{feed.ErrInvalidFeedID, http.StatusUnprocessableEntity},
	{feed.ErrInvalidDecimals, http.StatusUnprocessableEntity},
	{feed.ErrInvalidMinSubmissions, http.StatusUnprocessableEntity},
	{feed.ErrInvalidMaxSubmissions, http.StatusUnprocessableEntity},
	{feed.ErrNoTrigger, http.StatusUnprocessableEntity},
	{feed.ErrInvalidInterval, http.StatusUnprocessableEntity},
	{feed.ErrInvalidBounds, http.StatusUnprocessableEntity},
	{feed.ErrDescriptionTooLong, http.StatusUnprocessableEntity},
	{feed.ErrDecimalsImmutable, http.StatusUnprocessableEntity},
	{feed.ErrFeedIDImmutable, http.StatusUnprocessableEntity},
	{feed.ErrInvalidOperator, http.StatusUnprocessableEntity},
	{config.ErrInvalidBound, http.StatusUnprocessableEntity},
	{config.ErrInvalidAddress, http.StatusUnprocessableEntity},
	{numeric.ErrNotInteger, http.StatusUnprocessableEntity},
	{numeric.ErrOutOfRange, http.StatusUnprocessableEntity},
}

func statusFor(err error) int {
	for _, entry := range statusTable {
		if errors.Is(err, entry.err) {
			return entry.status
		}
	}
	return http.StatusInternalServerError
}
