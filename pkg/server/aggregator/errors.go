// Package aggregator implements the per-feed round lifecycle: gating, submission collection,
// median finalization, timeout resolution and the read/admin surface.
package aggregator

import (
	"errors"

	"github.com/StrathCole/oracle-rounds/pkg/server/history"
)

// Submission validation errors.
var (
	// ErrFeedMismatch indicates the submission's feed tag disagrees with the target feed.
	ErrFeedMismatch = errors.New("submission feed does not match target feed")
	// ErrExpired indicates the submission is past its validity deadline.
	ErrExpired = errors.New("submission expired")
	// ErrOutOfBounds indicates the answer lies outside the feed bounds.
	ErrOutOfBounds = errors.New("answer out of bounds")
	// ErrNotDue indicates no round is open and neither heartbeat nor deviation allows opening one.
	ErrNotDue = errors.New("new round not due")
	// ErrWrongRound indicates the submission targets a round other than the open one.
	ErrWrongRound = errors.New("wrong round id")
	// ErrRoundFull indicates the round already holds max submissions.
	ErrRoundFull = errors.New("round full")
	// ErrDuplicateSubmission indicates the operator already submitted in this round or batch.
	ErrDuplicateSubmission = errors.New("duplicate submission")
	// ErrEmptyBatch indicates a batch without entries.
	ErrEmptyBatch = errors.New("empty batch")
	// ErrLengthMismatch indicates envelope and signature counts differ.
	ErrLengthMismatch = errors.New("envelope and signature count mismatch")
)

// Authorization errors.
var (
	// ErrNotOperator indicates the identity is not on the feed roster.
	ErrNotOperator = errors.New("not an operator")
	// ErrUnauthenticated indicates the envelope signature could not be verified.
	ErrUnauthenticated = errors.New("submission not authenticated")
	// ErrNoAuthenticator indicates signed submissions arrived without a configured authenticator.
	ErrNoAuthenticator = errors.New("no authenticator configured")
	// ErrRoundOpen indicates an administrative change attempted while a round is open.
	ErrRoundOpen = errors.New("round in progress")
	// ErrRosterTooSmall indicates a removal would leave fewer operators than the round capacity.
	ErrRosterTooSmall = errors.New("operator count would fall below required minimum")
)

// State and read-availability errors.
var (
	// ErrNoFeed indicates the feed does not exist.
	ErrNoFeed = errors.New("feed not found")
	// ErrFeedExists indicates CreateFeed on an existing id.
	ErrFeedExists = errors.New("feed already exists")
	// ErrPaused indicates submissions are suspended.
	ErrPaused = errors.New("submissions paused")
	// ErrNoData indicates the feed has never published an answer.
	ErrNoData = errors.New("no data")
	// ErrNoSubmissions indicates finalization of an empty round.
	ErrNoSubmissions = errors.New("round has no submissions")
	// ErrBadRoundID indicates a request for round 0.
	ErrBadRoundID = history.ErrBadRoundID
	// ErrHistoryEvicted indicates the round is no longer in the history window.
	ErrHistoryEvicted = history.ErrHistoryEvicted
)

// errorLabel maps an error to a bounded metrics label.
func errorLabel(err error) string {
	switch {
	case errors.Is(err, ErrFeedMismatch):
		return "feed_mismatch"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrOutOfBounds):
		return "out_of_bounds"
	case errors.Is(err, ErrNotOperator):
		return "not_operator"
	case errors.Is(err, ErrNotDue):
		return "not_due"
	case errors.Is(err, ErrWrongRound):
		return "wrong_round"
	case errors.Is(err, ErrRoundFull):
		return "round_full"
	case errors.Is(err, ErrDuplicateSubmission):
		return "duplicate"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrPaused):
		return "paused"
	default:
		return "error"
	}
}
