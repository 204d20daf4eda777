package aggregator

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/StrathCole/oracle-rounds/pkg/server/feed"
	"github.com/StrathCole/oracle-rounds/pkg/server/history"
)

// RoundStatus describes the round a submission would currently target.
type RoundStatus struct {
	RoundID     uint64
	Open        bool
	StartedAt   time.Time
	Submissions int
	// Deadline is zero when the round is closed or the feed has no timeout.
	Deadline time.Time
}

// lookup must be called with e.mu held.
func (e *Engine) lookup(feedID string) (*feedState, error) {
	st, ok := e.feeds[feedID]
	if !ok {
		return nil, ErrNoFeed
	}
	return st, nil
}

// LatestValue returns the current answer and when it was last genuinely updated.
func (e *Engine) LatestValue(feedID string) (*big.Int, time.Time, error) {
	snap, err := e.LatestRound(feedID)
	if err != nil {
		return nil, time.Time{}, err
	}
	return snap.Answer, snap.UpdatedAt, nil
}

// LatestRound returns the most recent snapshot, which may be a stale rollover.
func (e *Engine) LatestRound(feedID string) (history.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.lookup(feedID)
	if err != nil {
		return history.Snapshot{}, err
	}
	if !st.hasData() {
		return history.Snapshot{}, ErrNoData
	}
	return st.latest.Clone(), nil
}

// Round returns the snapshot stored for roundID.
func (e *Engine) Round(feedID string, roundID uint64) (history.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.lookup(feedID)
	if err != nil {
		return history.Snapshot{}, err
	}
	return st.history.Get(roundID)
}

// Recent returns up to limit snapshots, newest first.
func (e *Engine) Recent(feedID string, limit int) ([]history.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.lookup(feedID)
	if err != nil {
		return nil, err
	}
	return st.history.Recent(st.latestRoundID, limit), nil
}

// Config returns a copy of the feed configuration.
func (e *Engine) Config(feedID string) (feed.Config, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.lookup(feedID)
	if err != nil {
		return feed.Config{}, err
	}
	return st.config.Clone(), nil
}

// Operators returns the roster in slot order.
func (e *Engine) Operators(feedID string) ([]common.Address, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.lookup(feedID)
	if err != nil {
		return nil, err
	}
	return st.roster.Operators(), nil
}

// IsOperator reports whether op is on the feed roster.
func (e *Engine) IsOperator(feedID string, op common.Address) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.lookup(feedID)
	if err != nil {
		return false, err
	}
	return st.roster.Contains(op), nil
}

// NextRoundID returns the round id a submission made now must carry.
func (e *Engine) NextRoundID(feedID string) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.simulate(feedID)
	if err != nil {
		return 0, err
	}
	return st.currentRoundID(), nil
}

// DueToOpen reports whether a submission of proposed made now would be accepted by the
// round gate. It is always true while a round is open.
func (e *Engine) DueToOpen(feedID string, proposed *big.Int) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.simulate(feedID)
	if err != nil {
		return false, err
	}
	if st.roundOpen() {
		return true, nil
	}
	return shouldOpenRound(st, proposed, e.clock.Now()), nil
}

// OpenRound reports the state of the round a submission made now would target.
func (e *Engine) OpenRound(feedID string) (RoundStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.simulate(feedID)
	if err != nil {
		return RoundStatus{}, err
	}
	status := RoundStatus{RoundID: st.currentRoundID()}
	if !st.roundOpen() {
		return status, nil
	}
	status.Open = true
	status.StartedAt = st.round.startedAt
	status.Submissions = st.round.count
	if st.config.TimeoutEnabled() {
		status.Deadline = st.round.startedAt.Add(st.config.Timeout)
	}
	return status, nil
}

// IsStale reports whether the feed's answer should not be trusted: it never answered,
// the latest round rolled over, or the answer is older than maxAge.
func (e *Engine) IsStale(feedID string, maxAge time.Duration) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.lookup(feedID)
	if err != nil {
		return false, err
	}
	if !st.hasData() || st.latest.Stale || st.latest.AnsweredInRound < st.latest.RoundID {
		return true, nil
	}
	return e.clock.Now().Sub(st.latest.UpdatedAt) > maxAge, nil
}

// simulate runs timeout resolution on a throwaway copy. Must be called with e.mu held.
func (e *Engine) simulate(feedID string) (*feedState, error) {
	tx, err := e.begin(feedID)
	if err != nil {
		return nil, err
	}
	if _, err := e.resolve(tx); err != nil {
		return nil, err
	}
	return tx.state, nil
}
