package aggregator

import (
	"github.com/StrathCole/oracle-rounds/pkg/metrics"
	"github.com/StrathCole/oracle-rounds/pkg/server/events"
	"github.com/StrathCole/oracle-rounds/pkg/server/history"
)

// Resolution is the outcome of a timeout check.
type Resolution int

const (
	// ResolutionNone means nothing was due.
	ResolutionNone Resolution = iota
	// ResolutionFinalized means the expired round had quorum and was finalized.
	ResolutionFinalized
	// ResolutionRolledOver means the expired round was replaced by a stale copy of the last answer.
	ResolutionRolledOver
	// ResolutionDiscarded means the expired round was dropped because the feed has no answer yet.
	ResolutionDiscarded
)

func (r Resolution) String() string {
	switch r {
	case ResolutionFinalized:
		return "finalized"
	case ResolutionRolledOver:
		return "rolled_over"
	case ResolutionDiscarded:
		return "discarded"
	default:
		return "none"
	}
}

// ResolveIfTimedOut closes the open round of feedID if its timeout elapsed.
// It runs while submissions are paused.
func (e *Engine) ResolveIfTimedOut(feedID string) (Resolution, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tx, err := e.begin(feedID)
	if err != nil {
		return ResolutionNone, err
	}
	res, err := e.resolve(tx)
	if err != nil {
		return ResolutionNone, err
	}
	e.commit(tx)
	return res, nil
}

func (e *Engine) resolve(tx *txn) (Resolution, error) {
	st := tx.state
	cfg := st.config
	if !cfg.TimeoutEnabled() || !st.roundOpen() {
		return ResolutionNone, nil
	}
	if tx.now.Sub(st.round.startedAt) < cfg.Timeout {
		return ResolutionNone, nil
	}

	roundID := st.currentRoundID()
	if st.round.count >= cfg.MinSubmissions {
		if err := e.finalize(tx, roundID, triggerTimeout); err != nil {
			return ResolutionNone, err
		}
		return ResolutionFinalized, nil
	}

	count := st.round.count
	if !st.hasData() {
		st.round = workingRound{}
		ev := events.New(events.TypeRoundDiscarded, tx.feedID, roundID, tx.now)
		ev.Submissions = count
		tx.emit(ev)
		tx.onCommit(func() {
			metrics.RecordRoundDiscarded(tx.feedID)
			e.logger.Warn("Round discarded without answer", "feed", tx.feedID, "round", roundID, "submissions", count)
		})
		return ResolutionDiscarded, nil
	}

	prev := st.latest
	snap := history.Snapshot{
		RoundID:         roundID,
		Answer:          prev.Answer,
		StartedAt:       st.round.startedAt,
		UpdatedAt:       prev.UpdatedAt,
		AnsweredInRound: prev.AnsweredInRound,
		Stale:           true,
		SubmissionCount: count,
	}
	st.latest = snap
	st.latestRoundID = roundID
	st.round = workingRound{}
	tx.ring = append(tx.ring, snap)

	ev := events.New(events.TypeStaleRollover, tx.feedID, roundID, tx.now)
	ev.Answer = snap.Answer.String()
	ev.AnsweredInRound = snap.AnsweredInRound
	ev.Submissions = count
	tx.emit(ev)
	tx.onCommit(func() {
		metrics.RecordStaleRollover(tx.feedID)
		e.logger.Warn("Round rolled over stale",
			"feed", tx.feedID,
			"round", roundID,
			"answered_in_round", snap.AnsweredInRound,
			"submissions", count,
		)
	})
	return ResolutionRolledOver, nil
}
