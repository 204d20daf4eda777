package aggregator

import (
	"fmt"

	"github.com/StrathCole/oracle-rounds/pkg/metrics"
	"github.com/StrathCole/oracle-rounds/pkg/numeric"
	"github.com/StrathCole/oracle-rounds/pkg/server/events"
	"github.com/StrathCole/oracle-rounds/pkg/server/history"
)

// Finalization triggers, used as metric labels.
const (
	triggerCapacity = "capacity"
	triggerTimeout  = "timeout"
)

// finalize publishes the median of the working round as roundID's answer.
func (e *Engine) finalize(tx *txn, roundID uint64, trigger string) error {
	st := tx.state
	if st.round.count == 0 {
		return fmt.Errorf("%w: round %d", ErrNoSubmissions, roundID)
	}

	answer, err := numeric.Median(st.round.values)
	if err != nil {
		return fmt.Errorf("failed to compute median for round %d: %w", roundID, err)
	}

	snap := history.Snapshot{
		RoundID:         roundID,
		Answer:          answer,
		StartedAt:       st.round.startedAt,
		UpdatedAt:       tx.now,
		AnsweredInRound: roundID,
		Stale:           false,
		SubmissionCount: st.round.count,
	}
	st.latest = snap
	st.latestRoundID = roundID
	st.lastFinalizedRound = roundID
	st.round = workingRound{}
	tx.ring = append(tx.ring, snap)

	finalized := events.New(events.TypeRoundFinalized, tx.feedID, roundID, tx.now)
	finalized.Answer = answer.String()
	finalized.Submissions = snap.SubmissionCount
	tx.emit(finalized)

	updated := events.New(events.TypeValueUpdated, tx.feedID, roundID, tx.now)
	updated.Answer = answer.String()
	updated.AnsweredInRound = roundID
	tx.emit(updated)

	decimals := st.config.Decimals
	tx.onCommit(func() {
		metrics.RecordFinalization(tx.feedID, trigger, snap.SubmissionCount, numeric.Float64(answer, decimals), snap.UpdatedAt)
		e.logger.Info("Round finalized",
			"feed", tx.feedID,
			"round", roundID,
			"answer", numeric.Format(answer, decimals),
			"submissions", snap.SubmissionCount,
			"trigger", trigger,
		)
	})
	return nil
}
