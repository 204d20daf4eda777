package aggregator

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/StrathCole/oracle-rounds/pkg/auth"
	"github.com/StrathCole/oracle-rounds/pkg/metrics"
	"github.com/StrathCole/oracle-rounds/pkg/server/events"
)

// Submission is one operator's proposed answer for a round.
type Submission struct {
	FeedID     string
	RoundID    uint64
	Answer     *big.Int
	ValidUntil time.Time
	Operator   common.Address
}

// Result describes what an accepted submission did.
type Result struct {
	RoundID    uint64
	Opened     bool
	Finalized  bool
	Resolution Resolution
}

// BatchResult describes what an accepted batch did.
type BatchResult struct {
	RoundID    uint64
	Opened     bool
	Finalized  bool
	Resolution Resolution
	Accepted   int
	// Ignored counts entries left unprocessed after the round reached capacity.
	Ignored int
}

// Submit records one submission for feedID.
func (e *Engine) Submit(feedID string, sub Submission) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.paused {
		return Result{}, ErrPaused
	}
	tx, err := e.begin(feedID)
	if err != nil {
		return Result{}, err
	}

	res, err := e.resolve(tx)
	if err != nil {
		return Result{}, err
	}
	roundID := tx.state.currentRoundID()
	opened, finalized, err := e.record(tx, sub, nil)
	if err != nil {
		metrics.RecordSubmission(feedID, errorLabel(err))
		return Result{}, err
	}

	e.commit(tx)
	return Result{
		RoundID:    roundID,
		Opened:     opened,
		Finalized:  finalized,
		Resolution: res,
	}, nil
}

// SubmitBatch records several submissions for feedID atomically. Entries after the one
// that fills the round are ignored.
func (e *Engine) SubmitBatch(feedID string, subs []Submission) (BatchResult, error) {
	if len(subs) == 0 {
		return BatchResult{}, ErrEmptyBatch
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.paused {
		return BatchResult{}, ErrPaused
	}
	tx, err := e.begin(feedID)
	if err != nil {
		return BatchResult{}, err
	}

	res, err := e.resolve(tx)
	if err != nil {
		return BatchResult{}, err
	}
	out := BatchResult{
		RoundID:    tx.state.currentRoundID(),
		Resolution: res,
	}

	var seen uint32
	for i, sub := range subs {
		opened, finalized, err := e.record(tx, sub, &seen)
		if err != nil {
			metrics.RecordSubmission(feedID, errorLabel(err))
			return BatchResult{}, fmt.Errorf("entry %d: %w", i, err)
		}
		out.Accepted++
		out.Opened = out.Opened || opened
		if finalized {
			out.Finalized = true
			out.Ignored = len(subs) - i - 1
			break
		}
	}

	e.commit(tx)
	return out, nil
}

// SubmitSigned verifies env and records it as a submission from its signer.
func (e *Engine) SubmitSigned(feedID string, env auth.Envelope, signature []byte) (Result, error) {
	sub, err := e.authenticate(env, signature)
	if err != nil {
		return Result{}, err
	}
	return e.Submit(feedID, sub)
}

// SubmitSignedBatch verifies every envelope and records them as one batch.
func (e *Engine) SubmitSignedBatch(feedID string, envs []auth.Envelope, signatures [][]byte) (BatchResult, error) {
	if len(envs) != len(signatures) {
		return BatchResult{}, fmt.Errorf("%w: %d envelopes, %d signatures", ErrLengthMismatch, len(envs), len(signatures))
	}
	if len(envs) == 0 {
		return BatchResult{}, ErrEmptyBatch
	}

	subs := make([]Submission, len(envs))
	for i := range envs {
		sub, err := e.authenticate(envs[i], signatures[i])
		if err != nil {
			return BatchResult{}, fmt.Errorf("entry %d: %w", i, err)
		}
		subs[i] = sub
	}
	return e.SubmitBatch(feedID, subs)
}

func (e *Engine) authenticate(env auth.Envelope, signature []byte) (Submission, error) {
	if e.auth == nil {
		return Submission{}, ErrNoAuthenticator
	}
	signer, err := e.auth.Verify(env, signature)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			return Submission{}, err
		}
		return Submission{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	return Submission{
		FeedID:     env.FeedID,
		RoundID:    env.RoundID,
		Answer:     env.Answer,
		ValidUntil: env.ValidUntil,
		Operator:   signer,
	}, nil
}

// record validates sub against the staged state and appends it to the working round.
// seen carries the operators already accepted earlier in the same batch.
func (e *Engine) record(tx *txn, sub Submission, seen *uint32) (opened, finalized bool, err error) {
	st := tx.state
	cfg := st.config

	if sub.FeedID != cfg.ID {
		return false, false, fmt.Errorf("%w: got %q, want %q", ErrFeedMismatch, sub.FeedID, cfg.ID)
	}
	if tx.now.After(sub.ValidUntil) {
		return false, false, fmt.Errorf("%w: valid until %s", ErrExpired, sub.ValidUntil.UTC().Format(time.RFC3339))
	}
	if sub.Answer == nil || !cfg.InBounds(sub.Answer) {
		return false, false, ErrOutOfBounds
	}
	slot := st.roster.Slot(sub.Operator)
	if slot == 0 {
		return false, false, fmt.Errorf("%w: %s", ErrNotOperator, sub.Operator.Hex())
	}
	if !st.roundOpen() {
		if !shouldOpenRound(st, sub.Answer, tx.now) {
			return false, false, ErrNotDue
		}
		opened = true
	}
	roundID := st.currentRoundID()
	if sub.RoundID != roundID {
		return false, false, fmt.Errorf("%w: got %d, want %d", ErrWrongRound, sub.RoundID, roundID)
	}
	if st.round.count >= cfg.MaxSubmissions {
		return false, false, ErrRoundFull
	}
	bit := slotBit(slot)
	if st.round.bitmap&bit != 0 || (seen != nil && *seen&bit != 0) {
		return false, false, fmt.Errorf("%w: %s", ErrDuplicateSubmission, sub.Operator.Hex())
	}

	if opened {
		st.round.startedAt = tx.now
		tx.emit(events.New(events.TypeRoundOpened, tx.feedID, roundID, tx.now))
		tx.onCommit(func() {
			metrics.RecordRoundOpened(tx.feedID)
			e.logger.Debug("Round opened", "feed", tx.feedID, "round", roundID, "operator", sub.Operator.Hex())
		})
	}
	if seen != nil {
		*seen |= bit
	}
	st.round.bitmap |= bit
	st.round.values = append(st.round.values, new(big.Int).Set(sub.Answer))
	st.round.count++

	ev := events.New(events.TypeSubmissionRecorded, tx.feedID, roundID, tx.now)
	ev.Operator = sub.Operator.Hex()
	ev.Answer = sub.Answer.String()
	ev.Submissions = st.round.count
	tx.emit(ev)
	tx.onCommit(func() { metrics.RecordSubmission(tx.feedID, "accepted") })

	if st.round.count == cfg.MaxSubmissions {
		if err := e.finalize(tx, roundID, triggerCapacity); err != nil {
			return false, false, err
		}
		finalized = true
	}
	return opened, finalized, nil
}
