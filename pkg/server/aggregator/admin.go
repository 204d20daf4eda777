package aggregator

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/StrathCole/oracle-rounds/pkg/server/events"
	"github.com/StrathCole/oracle-rounds/pkg/server/feed"
	"github.com/StrathCole/oracle-rounds/pkg/server/history"
)

// CreateFeed registers a new feed with its initial roster.
func (e *Engine) CreateFeed(cfg feed.Config, operators []common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.feeds[cfg.ID]; ok {
		return fmt.Errorf("%w: %s", ErrFeedExists, cfg.ID)
	}
	roster, err := feed.NewRoster(operators)
	if err != nil {
		return err
	}
	cfg = cfg.Clone()
	if err := cfg.Validate(roster.Len()); err != nil {
		return err
	}

	e.feeds[cfg.ID] = &feedState{
		config:  cfg,
		roster:  roster,
		history: history.NewRing(),
	}

	now := e.clock.Now()
	e.sink.Publish(events.New(events.TypeFeedCreated, cfg.ID, 0, now))
	e.logger.Info("Feed created",
		"feed", cfg.ID,
		"operators", roster.Len(),
		"min_submissions", cfg.MinSubmissions,
		"max_submissions", cfg.MaxSubmissions,
	)
	return nil
}

// UpdateConfig replaces the configuration of an existing feed. Id and decimals are fixed.
func (e *Engine) UpdateConfig(cfg feed.Config) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.idle(cfg.ID)
	if err != nil {
		return err
	}
	cfg = cfg.Clone()
	if err := cfg.ValidateUpdate(st.config, st.roster.Len()); err != nil {
		return err
	}
	st.config = cfg

	e.sink.Publish(events.New(events.TypeConfigUpdated, cfg.ID, 0, e.clock.Now()))
	e.logger.Info("Feed config updated", "feed", cfg.ID)
	return nil
}

// AddOperator appends op to the feed roster.
func (e *Engine) AddOperator(feedID string, op common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.idle(feedID)
	if err != nil {
		return err
	}
	roster := st.roster.Clone()
	if err := roster.Add(op); err != nil {
		return err
	}
	st.roster = roster

	ev := events.New(events.TypeOperatorAdded, feedID, 0, e.clock.Now())
	ev.Operator = op.Hex()
	e.sink.Publish(ev)
	e.logger.Info("Operator added", "feed", feedID, "operator", op.Hex(), "operators", roster.Len())
	return nil
}

// RemoveOperator drops op from the feed roster. The roster may not shrink below the
// feed's max submissions.
func (e *Engine) RemoveOperator(feedID string, op common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.idle(feedID)
	if err != nil {
		return err
	}
	if !st.roster.Contains(op) {
		return fmt.Errorf("%w: %s", ErrNotOperator, op.Hex())
	}
	required := st.config.MaxSubmissions
	if st.config.MinSubmissions > required {
		required = st.config.MinSubmissions
	}
	if st.roster.Len()-1 < required {
		return fmt.Errorf("%w: %d operators required", ErrRosterTooSmall, required)
	}
	roster := st.roster.Clone()
	if err := roster.Remove(op); err != nil {
		return err
	}
	st.roster = roster

	ev := events.New(events.TypeOperatorRemoved, feedID, 0, e.clock.Now())
	ev.Operator = op.Hex()
	e.sink.Publish(ev)
	e.logger.Info("Operator removed", "feed", feedID, "operator", op.Hex(), "operators", roster.Len())
	return nil
}

// Pause suspends all submissions. Reads and timeout resolution continue.
func (e *Engine) Pause() {
	e.setPaused(true)
}

// Unpause resumes submissions.
func (e *Engine) Unpause() {
	e.setPaused(false)
}

// Paused reports whether submissions are suspended.
func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

func (e *Engine) setPaused(paused bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.paused == paused {
		return
	}
	e.paused = paused

	t := events.TypeUnpaused
	if paused {
		t = events.TypePaused
	}
	e.sink.Publish(events.New(t, "", 0, e.clock.Now()))
	e.logger.Info("Submission state changed", "paused", paused)
}

// idle returns the feed state if no round is open. Must be called with e.mu held.
func (e *Engine) idle(feedID string) (*feedState, error) {
	st, err := e.lookup(feedID)
	if err != nil {
		return nil, err
	}
	if st.roundOpen() {
		return nil, fmt.Errorf("%w: feed %s round %d", ErrRoundOpen, feedID, st.currentRoundID())
	}
	return st, nil
}
