// Package events defines the signals the round engine emits and the sinks that carry them.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/StrathCole/oracle-rounds/pkg/logging"
)

// Type names an emitted signal.
type Type string

const (
	TypeRoundOpened        Type = "round_opened"
	TypeSubmissionRecorded Type = "submission_recorded"
	TypeRoundFinalized     Type = "round_finalized"
	TypeValueUpdated       Type = "value_updated"
	TypeStaleRollover      Type = "stale_rollover"
	TypeRoundDiscarded     Type = "round_discarded"
	TypeFeedCreated        Type = "feed_created"
	TypeConfigUpdated      Type = "config_updated"
	TypeOperatorAdded      Type = "operator_added"
	TypeOperatorRemoved    Type = "operator_removed"
	TypePaused             Type = "paused"
	TypeUnpaused           Type = "unpaused"
)

// Event is one emitted signal. Answers are base-10 integer strings.
type Event struct {
	ID              string    `json:"id"`
	Type            Type      `json:"type"`
	FeedID          string    `json:"feed_id,omitempty"`
	RoundID         uint64    `json:"round_id,omitempty"`
	Operator        string    `json:"operator,omitempty"`
	Answer          string    `json:"answer,omitempty"`
	AnsweredInRound uint64    `json:"answered_in_round,omitempty"`
	Submissions     int       `json:"submissions,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// New returns an event of type t with a fresh id.
func New(t Type, feedID string, roundID uint64, ts time.Time) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		FeedID:    feedID,
		RoundID:   roundID,
		Timestamp: ts,
	}
}

// Sink receives committed events in emission order. Publish must not block.
type Sink interface {
	Publish(ev Event)
}

// Multi fans events out to several sinks.
type Multi []Sink

// Publish forwards ev to every sink.
func (m Multi) Publish(ev Event) {
	for _, s := range m {
		if s != nil {
			s.Publish(ev)
		}
	}
}

// Discard drops every event.
type Discard struct{}

// Publish does nothing.
func (Discard) Publish(Event) {}

// LogSink writes events to a logger at debug level.
type LogSink struct {
	logger *logging.Logger
}

// NewLogSink returns a sink that logs through logger.
func NewLogSink(logger *logging.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Publish logs ev.
func (s *LogSink) Publish(ev Event) {
	s.logger.Debug("Event emitted",
		"type", string(ev.Type),
		"feed", ev.FeedID,
		"round", ev.RoundID,
		"operator", ev.Operator,
		"answer", ev.Answer)
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish appends ev.
func (r *Recorder) Publish(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the recorded event types in order.
func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Type, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

// Reset forgets all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
