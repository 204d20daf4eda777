package aggregator

import (
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/StrathCole/oracle-rounds/pkg/auth"
	"github.com/StrathCole/oracle-rounds/pkg/logging"
	"github.com/StrathCole/oracle-rounds/pkg/server/events"
	"github.com/StrathCole/oracle-rounds/pkg/server/feed"
	"github.com/StrathCole/oracle-rounds/pkg/server/history"
)

// Clock supplies the engine's notion of now.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Authenticator maps a signed envelope to the identity that signed it.
type Authenticator interface {
	Verify(env auth.Envelope, signature []byte) (common.Address, error)
}

// Engine runs the round state machine for every configured feed.
// All calls are serialised; a failed call leaves no trace.
type Engine struct {
	mu     sync.Mutex
	feeds  map[string]*feedState
	paused bool

	clock  Clock
	auth   Authenticator
	sink   events.Sink
	logger *logging.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithAuthenticator sets the verifier used by the signed submission entry points.
func WithAuthenticator(a Authenticator) Option {
	return func(e *Engine) { e.auth = a }
}

// WithSink sets where committed events go.
func WithSink(s events.Sink) Option {
	return func(e *Engine) { e.sink = s }
}

// NewEngine creates an engine without feeds.
func NewEngine(logger *logging.Logger, opts ...Option) *Engine {
	e := &Engine{
		feeds:  make(map[string]*feedState),
		clock:  systemClock{},
		sink:   events.Discard{},
		logger: logger.With("component", "aggregator"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// feedState is everything the engine keeps for one feed.
type feedState struct {
	config             feed.Config
	roster             *feed.Roster
	round              workingRound
	latest             history.Snapshot
	latestRoundID      uint64 // last round written to latest, finalized or rolled over
	lastFinalizedRound uint64 // last round with a genuine answer
	history            *history.Ring
}

// clone copies the mutable round state. Config, roster and ring are replaced, never mutated,
// on the copy, so they are shared.
func (s *feedState) clone() *feedState {
	out := *s
	out.round = s.round.clone()
	out.latest = s.latest.Clone()
	return &out
}

func (s *feedState) hasData() bool   { return s.lastFinalizedRound > 0 }
func (s *feedState) roundOpen() bool { return s.round.count > 0 }

// currentRoundID is the id of the open round, or of the round the next submission would open.
func (s *feedState) currentRoundID() uint64 { return s.latestRoundID + 1 }

// workingRound is the open round's collection state.
type workingRound struct {
	startedAt time.Time
	bitmap    uint32
	values    []*big.Int
	count     int
}

func (w workingRound) clone() workingRound {
	out := w
	out.values = append([]*big.Int(nil), w.values...)
	return out
}

func slotBit(slot int) uint32 {
	return uint32(1) << uint(slot-1)
}

// txn stages one call's effects on a copy of a feed's state.
type txn struct {
	feedID string
	state  *feedState
	now    time.Time
	ring   []history.Snapshot
	events []events.Event
	after  []func()
}

func (tx *txn) emit(ev events.Event) {
	tx.events = append(tx.events, ev)
}

func (tx *txn) onCommit(fn func()) {
	tx.after = append(tx.after, fn)
}

// begin must be called with e.mu held.
func (e *Engine) begin(feedID string) (*txn, error) {
	st, ok := e.feeds[feedID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoFeed, feedID)
	}
	return &txn{
		feedID: feedID,
		state:  st.clone(),
		now:    e.clock.Now(),
	}, nil
}

// commit must be called with e.mu held.
func (e *Engine) commit(tx *txn) {
	e.feeds[tx.feedID] = tx.state
	for _, snap := range tx.ring {
		tx.state.history.Put(snap)
	}
	for _, ev := range tx.events {
		e.sink.Publish(ev)
	}
	for _, fn := range tx.after {
		fn()
	}
}

// Feeds returns the configured feed ids in sorted order.
func (e *Engine) Feeds() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make([]string, 0, len(e.feeds))
	for id := range e.feeds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
