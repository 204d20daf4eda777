// Package history stores finalized round snapshots in a fixed-size ring buffer.
package history

import (
	"errors"
	"fmt"
	"math/big"
	"time"
)

// Capacity is the number of rounds retained per feed. It must stay a power of two.
const Capacity = 128

const mask = Capacity - 1

var (
	// ErrBadRoundID indicates a request for round 0.
	ErrBadRoundID = errors.New("round id must be positive")
	// ErrHistoryEvicted indicates the requested round is no longer (or not yet) in the ring.
	ErrHistoryEvicted = errors.New("round evicted from history")
)

// Snapshot is the published state of one round.
type Snapshot struct {
	RoundID         uint64
	Answer          *big.Int
	StartedAt       time.Time
	UpdatedAt       time.Time
	AnsweredInRound uint64
	Stale           bool
	SubmissionCount int
}

// Clone returns a copy that shares no mutable state with s.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.Answer != nil {
		out.Answer = new(big.Int).Set(s.Answer)
	}
	return out
}

// Ring holds the most recent Capacity snapshots, indexed by (roundID-1) mod Capacity.
// A slot whose stored RoundID differs from the requested one has been overwritten.
type Ring struct {
	slots [Capacity]Snapshot
}

// NewRing returns an empty ring.
func NewRing() *Ring {
	return &Ring{}
}

func slot(roundID uint64) int {
	return int((roundID - 1) & mask)
}

// Put stores s in its slot, overwriting whatever round was there.
func (r *Ring) Put(s Snapshot) {
	r.slots[slot(s.RoundID)] = s.Clone()
}

// Get returns the snapshot for roundID.
func (r *Ring) Get(roundID uint64) (Snapshot, error) {
	if roundID == 0 {
		return Snapshot{}, ErrBadRoundID
	}
	s := r.slots[slot(roundID)]
	if s.RoundID != roundID {
		return Snapshot{}, fmt.Errorf("%w: round %d", ErrHistoryEvicted, roundID)
	}
	return s.Clone(), nil
}

// Recent returns up to limit snapshots walking back from latestRoundID, newest first.
// It stops at the first missing or overwritten round.
func (r *Ring) Recent(latestRoundID uint64, limit int) []Snapshot {
	if limit <= 0 || limit > Capacity {
		limit = Capacity
	}
	out := make([]Snapshot, 0, limit)
	for id := latestRoundID; id > 0 && len(out) < limit; id-- {
		s, err := r.Get(id)
		if err != nil {
			break
		}
		out = append(out, s)
	}
	return out
}
