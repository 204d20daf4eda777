// Package compat exposes one feed through the fixed-shape read interface legacy price consumers expect.
package compat

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/StrathCole/oracle-rounds/pkg/server/aggregator"
	"github.com/StrathCole/oracle-rounds/pkg/server/feed"
	"github.com/StrathCole/oracle-rounds/pkg/server/history"
)

// Version is the reported adapter interface version.
const Version = 4

var (
	// ErrUnknownFeed is returned by New when the feed does not exist.
	ErrUnknownFeed = errors.New("unknown feed")
	// ErrNoDataPresent replaces every "nothing to read" condition of the engine.
	ErrNoDataPresent = errors.New("No data present") //nolint:stylecheck // legacy consumers match on this text
)

// Reader is the part of the engine the adapter reads from.
type Reader interface {
	Config(feedID string) (feed.Config, error)
	LatestRound(feedID string) (history.Snapshot, error)
	Round(feedID string, roundID uint64) (history.Snapshot, error)
}

// RoundData is the legacy round shape. Timestamps are unix seconds.
type RoundData struct {
	RoundID         uint64   `json:"roundId"`
	Answer          *big.Int `json:"answer"`
	StartedAt       int64    `json:"startedAt"`
	UpdatedAt       int64    `json:"updatedAt"`
	AnsweredInRound uint64   `json:"answeredInRound"`
}

// Adapter binds a Reader to a single feed.
type Adapter struct {
	reader Reader
	feedID string
}

// New returns an adapter for feedID.
func New(reader Reader, feedID string) (*Adapter, error) {
	if _, err := reader.Config(feedID); err != nil {
		if errors.Is(err, aggregator.ErrNoFeed) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownFeed, feedID)
		}
		return nil, err
	}
	return &Adapter{reader: reader, feedID: feedID}, nil
}

// FeedID returns the bound feed.
func (a *Adapter) FeedID() string { return a.feedID }

// Decimals returns the feed precision.
func (a *Adapter) Decimals() (uint8, error) {
	cfg, err := a.reader.Config(a.feedID)
	if err != nil {
		return 0, err
	}
	return cfg.Decimals, nil
}

// Description returns the feed label.
func (a *Adapter) Description() (string, error) {
	cfg, err := a.reader.Config(a.feedID)
	if err != nil {
		return "", err
	}
	return cfg.Description, nil
}

// Version returns the adapter interface version.
func (a *Adapter) Version() uint64 { return Version }

// LatestRoundData returns the most recent round.
func (a *Adapter) LatestRoundData() (RoundData, error) {
	snap, err := a.reader.LatestRound(a.feedID)
	if err != nil {
		return RoundData{}, translate(err)
	}
	return toRoundData(snap), nil
}

// GetRoundData returns the round with the given id.
func (a *Adapter) GetRoundData(roundID uint64) (RoundData, error) {
	snap, err := a.reader.Round(a.feedID, roundID)
	if err != nil {
		return RoundData{}, translate(err)
	}
	return toRoundData(snap), nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, aggregator.ErrNoData),
		errors.Is(err, aggregator.ErrBadRoundID),
		errors.Is(err, aggregator.ErrHistoryEvicted):
		return ErrNoDataPresent
	default:
		return err
	}
}

func toRoundData(s history.Snapshot) RoundData {
	return RoundData{
		RoundID:         s.RoundID,
		Answer:          s.Answer,
		StartedAt:       unix(s.StartedAt),
		UpdatedAt:       unix(s.UpdatedAt),
		AnsweredInRound: s.AnsweredInRound,
	}
}

func unix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
