package api

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/StrathCole/oracle-rounds/pkg/auth"
	"github.com/StrathCole/oracle-rounds/pkg/numeric"
	"github.com/StrathCole/oracle-rounds/pkg/server/aggregator"
	"github.com/StrathCole/oracle-rounds/pkg/server/compat"
	"github.com/StrathCole/oracle-rounds/pkg/server/feed"
	"github.com/StrathCole/oracle-rounds/pkg/server/history"
)

// SubmissionRequest is a signed submission as sent by an operator.
type SubmissionRequest struct {
	FeedID     string `json:"feed_id"`
	RoundID    uint64 `json:"round_id"`
	Answer     string `json:"answer"`      // Integer in base units
	ValidUntil int64  `json:"valid_until"` // Unix seconds
	Signature  string `json:"signature"`   // 0x-prefixed 65-byte hex
}

// BatchRequest carries several signed submissions for one feed.
type BatchRequest struct {
	Submissions []SubmissionRequest `json:"submissions"`
}

// NewSubmissionRequest encodes a signed envelope for transport.
func NewSubmissionRequest(env auth.Envelope, signature []byte) SubmissionRequest {
	return SubmissionRequest{
		FeedID:     env.FeedID,
		RoundID:    env.RoundID,
		Answer:     env.Answer.String(),
		ValidUntil: env.ValidUntil.Unix(),
		Signature:  "0x" + hex.EncodeToString(signature),
	}
}

// Envelope decodes the request into the signed envelope and its signature.
func (r SubmissionRequest) Envelope() (auth.Envelope, []byte, error) {
	answer, err := numeric.ParseInteger(r.Answer)
	if err != nil {
		return auth.Envelope{}, nil, fmt.Errorf("%w: answer: %w", ErrInvalidRequest, err)
	}
	sig, err := hex.DecodeString(strings.TrimPrefix(r.Signature, "0x"))
	if err != nil {
		return auth.Envelope{}, nil, fmt.Errorf("%w: signature: %w", ErrInvalidRequest, err)
	}
	return auth.Envelope{
		FeedID:     r.FeedID,
		RoundID:    r.RoundID,
		Answer:     answer,
		ValidUntil: time.Unix(r.ValidUntil, 0),
	}, sig, nil
}

// RoundResponse is one round snapshot.
type RoundResponse struct {
	FeedID          string    `json:"feed_id"`
	RoundID         uint64    `json:"round_id"`
	Answer          string    `json:"answer"`
	AnswerDecimal   string    `json:"answer_decimal"`
	StartedAt       time.Time `json:"started_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	AnsweredInRound uint64    `json:"answered_in_round"`
	Stale           bool      `json:"stale"`
	SubmissionCount int       `json:"submission_count"`
}

func newRoundResponse(feedID string, decimals uint8, s history.Snapshot) RoundResponse {
	return RoundResponse{
		FeedID:          feedID,
		RoundID:         s.RoundID,
		Answer:          s.Answer.String(),
		AnswerDecimal:   numeric.Format(s.Answer, decimals),
		StartedAt:       s.StartedAt,
		UpdatedAt:       s.UpdatedAt,
		AnsweredInRound: s.AnsweredInRound,
		Stale:           s.Stale,
		SubmissionCount: s.SubmissionCount,
	}
}

// RoundStatusResponse describes the round a submission would target now.
type RoundStatusResponse struct {
	RoundID     uint64     `json:"round_id"`
	Open        bool       `json:"open"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Submissions int        `json:"submissions"`
}

func newRoundStatusResponse(s aggregator.RoundStatus) RoundStatusResponse {
	out := RoundStatusResponse{
		RoundID:     s.RoundID,
		Open:        s.Open,
		Submissions: s.Submissions,
	}
	if !s.StartedAt.IsZero() {
		started := s.StartedAt
		out.StartedAt = &started
	}
	if !s.Deadline.IsZero() {
		deadline := s.Deadline
		out.Deadline = &deadline
	}
	return out
}

// FeedResponse is a feed's configuration and current state.
type FeedResponse struct {
	ID                    string              `json:"id"`
	Description           string              `json:"description"`
	Decimals              uint8               `json:"decimals"`
	MinSubmissions        int                 `json:"min_submissions"`
	MaxSubmissions        int                 `json:"max_submissions"`
	Heartbeat             string              `json:"heartbeat"`
	DeviationThresholdBps uint32              `json:"deviation_bps"`
	Timeout               string              `json:"timeout"`
	MinValue              string              `json:"min_value"`
	MaxValue              string              `json:"max_value"`
	Operators             []string            `json:"operators,omitempty"`
	Round                 RoundStatusResponse `json:"round"`
	Latest                *RoundResponse      `json:"latest,omitempty"`
}

func newFeedResponse(cfg feed.Config) FeedResponse {
	return FeedResponse{
		ID:                    cfg.ID,
		Description:           cfg.Description,
		Decimals:              cfg.Decimals,
		MinSubmissions:        cfg.MinSubmissions,
		MaxSubmissions:        cfg.MaxSubmissions,
		Heartbeat:             cfg.Heartbeat.String(),
		DeviationThresholdBps: cfg.DeviationThresholdBps,
		Timeout:               cfg.Timeout.String(),
		MinValue:              cfg.MinValue.String(),
		MaxValue:              cfg.MaxValue.String(),
	}
}

// SubmissionResponse reports the effect of an accepted submission or batch.
type SubmissionResponse struct {
	RoundID    uint64 `json:"round_id"`
	Opened     bool   `json:"opened"`
	Finalized  bool   `json:"finalized"`
	Resolution string `json:"resolution"`
	Accepted   int    `json:"accepted"`
	Ignored    int    `json:"ignored,omitempty"`
}

// CompatRoundResponse is the legacy round shape.
type CompatRoundResponse struct {
	RoundID         uint64 `json:"roundId"`
	Answer          string `json:"answer"`
	StartedAt       int64  `json:"startedAt"`
	UpdatedAt       int64  `json:"updatedAt"`
	AnsweredInRound uint64 `json:"answeredInRound"`
}

func newCompatRoundResponse(d compat.RoundData) CompatRoundResponse {
	return CompatRoundResponse{
		RoundID:         d.RoundID,
		Answer:          d.Answer.String(),
		StartedAt:       d.StartedAt,
		UpdatedAt:       d.UpdatedAt,
		AnsweredInRound: d.AnsweredInRound,
	}
}

// OperatorRequest names an operator to add.
type OperatorRequest struct {
	Operator string `json:"operator"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
