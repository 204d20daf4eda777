package compat

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StrathCole/oracle-rounds/pkg/logging"
	"github.com/StrathCole/oracle-rounds/pkg/server/aggregator"
	"github.com/StrathCole/oracle-rounds/pkg/server/feed"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func newEngine(t *testing.T, now time.Time) *aggregator.Engine {
	t.Helper()
	engine := aggregator.NewEngine(logging.NewNoopLogger(), aggregator.WithClock(fixedClock{now: now}))
	err := engine.CreateFeed(feed.Config{
		ID:                    "ETH-USD",
		Decimals:              8,
		MinSubmissions:        1,
		MaxSubmissions:        1,
		Heartbeat:             time.Hour,
		DeviationThresholdBps: 100,
		MinValue:              big.NewInt(1),
		MaxValue:              big.NewInt(1_000_000_000_000_000),
		Description:           "ETH / USD",
	}, []common.Address{common.HexToAddress("0x0000000000000000000000000000000000000001")})
	require.NoError(t, err)
	return engine
}

func TestNew_UnknownFeed(t *testing.T) {
	engine := newEngine(t, time.Unix(1_700_000_000, 0))
	_, err := New(engine, "BTC-USD")
	assert.ErrorIs(t, err, ErrUnknownFeed)
}

func TestAdapter(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	engine := newEngine(t, now)
	adapter, err := New(engine, "ETH-USD")
	require.NoError(t, err)

	decimals, err := adapter.Decimals()
	require.NoError(t, err)
	assert.Equal(t, uint8(8), decimals)
	description, err := adapter.Description()
	require.NoError(t, err)
	assert.Equal(t, "ETH / USD", description)
	assert.Equal(t, uint64(4), adapter.Version())

	_, err = adapter.LatestRoundData()
	assert.ErrorIs(t, err, ErrNoDataPresent)
	assert.EqualError(t, err, "No data present")
	_, err = adapter.GetRoundData(0)
	assert.ErrorIs(t, err, ErrNoDataPresent)
	_, err = adapter.GetRoundData(1)
	assert.ErrorIs(t, err, ErrNoDataPresent)

	_, err = engine.Submit("ETH-USD", aggregator.Submission{
		FeedID:     "ETH-USD",
		RoundID:    1,
		Answer:     big.NewInt(250_000_000_000),
		ValidUntil: now.Add(time.Minute),
		Operator:   common.HexToAddress("0x0000000000000000000000000000000000000001"),
	})
	require.NoError(t, err)

	latest, err := adapter.LatestRoundData()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), latest.RoundID)
	assert.Equal(t, uint64(1), latest.AnsweredInRound)
	assert.Equal(t, now.Unix(), latest.UpdatedAt)
	assert.Equal(t, now.Unix(), latest.StartedAt)
	assert.Equal(t, 0, big.NewInt(250_000_000_000).Cmp(latest.Answer))

	round, err := adapter.GetRoundData(1)
	require.NoError(t, err)
	assert.Equal(t, latest, round)
}
