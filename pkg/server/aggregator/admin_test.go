package aggregator

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StrathCole/oracle-rounds/pkg/server/events"
	"github.com/StrathCole/oracle-rounds/pkg/server/feed"
)

func TestAdmin_CreateFeed(t *testing.T) {
	h := newHarness(t, testConfig(), []common.Address{opA, opB, opC})

	err := h.engine.CreateFeed(testConfig(), []common.Address{opA, opB, opC})
	assert.ErrorIs(t, err, ErrFeedExists)

	cfg := testConfig()
	cfg.ID = "ETH-USD"
	err = h.engine.CreateFeed(cfg, []common.Address{opA, opB})
	assert.ErrorIs(t, err, feed.ErrInvalidMaxSubmissions)

	err = h.engine.CreateFeed(cfg, []common.Address{opA, opA, opB})
	assert.ErrorIs(t, err, feed.ErrOperatorExists)

	require.NoError(t, h.engine.CreateFeed(cfg, []common.Address{opA, opB, opC}))
	assert.Equal(t, []string{testFeed, "ETH-USD"}, h.engine.Feeds())
	assert.Equal(t, []events.Type{events.TypeFeedCreated}, h.recorder.Types())

	_, err = h.engine.LatestRound("ETH-USD")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestAdmin_BlockedWhileRoundOpen(t *testing.T) {
	h := newHarness(t, testConfig(), []common.Address{opA, opB, opC})
	h.submit(t, opA, 1, e8(100))

	assert.ErrorIs(t, h.engine.AddOperator(testFeed, opD), ErrRoundOpen)
	assert.ErrorIs(t, h.engine.RemoveOperator(testFeed, opC), ErrRoundOpen)
	assert.ErrorIs(t, h.engine.UpdateConfig(testConfig()), ErrRoundOpen)

	// an expired round still blocks until it is resolved
	h.clock.Advance(time.Hour)
	assert.ErrorIs(t, h.engine.AddOperator(testFeed, opD), ErrRoundOpen)

	_, err := h.engine.ResolveIfTimedOut(testFeed)
	require.NoError(t, err)
	assert.NoError(t, h.engine.AddOperator(testFeed, opD))
}

func TestAdmin_Operators(t *testing.T) {
	h := newHarness(t, testConfig(), []common.Address{opA, opB, opC})

	require.NoError(t, h.engine.AddOperator(testFeed, opD))
	assert.ErrorIs(t, h.engine.AddOperator(testFeed, opD), feed.ErrOperatorExists)
	assert.ErrorIs(t, h.engine.AddOperator(testFeed, common.Address{}), feed.ErrInvalidOperator)

	ok, err := h.engine.IsOperator(testFeed, opD)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, h.engine.RemoveOperator(testFeed, opA))
	assert.ErrorIs(t, h.engine.RemoveOperator(testFeed, opA), ErrNotOperator)
	assert.ErrorIs(t, h.engine.RemoveOperator(testFeed, opB), ErrRosterTooSmall)

	ops, err := h.engine.Operators(testFeed)
	require.NoError(t, err)
	assert.ElementsMatch(t, []common.Address{opB, opC, opD}, ops)

	// removed operators can no longer submit, the swapped one still can
	_, err = h.engine.Submit(testFeed, h.sub(opA, 1, e8(100)))
	assert.ErrorIs(t, err, ErrNotOperator)
	h.submit(t, opD, 1, e8(100))
	h.submit(t, opB, 1, e8(100))
	res := h.submit(t, opC, 1, e8(100))
	assert.True(t, res.Finalized)

	assert.Equal(t, []events.Type{
		events.TypeOperatorAdded,
		events.TypeOperatorRemoved,
	}, h.recorder.Types()[:2])
}

func TestAdmin_UpdateConfig(t *testing.T) {
	h := newHarness(t, testConfig(), []common.Address{opA, opB, opC})
	h.finalizeRound(t, 1, e8(100))

	cfg := testConfig()
	cfg.Decimals = 6
	assert.ErrorIs(t, h.engine.UpdateConfig(cfg), feed.ErrDecimalsImmutable)

	cfg = testConfig()
	cfg.MaxSubmissions = 4
	assert.ErrorIs(t, h.engine.UpdateConfig(cfg), feed.ErrInvalidMaxSubmissions)

	cfg = testConfig()
	cfg.ID = "ETH-USD"
	assert.ErrorIs(t, h.engine.UpdateConfig(cfg), ErrNoFeed)

	cfg = testConfig()
	cfg.DeviationThresholdBps = 10
	cfg.Description = "BTC / USD spot"
	require.NoError(t, h.engine.UpdateConfig(cfg))

	got, err := h.engine.Config(testFeed)
	require.NoError(t, err)
	assert.Equal(t, uint32(10), got.DeviationThresholdBps)
	assert.Equal(t, "BTC / USD spot", got.Description)

	// 10 bps now opens a round
	res := h.submit(t, opA, 2, big.NewInt(10_010_000_000))
	assert.True(t, res.Opened)
}
