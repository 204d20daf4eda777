package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StrathCole/oracle-rounds/pkg/logging"
)

func TestMultiAndRecorder(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	m := Multi{a, nil, b, Discard{}}

	ts := time.Unix(1_700_000_000, 0)
	m.Publish(New(TypeRoundOpened, "BTC-USD", 1, ts))
	m.Publish(New(TypeRoundFinalized, "BTC-USD", 1, ts))

	assert.Equal(t, []Type{TypeRoundOpened, TypeRoundFinalized}, a.Types())
	assert.Equal(t, a.Types(), b.Types())

	evs := a.Events()
	require.Len(t, evs, 2)
	assert.NotEmpty(t, evs[0].ID)
	assert.NotEqual(t, evs[0].ID, evs[1].ID)

	a.Reset()
	assert.Empty(t, a.Events())
}

type fakeRedis struct {
	mu       sync.Mutex
	messages []string
	fail     bool
	closed   bool
}

func (f *fakeRedis) Publish(_ context.Context, channel string, message interface{}) *goredis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return goredis.NewIntResult(0, errors.New("connection refused"))
	}
	f.messages = append(f.messages, channel+":"+string(message.([]byte)))
	return goredis.NewIntResult(1, nil)
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func (f *fakeRedis) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func TestRedisPublisher_PublishesJSON(t *testing.T) {
	rdb := &fakeRedis{}
	p := newRedisPublisher(rdb, "feeds", 8, logging.NewNoopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	ev := New(TypeValueUpdated, "BTC-USD", 4, time.Unix(1_700_000_000, 0))
	ev.Answer = "10100000000"
	p.Publish(ev)

	require.Eventually(t, func() bool { return rdb.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	rdb.mu.Lock()
	msg := rdb.messages[0]
	rdb.mu.Unlock()
	require.Contains(t, msg, "feeds:")

	var decoded Event
	require.NoError(t, json.Unmarshal([]byte(msg[len("feeds:"):]), &decoded))
	assert.Equal(t, TypeValueUpdated, decoded.Type)
	assert.Equal(t, "10100000000", decoded.Answer)
	assert.Equal(t, uint64(4), decoded.RoundID)

	require.NoError(t, p.Close())
	assert.True(t, rdb.closed)
	require.ErrorIs(t, p.Run(context.Background()), ErrPublisherClosed)
}

func TestRedisPublisher_DropsWhenFull(t *testing.T) {
	rdb := &fakeRedis{}
	p := newRedisPublisher(rdb, "", 1, logging.NewNoopLogger())

	p.Publish(New(TypeRoundOpened, "a", 1, time.Now()))
	p.Publish(New(TypeRoundOpened, "a", 2, time.Now()))

	assert.Len(t, p.queue, 1)
	assert.Equal(t, "oracle-rounds", p.channel)
}

func TestRedisPublisher_DrainsOnShutdown(t *testing.T) {
	rdb := &fakeRedis{}
	p := newRedisPublisher(rdb, "c", 4, logging.NewNoopLogger())
	p.Publish(New(TypeRoundOpened, "a", 1, time.Now()))
	p.Publish(New(TypeRoundOpened, "a", 2, time.Now()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// With ctx already canceled, Run may pick either branch first; both paths deliver all queued events.
	_ = p.Run(ctx)
	assert.Equal(t, 2, rdb.count())
}
