package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/StrathCole/oracle-rounds/pkg/logging"
	"github.com/StrathCole/oracle-rounds/pkg/metrics"
)

// ErrPublisherClosed indicates Run was called on a closed publisher.
var ErrPublisherClosed = errors.New("redis publisher closed")

const defaultQueueSize = 1024

// redisClient is the subset of *goredis.Client the publisher uses.
type redisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
	Close() error
}

// RedisPublisher forwards events to a Redis pub/sub channel from a background worker.
type RedisPublisher struct {
	rdb     redisClient
	channel string
	queue   chan Event
	logger  *logging.Logger
	closed  chan struct{}
}

// RedisConfig configures NewRedisPublisher.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	Channel   string
	QueueSize int
}

// NewRedisPublisher connects to Redis and verifies the connection.
func NewRedisPublisher(ctx context.Context, cfg RedisConfig, logger *logging.Logger) (*RedisPublisher, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr required")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return newRedisPublisher(rdb, cfg.Channel, cfg.QueueSize, logger), nil
}

func newRedisPublisher(rdb redisClient, channel string, queueSize int, logger *logging.Logger) *RedisPublisher {
	if channel == "" {
		channel = "oracle-rounds"
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &RedisPublisher{
		rdb:     rdb,
		channel: channel,
		queue:   make(chan Event, queueSize),
		logger:  logger.With("sink", "redis"),
		closed:  make(chan struct{}),
	}
}

// Publish enqueues ev, dropping it if the queue is full.
func (p *RedisPublisher) Publish(ev Event) {
	select {
	case p.queue <- ev:
	default:
		metrics.RecordEventDropped("redis")
		p.logger.Warn("Event queue full, dropping event", "type", string(ev.Type), "feed", ev.FeedID)
	}
}

// Run publishes queued events until ctx is canceled, then drains what is left.
func (p *RedisPublisher) Run(ctx context.Context) error {
	select {
	case <-p.closed:
		return ErrPublisherClosed
	default:
	}

	for {
		select {
		case <-ctx.Done():
			p.drain()
			return ctx.Err()
		case ev := <-p.queue:
			p.send(ctx, ev)
		}
	}
}

func (p *RedisPublisher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		select {
		case ev := <-p.queue:
			p.send(ctx, ev)
		default:
			return
		}
	}
}

func (p *RedisPublisher) send(ctx context.Context, ev Event) {
	raw, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("Failed to encode event", "error", err)
		return
	}
	if err := p.rdb.Publish(ctx, p.channel, raw).Err(); err != nil {
		metrics.RecordEventDropped("redis")
		p.logger.Warn("Failed to publish event", "type", string(ev.Type), "error", err)
	}
}

// Close closes the Redis client.
func (p *RedisPublisher) Close() error {
	select {
	case <-p.closed:
		return nil
	default:
		close(p.closed)
	}
	return p.rdb.Close()
}
