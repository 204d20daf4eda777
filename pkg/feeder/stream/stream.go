package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/StrathCole/oracle-rounds/pkg/logging"
	"github.com/StrathCole/oracle-rounds/pkg/server/events"
	"github.com/StrathCole/oracle-rounds/pkg/version"
)

const maxReconnectWait = 60 * time.Second

// Config holds subscriber configuration.
type Config struct {
	URL           string   // e.g. ws://localhost:8080/ws
	Feeds         []string // Empty subscribes to every feed
	ReconnectWait time.Duration
	MaxRetries    int // Consecutive failed connects before giving up; <= 0 retries forever
	PingInterval  time.Duration
	PongWait      time.Duration
	WriteWait     time.Duration
	Logger        *logging.Logger
}

// Subscriber receives engine events from a server.
type Subscriber struct {
	cfg    Config
	logger *logging.Logger
}

type subscribeMessage struct {
	Type  string   `json:"type"`
	Feeds []string `json:"feeds"`
}

type serverMessage struct {
	Type  string       `json:"type"`
	Event events.Event `json:"event"`
}

// NewSubscriber creates a subscriber, filling in defaults.
func NewSubscriber(cfg Config) *Subscriber {
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 2 * time.Second
	}
	if cfg.PingInterval == 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.PongWait == 0 {
		cfg.PongWait = 60 * time.Second
	}
	if cfg.WriteWait == 0 {
		cfg.WriteWait = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNoopLogger()
	}
	return &Subscriber{cfg: cfg, logger: cfg.Logger.With("component", "stream")}
}

// Run delivers events to handle until ctx is canceled or reconnecting gives up.
// handle runs on the reading goroutine; events arrive in server order.
func (s *Subscriber) Run(ctx context.Context, handle func(events.Event)) error {
	wait := s.cfg.ReconnectWait
	retries := 0
	for {
		connected, err := s.session(ctx, handle)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			retries = 0
			wait = s.cfg.ReconnectWait
		}

		retries++
		if s.cfg.MaxRetries > 0 && retries >= s.cfg.MaxRetries {
			return fmt.Errorf("%w: %w", ErrMaxRetriesExceeded, err)
		}
		s.logger.Warn("Event stream disconnected, retrying", "error", err, "retry", retries, "wait", wait.String())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
		if wait > maxReconnectWait {
			wait = maxReconnectWait
		}
	}
}

// session runs one connection. connected reports whether the handshake succeeded.
func (s *Subscriber) session(ctx context.Context, handle func(events.Event)) (connected bool, err error) {
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	headers := http.Header{}
	headers.Set("User-Agent", version.AgentString())
	conn, _, err := dialer.DialContext(ctx, s.cfg.URL, headers)
	if err != nil {
		return false, err
	}
	defer conn.Close()
	s.logger.Info("Event stream connected", "url", s.cfg.URL, "feeds", s.cfg.Feeds)

	_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteWait))
	if err := conn.WriteJSON(subscribeMessage{Type: "subscribe", Feeds: s.cfg.Feeds}); err != nil {
		return true, fmt.Errorf("subscribe: %w", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go s.keepalive(ctx, conn, done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return true, ctx.Err()
			}
			return true, fmt.Errorf("%w: %w", ErrConnectionLost, err)
		}

		var msg serverMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Warn("Invalid server message", "error", err)
			continue
		}
		if msg.Type == "event" {
			handle(msg.Event)
		}
	}
}

// keepalive pings the server and closes the connection when ctx ends.
func (s *Subscriber) keepalive(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(s.cfg.WriteWait))
			_ = conn.Close()
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.cfg.WriteWait)); err != nil {
				s.logger.Warn("Event stream ping failed", "error", err)
				return
			}
		}
	}
}
