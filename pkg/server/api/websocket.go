package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/StrathCole/oracle-rounds/pkg/logging"
	"github.com/StrathCole/oracle-rounds/pkg/metrics"
	"github.com/StrathCole/oracle-rounds/pkg/server/events"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
)

// Hub streams committed engine events to WebSocket clients. It is an events.Sink.
type Hub struct {
	logger   *logging.Logger
	upgrader websocket.Upgrader

	// Client management
	mu      sync.RWMutex
	clients map[*WebSocketClient]bool

	updates chan events.Event
}

var _ events.Sink = (*Hub)(nil)

// WebSocketClient represents a connected WebSocket client.
type WebSocketClient struct {
	conn          *websocket.Conn
	send          chan []byte
	hub           *Hub
	subscribedAll bool
	feeds         map[string]bool
	mu            sync.RWMutex
}

// WebSocketMessage represents a client message.
type WebSocketMessage struct {
	Type  string   `json:"type"`  // "subscribe", "unsubscribe", "ping"
	Feeds []string `json:"feeds"` // Feed ids; empty or "*" means all
}

// EventMessage is sent to clients for every event.
type EventMessage struct {
	Type  string       `json:"type"` // "event"
	Event events.Event `json:"event"`
}

// NewHub creates a hub with an event buffer of queueSize.
func NewHub(queueSize int, logger *logging.Logger) *Hub {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Hub{
		logger: logger.With("component", "websocket"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				// Allow all origins (configure CORS as needed)
				return true
			},
		},
		clients: make(map[*WebSocketClient]bool),
		updates: make(chan events.Event, queueSize),
	}
}

// Publish queues ev for broadcast. It never blocks; events are dropped when the queue is full.
func (h *Hub) Publish(ev events.Event) {
	select {
	case h.updates <- ev:
	default:
		metrics.RecordEventDropped("websocket")
		h.logger.Warn("Update channel full, dropping event", "type", string(ev.Type), "feed", ev.FeedID)
	}
}

// Run broadcasts queued events until ctx is cancelled, then disconnects all clients.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case ev := <-h.updates:
			h.broadcast(ev)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket upgrades the request and registers the client.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := &WebSocketClient{
		conn:          conn,
		send:          make(chan []byte, 256),
		hub:           h,
		subscribedAll: true, // Subscribe to all by default
		feeds:         make(map[string]bool),
	}

	h.registerClient(client)

	go client.writePump()
	go client.readPump()

	h.logger.Info("New WebSocket client connected", "remote", conn.RemoteAddr().String())
}

func (h *Hub) registerClient(client *WebSocketClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
}

func (h *Hub) unregisterClient(client *WebSocketClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}

// broadcast sends ev to all subscribed clients.
func (h *Hub) broadcast(ev events.Event) {
	data, err := json.Marshal(EventMessage{Type: "event", Event: ev})
	if err != nil {
		h.logger.Error("Failed to marshal event", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if !client.shouldReceive(ev.FeedID) {
			continue
		}
		select {
		case client.send <- data:
		default:
			h.logger.Warn("Client send buffer full, skipping event", "remote", client.conn.RemoteAddr().String())
		}
	}
}

// writePump sends messages to the WebSocket connection.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				// Channel closed
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads messages from the WebSocket connection.
func (c *WebSocketClient) readPump() {
	defer func() {
		c.hub.unregisterClient(c)
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// handleMessage processes client messages.
func (c *WebSocketClient) handleMessage(data []byte) {
	var msg WebSocketMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.hub.logger.Warn("Invalid client message", "error", err)
		return
	}

	switch msg.Type {
	case "subscribe":
		c.subscribe(msg.Feeds)
		c.reply(map[string]interface{}{"type": "subscribed", "feeds": msg.Feeds})
	case "unsubscribe":
		c.unsubscribe(msg.Feeds)
		c.reply(map[string]interface{}{"type": "unsubscribed", "feeds": msg.Feeds})
	case "ping":
		c.reply(map[string]string{"type": "pong"})
	default:
		c.hub.logger.Warn("Unknown message type", "type", msg.Type)
	}
}

func isWildcard(feeds []string) bool {
	return len(feeds) == 0 || (len(feeds) == 1 && feeds[0] == "*")
}

func (c *WebSocketClient) subscribe(feeds []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if isWildcard(feeds) {
		c.subscribedAll = true
		c.feeds = make(map[string]bool)
	} else {
		c.subscribedAll = false
		for _, id := range feeds {
			c.feeds[id] = true
		}
	}

	c.hub.logger.Debug("Client subscribed", "feeds", feeds)
}

func (c *WebSocketClient) unsubscribe(feeds []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if isWildcard(feeds) {
		c.subscribedAll = false
		c.feeds = make(map[string]bool)
	} else {
		for _, id := range feeds {
			delete(c.feeds, id)
		}
	}

	c.hub.logger.Debug("Client unsubscribed", "feeds", feeds)
}

// shouldReceive reports whether the client wants events for feedID.
// Engine-wide events (empty feedID) go to every client with any subscription.
func (c *WebSocketClient) shouldReceive(feedID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.subscribedAll {
		return true
	}
	if feedID == "" {
		return len(c.feeds) > 0
	}
	return c.feeds[feedID]
}

func (c *WebSocketClient) reply(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}

	// send is closed once the client is unregistered
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if !c.hub.clients[c] {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
