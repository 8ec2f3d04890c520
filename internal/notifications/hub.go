package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"unajuda/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max connections per signed-in user
	maxConnsPerUser = 12
	// Max total connections
	maxTotalConns = 10000
	// Max topics one socket may watch
	maxTopicsPerClient = 64
)

var (
	errServerFull   = errors.New("server connection limit reached")
	errUserFull     = errors.New("user connection limit reached")
	errTooManyTopic = errors.New("subscription limit reached")
)

// Hub tracks change-feed sockets. Signed-in sockets are also indexed by user so
// badge notifications reach every device of that user. Anonymous sockets use userID 0.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	topics     map[string]map[*Client]struct{}
	totalConns int
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "change feed" }

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		conns:  make(map[uint]map[*Client]struct{}),
		topics: make(map[string]map[*Client]struct{}),
	}
}

// Register a connection for a given userID. Returns the Client or error if limits exceeded.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.totalConns >= maxTotalConns {
		return nil, errServerFull
	}

	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if userID != 0 && len(m) >= maxConnsPerUser {
		return nil, errUserFull
	}

	client := NewClient(h, conn, userID)
	client.IncomingHandler = h.handleIncoming
	m[client] = struct{}{}
	h.totalConns++
	observability.WebSocketConnectionsTotal.Inc()

	return client, nil
}

// UnregisterClient removes the client and all its subscriptions.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.UserID]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	if len(m) == 0 {
		delete(h.conns, client.UserID)
	}
	h.totalConns--
	observability.WebSocketConnectionsTotal.Dec()

	for key := range client.topics {
		h.removeFromTopic(key, client)
	}
	client.topics = nil
}

func (h *Hub) removeFromTopic(key string, client *Client) {
	subs, ok := h.topics[key]
	if !ok {
		return
	}
	delete(subs, client)
	if len(subs) == 0 {
		delete(h.topics, key)
	}
}

// Subscribe adds a (table, filter) watch for client.
func (h *Hub) Subscribe(client *Client, topic Topic) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := topic.String()
	if _, already := client.topics[key]; already {
		return nil
	}
	if len(client.topics) >= maxTopicsPerClient {
		return errTooManyTopic
	}
	subs, ok := h.topics[key]
	if !ok {
		subs = make(map[*Client]struct{})
		h.topics[key] = subs
	}
	subs[client] = struct{}{}
	client.topics[key] = struct{}{}
	return nil
}

// Unsubscribe removes a watch. Unknown topics are ignored.
func (h *Hub) Unsubscribe(client *Client, topic Topic) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := topic.String()
	delete(client.topics, key)
	h.removeFromTopic(key, client)
}

// SubscriberCount returns how many sockets watch topic.
func (h *Hub) SubscriberCount(topic Topic) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic.String()])
}

// Broadcast sends message to all connections for userID
func (h *Hub) Broadcast(userID uint, message string) {
	if userID == 0 {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.conns[userID]; ok {
		data := []byte(message)
		for c := range clients {
			c.TrySend(data)
		}
	}
}

func (h *Hub) broadcastTopic(key, table, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	subs := h.topics[key]
	if len(subs) == 0 {
		return
	}
	data := []byte(message)
	for c := range subs {
		c.TrySend(data)
	}
	observability.ChangePulses.WithLabelValues(table).Inc()
}

// Dispatch routes a published message to the sockets interested in channel.
func (h *Hub) Dispatch(channel, payload string) {
	if userID, ok := parseUserChannel(channel); ok {
		h.Broadcast(userID, payload)
		return
	}
	if key, ok := parseChangeChannel(channel); ok {
		var ev ChangeEvent
		table := "unknown"
		if err := json.Unmarshal([]byte(payload), &ev); err == nil {
			table = ev.Table
		}
		h.broadcastTopic(key, table, payload)
		return
	}
	slog.Warn("dropping message on unknown channel", slog.String("channel", channel))
}

// StartWiring connects the Notifier to this hub. With Redis every instance receives
// every publish; without it the notifier dispatches in-process.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	n.SetLocalDispatcher(h.Dispatch)
	return n.StartSubscriber(ctx, h.Dispatch)
}

type clientCommand struct {
	Action string `json:"action"`
	Table  string `json:"table"`
	Filter string `json:"filter"`
}

type ackMessage struct {
	Type   string `json:"type"`
	Action string `json:"action,omitempty"`
	Table  string `json:"table,omitempty"`
	Filter string `json:"filter,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (h *Hub) handleIncoming(c *Client, raw []byte) {
	ctx, span := observability.GetTraceLayer().TraceWebSocket(context.Background(), h.Name(), "command")
	defer span.End()

	var cmd clientCommand
	if err := json.Unmarshal(raw, &cmd); err != nil {
		c.sendJSON(ackMessage{Type: EventError, Error: "invalid message"})
		return
	}

	switch cmd.Action {
	case "subscribe", "unsubscribe":
	case "ping":
		c.sendJSON(ackMessage{Type: "pong"})
		return
	default:
		c.sendJSON(ackMessage{Type: EventError, Action: cmd.Action, Error: "unknown action"})
		return
	}

	topic, err := NewTopic(cmd.Table, cmd.Filter)
	if err != nil {
		c.sendJSON(ackMessage{Type: EventError, Action: cmd.Action, Table: cmd.Table, Filter: cmd.Filter, Error: err.Error()})
		return
	}

	if cmd.Action == "unsubscribe" {
		h.Unsubscribe(c, topic)
		c.sendJSON(ackMessage{Type: "unsubscribed", Table: topic.Table, Filter: topic.Filter.String()})
		return
	}

	if err := h.Subscribe(c, topic); err != nil {
		slog.WarnContext(ctx, "subscription rejected", slog.Uint64("user_id", uint64(c.UserID)), slog.String("error", err.Error()))
		c.sendJSON(ackMessage{Type: EventError, Action: cmd.Action, Error: err.Error()})
		return
	}
	c.sendJSON(ackMessage{Type: EventSubscribed, Table: topic.Table, Filter: topic.Filter.String()})
}

// Shutdown gracefully closes all websocket connections
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, userConns := range h.conns {
		for client := range userConns {
			if client.Conn == nil {
				continue
			}
			if err := client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
				slog.Debug("failed to write close message", slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
			}
			_ = client.Conn.Close()
		}
	}
	observability.WebSocketConnectionsTotal.Sub(float64(h.totalConns))
	h.conns = make(map[uint]map[*Client]struct{})
	h.topics = make(map[string]map[*Client]struct{})
	h.totalConns = 0

	return nil
}
