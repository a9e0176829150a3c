package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Hub - registry of live connections keyed by connection id.
type Hub struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	clients map[string]*client
	closed  bool
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger.With("component", "hub"),
		clients: make(map[string]*client),
	}
}

// Send - queues an event for connID. Unknown connections and full buffers drop the event.
func (that *Hub) Send(connID, event string, payload any) {
	log := that.logger.With("method", "Send", "conn_id", connID, "action", event)

	data, err := json.Marshal(outMessage{Action: event, Payload: payload})
	if err != nil {
		log.Error("failed to marshal message", "error", err)
		return
	}

	that.mu.RLock()
	defer that.mu.RUnlock()

	client, ok := that.clients[connID]
	if !ok {
		log.Debug("connection is gone, dropping message")
		return
	}

	select {
	case client.send <- data:
	default:
		log.Warn("send buffer is full, dropping message")
	}
}

// register - adds the client unless the hub was closed.
func (that *Hub) register(client *client) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return false
	}

	that.clients[client.id] = client

	return true
}

// unregister - forgets the client and closes its send channel, which stops its write pump.
func (that *Hub) unregister(client *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if current, ok := that.clients[client.id]; ok && current == client {
		delete(that.clients, client.id)
		close(client.send)
	}
}

// closeAll - closes every underlying connection so read pumps exit and disconnect.
// Later registrations are refused.
func (that *Hub) closeAll() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.closed = true

	for _, client := range that.clients {
		_ = client.conn.Close()
	}
}

func (that *Hub) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.clients)
}
