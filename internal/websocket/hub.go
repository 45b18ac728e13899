package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/dmelo/feirinha/internal/model"
)

// Message is a real-time notification pushed to connected clients. Snapshot
// messages always carry the full ordered contents of the list, never deltas.
type Message struct {
	Type   string       `json:"type"`
	ListID string       `json:"list_id,omitempty"`
	Items  []model.Item `json:"items,omitempty"`
}

// NewSnapshot builds a snapshot message for a list.
func NewSnapshot(listID string, items []model.Item) Message {
	if items == nil {
		items = []model.Item{}
	}
	return Message{Type: "snapshot", ListID: listID, Items: items}
}

// Hub maintains the set of active WebSocket clients, each subscribed to one
// list, and fans snapshots out to the matching subscribers.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// BroadcastSnapshot sends a list snapshot to every client subscribed to that
// list.
func (h *Hub) BroadcastSnapshot(listID string, items []model.Item) {
	data, err := json.Marshal(NewSnapshot(listID, items))
	if err != nil {
		h.logger.Error("marshal snapshot", "list_id", listID, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if c.listID != listID {
			continue
		}
		select {
		case c.send <- data:
		default:
			// Client buffer full — drop message to avoid blocking
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
