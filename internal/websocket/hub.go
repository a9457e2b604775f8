// Package websocket pushes change notifications to connected kiosk and
// phone clients.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/dukerupert/choreweek/internal/effects"
	"github.com/dukerupert/choreweek/internal/model"
	"github.com/dukerupert/choreweek/internal/state"
)

// Message tells clients that an entity changed. Clients refetch what they
// display; Notice is set when the change deserves a toast.
type Message struct {
	Type     string          `json:"type"`
	Entity   string          `json:"entity"`
	ID       string          `json:"id,omitempty"`
	MemberID string          `json:"member_id,omitempty"`
	Notice   *effects.Notice `json:"notice,omitempty"`
}

// NewMessage builds the message for one reducer event.
func NewMessage(ev state.Event, cfg model.Configuration) Message {
	msg := Message{
		Type:     string(ev.Kind),
		Entity:   ev.Entity,
		ID:       ev.EntityID,
		MemberID: ev.MemberID,
	}
	if n, ok := effects.Describe(ev, cfg); ok {
		msg.Notice = &n
	}
	return msg
}

// Hub maintains the set of active clients and broadcasts messages.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger.With("component", "websocket"),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Notify broadcasts every event. It implements tracker.Subscriber.
func (h *Hub) Notify(events []state.Event, cfg model.Configuration) {
	for _, ev := range events {
		h.Broadcast(NewMessage(ev, cfg))
	}
}

// Broadcast sends msg to all clients. A client whose buffer is full misses
// the message and is evicted after maxDropped misses in a row.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	var slow []*Client
	h.mu.RLock()
	for c := range h.clients {
		if !c.offer(data) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("evicting slow client", "remote", c.remote, "type", msg.Type)
		h.Unregister(c)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
