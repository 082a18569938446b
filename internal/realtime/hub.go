package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Hub fans processing events out to the owning user's connected websocket
// clients. Events arrive from the Redis subscription; clients register on
// websocket upgrade.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{} // by user ID
	logger  *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[int64]map[*Client]struct{}),
		logger:  logger,
	}
}

// Run consumes processing events from the subscription until ctx is done.
func (h *Hub) Run(ctx context.Context, bus *PubSub) {
	bus.Subscribe(ctx, h.Broadcast)
}

// Register attaches a client to its user's fan-out set.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
}

// Unregister detaches a client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)
}

// Broadcast delivers an event to every connected client of the owning user.
// Slow clients are skipped rather than blocking the fan-out.
func (h *Hub) Broadcast(ev ProcessingEvent) {
	raw, err := json.Marshal(ev)
	if err != nil {
		h.logger.Warn("marshal processing event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[ev.UserID] {
		select {
		case c.send <- raw:
		default:
			h.logger.Warn("dropping event for slow client", zap.Int64("user_id", ev.UserID))
		}
	}
}
