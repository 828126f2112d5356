package websocket

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/PI304/PinTalk-API/internal/observability"
)

// Hub multiplexes routing keys onto the sockets currently joined under
// them. Delivery is at-most-once per joined member; a member that leaves
// mid-broadcast simply misses the frame and catches up from the hot cache.
type Hub struct {
	rooms map[string]map[*Client]struct{}
	mu    sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		rooms:  make(map[string]map[*Client]struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Join adds a client under a routing key.
func (h *Hub) Join(key string, client *Client) {
	h.mu.Lock()
	if h.rooms[key] == nil {
		h.rooms[key] = make(map[*Client]struct{})
	}
	h.rooms[key][client] = struct{}{}
	size := len(h.rooms[key])
	h.mu.Unlock()

	log.Info().Str("groupKey", key).Str("clientID", client.ID).Str("userType", client.Session.UserType.String()).Int("groupSize", size).Msg("ws: client joined group")
}

// Leave removes a client; empty groups are dropped.
func (h *Hub) Leave(key string, client *Client) {
	h.mu.Lock()
	if clients, ok := h.rooms[key]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, key)
		}
	}
	h.mu.Unlock()

	log.Info().Str("groupKey", key).Str("clientID", client.ID).Msg("ws: client left group")
}

// Broadcast fans a frame out to every joined member matching the audience
// tag. The role check happens here, server-side; receivers are never
// trusted to drop frames meant for the other side.
func (h *Hub) Broadcast(key string, payload []byte, aud Audience) {
	h.mu.RLock()
	var targets []*Client
	if clients, ok := h.rooms[key]; ok {
		targets = make([]*Client, 0, len(clients))
		for client := range clients {
			if client.Session.wants(aud) {
				targets = append(targets, client)
			}
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		if !client.Enqueue(payload) {
			log.Warn().Str("groupKey", key).Str("clientID", client.ID).Msg("ws: slow consumer, dropping frame")
		}
	}
	observability.BroadcastDelivered(len(targets))
}

// CloseGroup force-closes every member's socket with the given code. Used
// when a room closes: broadcast first, then snap the connections.
func (h *Hub) CloseGroup(key string, code int, reason string) {
	h.mu.RLock()
	var targets []*Client
	for client := range h.rooms[key] {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	for _, client := range targets {
		client.Shutdown(code, reason)
	}
}

// GroupSize reports the number of joined members for a key.
func (h *Hub) GroupSize(key string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[key])
}

// Close shuts every socket down. Only called on process shutdown.
func (h *Hub) Close() {
	h.cancel()

	h.mu.RLock()
	var all []*Client
	for _, clients := range h.rooms {
		for client := range clients {
			all = append(all, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range all {
		client.CloseWithCode(1001, "server shutting down")
	}

	log.Info().Int("clients", len(all)).Msg("ws: hub shutdown completed")
}
