// Package realtime is the websocket side of the app: per-user rooms,
// presence broadcasts and the chat events.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/mattkerbyy/bubbly/backend/internal/metrics"
	"github.com/mattkerbyy/bubbly/backend/internal/models"
	"github.com/mattkerbyy/bubbly/backend/internal/presence"
	"github.com/mattkerbyy/bubbly/backend/pkg/logger"
)

// Messenger is what inbound chat events call into.
type Messenger interface {
	Send(ctx context.Context, senderID, recipientID uint, content string) (*models.MessageView, error)
	MarkRead(ctx context.Context, userID, conversationID uint) error
	TypingPeer(ctx context.Context, userID, conversationID uint) (uint, error)
}

// Hub owns every live connection. Rooms are keyed by user id; a user with
// several tabs open has several clients in one room.
type Hub struct {
	registry *presence.Registry
	metrics  *metrics.Metrics

	// presenceMu orders registry transitions with their user-status
	// broadcasts, so clients see them in the order they happened.
	presenceMu sync.Mutex

	mu    sync.RWMutex
	rooms map[uint]map[string]*Client
	conns int
}

func NewHub(registry *presence.Registry, m *metrics.Metrics) *Hub {
	return &Hub{
		registry: registry,
		metrics:  m,
		rooms:    make(map[uint]map[string]*Client),
	}
}

func encode(event string, payload interface{}) ([]byte, error) {
	return json.Marshal(outbound{Event: event, Data: payload})
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.userID]
	if !ok {
		room = make(map[string]*Client)
		h.rooms[c.userID] = room
	}
	room[c.id] = c
	h.conns++
	h.mu.Unlock()

	h.presenceMu.Lock()
	cameOnline := h.registry.Add(c.userID, c.id)
	c.emit(EventOnlineUsers, OnlineUsersPayload{UserIDs: h.registry.OnlineUserIDs()})
	if cameOnline {
		h.Broadcast(EventUserStatus, UserStatusPayload{UserID: c.userID, Status: StatusOnline})
	}
	h.presenceMu.Unlock()
	h.updateGauges()

	logger.Debug("websocket connected",
		zap.Uint("user_id", c.userID),
		zap.String("conn_id", c.id),
		zap.Bool("came_online", cameOnline))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if room, ok := h.rooms[c.userID]; ok {
		if _, ok := room[c.id]; ok {
			delete(room, c.id)
			h.conns--
		}
		if len(room) == 0 {
			delete(h.rooms, c.userID)
		}
	}
	h.mu.Unlock()

	h.presenceMu.Lock()
	wentOffline := h.registry.Remove(c.userID, c.id)
	if wentOffline {
		h.Broadcast(EventUserStatus, UserStatusPayload{UserID: c.userID, Status: StatusOffline})
	}
	h.presenceMu.Unlock()
	h.updateGauges()

	logger.Debug("websocket disconnected",
		zap.Uint("user_id", c.userID),
		zap.String("conn_id", c.id),
		zap.Bool("went_offline", wentOffline))
}

func (h *Hub) updateGauges() {
	h.mu.RLock()
	conns := h.conns
	h.mu.RUnlock()
	h.metrics.SetRealtime(conns, h.registry.OnlineCount())
}

// EmitToUser queues event for every connection of userID. Offline users
// and full queues drop the event.
func (h *Hub) EmitToUser(userID uint, event string, payload interface{}) {
	frame, err := encode(event, payload)
	if err != nil {
		logger.Error("failed to encode realtime event", zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[userID] {
		c.enqueue(event, frame)
	}
}

// Broadcast queues event for every connected client.
func (h *Hub) Broadcast(event string, payload interface{}) {
	frame, err := encode(event, payload)
	if err != nil {
		logger.Error("failed to encode realtime event", zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, room := range h.rooms {
		for _, c := range room {
			c.enqueue(event, frame)
		}
	}
}

func (h *Hub) IsOnline(userID uint) bool {
	return h.registry.IsOnline(userID)
}

// OnlineUserIDs lists users with at least one live connection.
func (h *Hub) OnlineUserIDs() []uint {
	return h.registry.OnlineUserIDs()
}
