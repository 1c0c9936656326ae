package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mattkerbyy/bubbly/backend/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 64 * 1024
	sendBufferSize = 64
)

// Client is one websocket connection.
type Client struct {
	id        string
	userID    uint
	hub       *Hub
	messenger Messenger
	conn      *websocket.Conn
	limiter   *rate.Limiter

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(id string, userID uint, hub *Hub, messenger Messenger, conn *websocket.Conn, limiter *rate.Limiter) *Client {
	return &Client{
		id:        id,
		userID:    userID,
		hub:       hub,
		messenger: messenger,
		conn:      conn,
		limiter:   limiter,
		send:      make(chan []byte, sendBufferSize),
		done:      make(chan struct{}),
	}
}

// enqueue never blocks. A slow client loses events rather than stalling the sender.
func (c *Client) enqueue(event string, frame []byte) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- frame:
		c.hub.metrics.EventOut(event)
	default:
		c.hub.metrics.Dropped("queue_full")
		logger.Debug("dropping realtime event", zap.String("event", event), zap.String("conn_id", c.id))
	}
}

func (c *Client) emit(event string, payload interface{}) {
	frame, err := encode(event, payload)
	if err != nil {
		logger.Error("failed to encode realtime event", zap.String("event", event), zap.Error(err))
		return
	}
	c.enqueue(event, frame)
}

func (c *Client) emitError(event, message string) {
	c.emit(EventError, ErrorPayload{Event: event, Message: message})
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.hub.unregister(c)
	})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// readPump blocks until the connection fails or closes.
func (c *Client) readPump(ctx context.Context) {
	defer c.close()

	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("websocket read failed", zap.String("conn_id", c.id), zap.Error(err))
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
			c.emitError("", "Malformed event")
			continue
		}
		if !c.limiter.Allow() {
			c.hub.metrics.Dropped("rate_limited")
			c.emitError(env.Event, "Too many events, slow down")
			continue
		}
		c.hub.metrics.EventIn(env.Event)
		c.dispatch(ctx, env)
	}
}

func (c *Client) dispatch(ctx context.Context, env Envelope) {
	switch env.Event {
	case EventTypingStart, EventTypingStop:
		var p ConversationPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ConversationID == 0 {
			c.emitError(env.Event, "conversationId is required")
			return
		}
		peer, err := c.messenger.TypingPeer(ctx, c.userID, p.ConversationID)
		if err != nil {
			c.fail(env.Event, err)
			return
		}
		out := EventUserTyping
		if env.Event == EventTypingStop {
			out = EventUserStoppedTyping
		}
		c.hub.EmitToUser(peer, out, TypingPayload{ConversationID: p.ConversationID, UserID: c.userID})

	case EventSendMessage:
		var p SendMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.RecipientID == 0 {
			c.emitError(env.Event, "recipientId and content are required")
			return
		}
		if _, err := c.messenger.Send(ctx, c.userID, p.RecipientID, p.Content); err != nil {
			c.fail(env.Event, err)
		}

	case EventMarkRead:
		var p ConversationPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ConversationID == 0 {
			c.emitError(env.Event, "conversationId is required")
			return
		}
		if err := c.messenger.MarkRead(ctx, c.userID, p.ConversationID); err != nil {
			c.fail(env.Event, err)
		}

	default:
		c.emitError(env.Event, "Unknown event")
	}
}

// fail reports err to the client. Only errors that carry a public message
// are shown verbatim.
func (c *Client) fail(event string, err error) {
	var public interface{ PublicMessage() string }
	if errors.As(err, &public) {
		c.emitError(event, public.PublicMessage())
		return
	}
	logger.Error("realtime event failed", zap.String("event", event), zap.Uint("user_id", c.userID), zap.Error(err))
	c.emitError(event, "Internal server error")
}
