package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattkerbyy/bubbly/backend/internal/auth"
	"github.com/mattkerbyy/bubbly/backend/internal/models"
	"github.com/mattkerbyy/bubbly/backend/internal/presence"
)

type publicErr string

func (e publicErr) Error() string         { return string(e) }
func (e publicErr) PublicMessage() string { return string(e) }

type fakeMessenger struct {
	hub   *Hub
	peers map[uint]uint
}

func (f *fakeMessenger) Send(_ context.Context, senderID, recipientID uint, content string) (*models.MessageView, error) {
	if recipientID == senderID {
		return nil, publicErr("You cannot message yourself")
	}
	view := &models.MessageView{Message: models.Message{SenderID: senderID, RecipientID: recipientID, Content: content}}
	f.hub.EmitToUser(recipientID, EventNewMessage, view)
	f.hub.EmitToUser(senderID, EventNewMessage, view)
	return view, nil
}

func (f *fakeMessenger) MarkRead(_ context.Context, userID, conversationID uint) error {
	return errors.New("database is down")
}

func (f *fakeMessenger) TypingPeer(_ context.Context, userID, conversationID uint) (uint, error) {
	peer, ok := f.peers[userID]
	if !ok {
		return 0, publicErr("Conversation not found")
	}
	return peer, nil
}

type testServer struct {
	srv      *httptest.Server
	hub      *Hub
	registry *presence.Registry
	tokens   *auth.TokenManager
}

func newTestServer(t *testing.T, eventsPerSecond float64) *testServer {
	t.Helper()
	registry := presence.NewRegistry()
	hub := NewHub(registry, nil)
	tokens := auth.NewTokenManager("ws-secret", time.Hour)
	messenger := &fakeMessenger{hub: hub, peers: map[uint]uint{1: 2, 2: 1}}

	e := echo.New()
	NewHandler(hub, tokens, messenger, eventsPerSecond, []string{"*"}).RegisterRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, hub: hub, registry: registry, tokens: tokens}
}

func (s *testServer) url(query string) string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/ws" + query
}

func (s *testServer) dial(t *testing.T, userID uint) *websocket.Conn {
	t.Helper()
	token, err := s.tokens.Generate(&models.User{ID: userID, Email: "u@bubbly.test"})
	require.NoError(t, err)
	conn, _, err := websocket.DefaultDialer.Dial(s.url("?token="+token), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var env Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func expectEvent(t *testing.T, conn *websocket.Conn, event string, into interface{}) {
	t.Helper()
	env := readEvent(t, conn)
	require.Equal(t, event, env.Event, "payload: %s", env.Data)
	if into != nil {
		require.NoError(t, json.Unmarshal(env.Data, into))
	}
}

func send(t *testing.T, conn *websocket.Conn, event string, data interface{}) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Envelope{Event: event, Data: raw}))
}

func TestRejectsMissingOrInvalidToken(t *testing.T) {
	s := newTestServer(t, 10)

	for _, query := range []string{"", "?token=garbage"} {
		_, resp, err := websocket.DefaultDialer.Dial(s.url(query), nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
	assert.Empty(t, s.registry.OnlineUserIDs())
}

func TestAcceptsBearerHeader(t *testing.T) {
	s := newTestServer(t, 10)
	token, err := s.tokens.Generate(&models.User{ID: 7})
	require.NoError(t, err)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, _, err := websocket.DefaultDialer.Dial(s.url(""), header)
	require.NoError(t, err)
	defer conn.Close()

	var online OnlineUsersPayload
	expectEvent(t, conn, EventOnlineUsers, &online)
	assert.Equal(t, []uint{7}, online.UserIDs)
}

func TestPresenceTransitions(t *testing.T) {
	s := newTestServer(t, 10)

	a1 := s.dial(t, 1)
	var online OnlineUsersPayload
	expectEvent(t, a1, EventOnlineUsers, &online)
	assert.Equal(t, []uint{1}, online.UserIDs)
	var status UserStatusPayload
	expectEvent(t, a1, EventUserStatus, &status)
	assert.Equal(t, UserStatusPayload{UserID: 1, Status: StatusOnline}, status)

	// a second tab is not a transition, so a1 sees no status event for it.
	a2 := s.dial(t, 1)
	expectEvent(t, a2, EventOnlineUsers, nil)
	require.Eventually(t, func() bool { return s.registry.ConnectionCount(1) == 2 }, time.Second, 10*time.Millisecond)

	b := s.dial(t, 2)
	expectEvent(t, b, EventOnlineUsers, &online)
	assert.ElementsMatch(t, []uint{1, 2}, online.UserIDs)
	expectEvent(t, a1, EventUserStatus, &status)
	assert.Equal(t, UserStatusPayload{UserID: 2, Status: StatusOnline}, status)

	// closing one of two tabs keeps user 1 online.
	a2.Close()
	require.Eventually(t, func() bool { return s.registry.ConnectionCount(1) == 1 }, time.Second, 10*time.Millisecond)
	assert.True(t, s.hub.IsOnline(1))

	a1.Close()
	require.Eventually(t, func() bool { return !s.hub.IsOnline(1) }, time.Second, 10*time.Millisecond)

	expectEvent(t, b, EventUserStatus, &status) // b's own online broadcast
	assert.Equal(t, uint(2), status.UserID)
	expectEvent(t, b, EventUserStatus, &status)
	assert.Equal(t, UserStatusPayload{UserID: 1, Status: StatusOffline}, status)
}

func TestEmitToUserReachesEveryConnection(t *testing.T) {
	s := newTestServer(t, 10)
	a1, a2 := s.dial(t, 1), s.dial(t, 1)
	require.Eventually(t, func() bool { return s.registry.ConnectionCount(1) == 2 }, time.Second, 10*time.Millisecond)

	s.hub.EmitToUser(1, EventNewNotification, map[string]string{"content": "hello"})
	s.hub.EmitToUser(3, EventNewNotification, map[string]string{"content": "nobody home"})

	for _, conn := range []*websocket.Conn{a1, a2} {
		for {
			env := readEvent(t, conn)
			if env.Event == EventNewNotification {
				assert.JSONEq(t, `{"content":"hello"}`, string(env.Data))
				break
			}
		}
	}
}

func TestTypingAndSendMessage(t *testing.T) {
	s := newTestServer(t, 10)
	a := s.dial(t, 1)
	expectEvent(t, a, EventOnlineUsers, nil)
	expectEvent(t, a, EventUserStatus, nil)
	b := s.dial(t, 2)
	expectEvent(t, b, EventOnlineUsers, nil)
	expectEvent(t, b, EventUserStatus, nil)
	expectEvent(t, a, EventUserStatus, nil)

	send(t, a, EventTypingStart, ConversationPayload{ConversationID: 9})
	var typing TypingPayload
	expectEvent(t, b, EventUserTyping, &typing)
	assert.Equal(t, TypingPayload{ConversationID: 9, UserID: 1}, typing)

	send(t, a, EventTypingStop, ConversationPayload{ConversationID: 9})
	expectEvent(t, b, EventUserStoppedTyping, &typing)

	send(t, a, EventSendMessage, SendMessagePayload{RecipientID: 2, Content: "hey"})
	var msg models.MessageView
	expectEvent(t, b, EventNewMessage, &msg)
	assert.Equal(t, "hey", msg.Content)
	expectEvent(t, a, EventNewMessage, &msg)

	var failure ErrorPayload
	send(t, a, EventSendMessage, SendMessagePayload{RecipientID: 1, Content: "me"})
	expectEvent(t, a, EventError, &failure)
	assert.Equal(t, ErrorPayload{Event: EventSendMessage, Message: "You cannot message yourself"}, failure)

	send(t, a, EventMarkRead, ConversationPayload{ConversationID: 9})
	expectEvent(t, a, EventError, &failure)
	assert.Equal(t, "Internal server error", failure.Message)

	send(t, a, "dance", struct{}{})
	expectEvent(t, a, EventError, &failure)
	assert.Equal(t, "Unknown event", failure.Message)
}

func TestInboundRateLimit(t *testing.T) {
	s := newTestServer(t, 1)
	a := s.dial(t, 1)
	expectEvent(t, a, EventOnlineUsers, nil)
	expectEvent(t, a, EventUserStatus, nil)

	send(t, a, "dance", struct{}{})
	send(t, a, "dance", struct{}{})

	var failure ErrorPayload
	expectEvent(t, a, EventError, &failure)
	assert.Equal(t, "Unknown event", failure.Message)
	expectEvent(t, a, EventError, &failure)
	assert.Equal(t, "Too many events, slow down", failure.Message)
}
