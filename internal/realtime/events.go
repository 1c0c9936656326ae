package realtime

import "encoding/json"

// Client -> server events.
const (
	EventTypingStart = "typing-start"
	EventTypingStop  = "typing-stop"
	EventSendMessage = "send-message"
	EventMarkRead    = "mark-read"
)

// Server -> client events.
const (
	EventNewMessage        = "new-message"
	EventUserTyping        = "user-typing"
	EventUserStoppedTyping = "user-stopped-typing"
	EventMessagesRead      = "messages-read"
	EventUserStatus        = "user-status"
	EventOnlineUsers       = "online-users"
	EventNewNotification   = "new-notification"
	EventError             = "error"
)

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Envelope is the frame format in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type ConversationPayload struct {
	ConversationID uint `json:"conversationId"`
}

type SendMessagePayload struct {
	RecipientID uint   `json:"recipientId"`
	Content     string `json:"content"`
}

type TypingPayload struct {
	ConversationID uint `json:"conversationId"`
	UserID         uint `json:"userId"`
}

type MessagesReadPayload struct {
	ConversationID uint `json:"conversationId"`
	ReadBy         uint `json:"readBy"`
}

type UserStatusPayload struct {
	UserID uint   `json:"userId"`
	Status string `json:"status"`
}

type OnlineUsersPayload struct {
	UserIDs []uint `json:"userIds"`
}

type ErrorPayload struct {
	Event   string `json:"event,omitempty"`
	Message string `json:"message"`
}
