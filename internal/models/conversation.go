package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation is a direct-message thread between two users (PostgreSQL).
// Participant1ID is always the smaller id.
type Conversation struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	Participant1ID uint       `json:"participant1Id" gorm:"column:participant1_id;not null;uniqueIndex:idx_conversation_pair"`
	Participant2ID uint       `json:"participant2Id" gorm:"column:participant2_id;not null;index;uniqueIndex:idx_conversation_pair"`
	Unread1        int        `json:"-" gorm:"column:unread1;not null;default:0"`
	Unread2        int        `json:"-" gorm:"column:unread2;not null;default:0"`
	LastMessage    *string    `json:"lastMessage"`
	LastSenderID   *uint      `json:"lastSenderId"`
	LastMessageAt  *time.Time `json:"lastMessageAt" gorm:"index"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// CanonicalPair orders two participant ids.
func CanonicalPair(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}

func (c *Conversation) HasParticipant(userID uint) bool {
	return c.Participant1ID == userID || c.Participant2ID == userID
}

func (c *Conversation) OtherParticipant(userID uint) uint {
	if c.Participant1ID == userID {
		return c.Participant2ID
	}
	return c.Participant1ID
}

func (c *Conversation) UnreadFor(userID uint) int {
	if c.Participant1ID == userID {
		return c.Unread1
	}
	return c.Unread2
}

// ConversationView is one row of GET /conversations.
type ConversationView struct {
	ID            uint        `json:"id"`
	Participant   UserCompact `json:"participant"`
	IsOnline      bool        `json:"isOnline"`
	UnreadCount   int         `json:"unreadCount"`
	LastMessage   *string     `json:"lastMessage"`
	LastSenderID  *uint       `json:"lastSenderId"`
	LastMessageAt *time.Time  `json:"lastMessageAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// Message is a direct message stored in MongoDB
type Message struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ConversationID uint               `json:"conversationId" bson:"conversation_id"`
	SenderID       uint               `json:"senderId" bson:"sender_id"`
	RecipientID    uint               `json:"recipientId" bson:"recipient_id"`
	Content        string             `json:"content" bson:"content"`
	IsRead         bool               `json:"isRead" bson:"is_read"`
	CreatedAt      time.Time          `json:"createdAt" bson:"created_at"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=5000"`
}

// MessageView is a message with its sender, as pushed in new-message events.
type MessageView struct {
	Message
	Sender UserCompact `json:"sender"`
}
