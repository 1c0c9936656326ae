package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/mattkerbyy/bubbly/backend/internal/models"
	"github.com/mattkerbyy/bubbly/backend/internal/realtime"
	"github.com/mattkerbyy/bubbly/backend/internal/repositories"
	"github.com/mattkerbyy/bubbly/backend/pkg/logger"
)

const maxMessageLength = 5000

type MessageService struct {
	conversations repositories.ConversationRepository
	messages      repositories.MessageRepository
	users         repositories.UserRepository
	emitter       Emitter
	presence      PresenceChecker
	now           func() time.Time
}

func NewMessageService(conversations repositories.ConversationRepository, messages repositories.MessageRepository,
	users repositories.UserRepository, emitter Emitter, presence PresenceChecker) *MessageService {
	if emitter == nil {
		emitter = noopEmitter{}
	}
	if presence == nil {
		presence = offlinePresence{}
	}
	return &MessageService{
		conversations: conversations,
		messages:      messages,
		users:         users,
		emitter:       emitter,
		presence:      presence,
		now:           time.Now,
	}
}

// ListConversations returns the user's threads, most recently active first.
func (s *MessageService) ListConversations(ctx context.Context, userID uint) ([]models.ConversationView, error) {
	convs, err := s.conversations.GetConversationsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	ids := make([]uint, 0, len(convs))
	for i := range convs {
		ids = append(ids, convs[i].OtherParticipant(userID))
	}
	peers, err := s.users.GetCompactUsers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	views := make([]models.ConversationView, 0, len(convs))
	for i := range convs {
		c := &convs[i]
		other := c.OtherParticipant(userID)
		views = append(views, models.ConversationView{
			ID:            c.ID,
			Participant:   compactOf(peers, other),
			IsOnline:      s.presence.IsOnline(other),
			UnreadCount:   c.UnreadFor(userID),
			LastMessage:   c.LastMessage,
			LastSenderID:  c.LastSenderID,
			LastMessageAt: c.LastMessageAt,
			UpdatedAt:     c.UpdatedAt,
		})
	}
	return views, nil
}

func (s *MessageService) participantOf(ctx context.Context, userID, conversationID uint) (*models.Conversation, error) {
	conv, err := s.conversations.GetConversationByID(ctx, conversationID)
	if isNotFound(err) {
		return nil, notFound("Conversation")
	}
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, forbidden("You are not a participant in this conversation")
	}
	return conv, nil
}

func (s *MessageService) GetMessages(ctx context.Context, userID, conversationID uint, q models.PageQuery) ([]models.Message, models.Pagination, error) {
	if _, err := s.participantOf(ctx, userID, conversationID); err != nil {
		return nil, models.Pagination{}, err
	}
	msgs, total, err := s.messages.GetMessagesByConversation(ctx, conversationID, int64(q.Skip()), int64(q.Limit))
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("list messages: %w", err)
	}
	return msgs, models.NewPagination(q, total), nil
}

// Send stores a direct message and pushes it to both participants' rooms.
func (s *MessageService) Send(ctx context.Context, senderID, recipientID uint, content string) (*models.MessageView, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validationError("Message content is required")
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return nil, validationError("Message must be at most %d characters", maxMessageLength)
	}
	if senderID == recipientID {
		return nil, validationError("You cannot message yourself")
	}

	users, err := s.users.GetCompactUsers(ctx, []uint{senderID, recipientID})
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	if _, ok := users[recipientID]; !ok {
		return nil, notFound("Recipient")
	}

	conv, err := s.conversations.GetOrCreateConversation(ctx, senderID, recipientID)
	if err != nil {
		return nil, fmt.Errorf("open conversation: %w", err)
	}
	msg := models.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		RecipientID:    recipientID,
		Content:        content,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.messages.CreateMessage(ctx, &msg); err != nil {
		return nil, fmt.Errorf("store message: %w", err)
	}
	if err := s.conversations.RecordMessage(ctx, conv.ID, senderID, content, msg.CreatedAt); err != nil {
		logger.Error("failed to update conversation", zap.Uint("conversation_id", conv.ID), zap.Error(err))
	}

	view := &models.MessageView{Message: msg, Sender: compactOf(users, senderID)}
	s.emitter.EmitToUser(recipientID, realtime.EventNewMessage, view)
	s.emitter.EmitToUser(senderID, realtime.EventNewMessage, view)
	return view, nil
}

// MarkRead clears the reader's unread counter and tells the other participant.
func (s *MessageService) MarkRead(ctx context.Context, userID, conversationID uint) error {
	conv, err := s.participantOf(ctx, userID, conversationID)
	if err != nil {
		return err
	}
	if _, err := s.messages.MarkConversationRead(ctx, conversationID, userID); err != nil {
		return fmt.Errorf("mark messages read: %w", err)
	}
	if err := s.conversations.ClearUnread(ctx, conversationID, userID); err != nil {
		return fmt.Errorf("clear unread: %w", err)
	}
	s.emitter.EmitToUser(conv.OtherParticipant(userID), realtime.EventMessagesRead, realtime.MessagesReadPayload{
		ConversationID: conversationID,
		ReadBy:         userID,
	})
	return nil
}

func (s *MessageService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.conversations.GetTotalUnread(ctx, userID)
}

// TypingPeer returns who should see userID's typing indicator in a conversation.
func (s *MessageService) TypingPeer(ctx context.Context, userID, conversationID uint) (uint, error) {
	conv, err := s.participantOf(ctx, userID, conversationID)
	if err != nil {
		return 0, err
	}
	return conv.OtherParticipant(userID), nil
}
