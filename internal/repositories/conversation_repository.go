package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mattkerbyy/bubbly/backend/internal/models"
)

type ConversationRepository interface {
	GetOrCreateConversation(ctx context.Context, a, b uint) (*models.Conversation, error)
	GetConversationByID(ctx context.Context, id uint) (*models.Conversation, error)
	GetConversationsByUser(ctx context.Context, userID uint) ([]models.Conversation, error)
	RecordMessage(ctx context.Context, conversationID, senderID uint, content string, at time.Time) error
	ClearUnread(ctx context.Context, conversationID, userID uint) error
	GetTotalUnread(ctx context.Context, userID uint) (int64, error)
}

type PostgresConversationRepository struct {
	db *gorm.DB
}

func NewPostgresConversationRepository(db *gorm.DB) *PostgresConversationRepository {
	return &PostgresConversationRepository{db: db}
}

// GetOrCreateConversation returns the conversation between a and b, creating
// it on first use. Concurrent first messages converge on one row.
func (r *PostgresConversationRepository) GetOrCreateConversation(ctx context.Context, a, b uint) (*models.Conversation, error) {
	p1, p2 := models.CanonicalPair(a, b)
	db := r.db.WithContext(ctx)

	conv := &models.Conversation{Participant1ID: p1, Participant2ID: p2}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(conv).Error; err != nil {
		return nil, err
	}

	var existing models.Conversation
	if err := db.Where("participant1_id = ? AND participant2_id = ?", p1, p2).First(&existing).Error; err != nil {
		return nil, translate(err)
	}
	return &existing, nil
}

func (r *PostgresConversationRepository) GetConversationByID(ctx context.Context, id uint) (*models.Conversation, error) {
	var conv models.Conversation
	if err := r.db.WithContext(ctx).First(&conv, id).Error; err != nil {
		return nil, translate(err)
	}
	return &conv, nil
}

// GetConversationsByUser lists userID's conversations, most recent activity first.
func (r *PostgresConversationRepository) GetConversationsByUser(ctx context.Context, userID uint) ([]models.Conversation, error) {
	convs := []models.Conversation{}
	err := r.db.WithContext(ctx).
		Where("participant1_id = ? OR participant2_id = ?", userID, userID).
		Order("updated_at DESC").Order("id DESC").
		Find(&convs).Error
	return convs, err
}

// RecordMessage updates the last-message cache and bumps the recipient's unread counter.
func (r *PostgresConversationRepository) RecordMessage(ctx context.Context, conversationID, senderID uint, content string, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conv models.Conversation
		if err := tx.First(&conv, conversationID).Error; err != nil {
			return translate(err)
		}
		if !conv.HasParticipant(senderID) {
			return errors.New("sender is not a participant")
		}

		unreadCol := "unread2"
		if conv.Participant1ID != senderID {
			unreadCol = "unread1"
		}
		return tx.Model(&models.Conversation{}).Where("id = ?", conversationID).Updates(map[string]interface{}{
			"last_message":    content,
			"last_sender_id":  senderID,
			"last_message_at": at,
			"updated_at":      at,
			unreadCol:         gorm.Expr(unreadCol + " + 1"),
		}).Error
	})
}

func (r *PostgresConversationRepository) ClearUnread(ctx context.Context, conversationID, userID uint) error {
	conv, err := r.GetConversationByID(ctx, conversationID)
	if err != nil {
		return err
	}
	col := "unread2"
	if conv.Participant1ID == userID {
		col = "unread1"
	}
	return r.db.WithContext(ctx).Model(&models.Conversation{}).
		Where("id = ?", conversationID).
		UpdateColumn(col, 0).Error
}

func (r *PostgresConversationRepository) GetTotalUnread(ctx context.Context, userID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Conversation{}).
		Select("COALESCE(SUM(CASE WHEN participant1_id = ? THEN unread1 ELSE unread2 END), 0)", userID).
		Where("participant1_id = ? OR participant2_id = ?", userID, userID).
		Scan(&total).Error
	return total, err
}
