package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/mattkerbyy/bubbly/backend/internal/models"
)

// Counter columns on shares.
const (
	ShareReactionsCount = "reactions_count"
	ShareCommentsCount  = "comments_count"
)

type ShareRepository interface {
	CreateShare(ctx context.Context, share *models.Share) error
	GetShareByID(ctx context.Context, id uint) (*models.Share, error)
	UpdateShare(ctx context.Context, share *models.Share) error
	DeleteShare(ctx context.Context, id uint) error
	GetRecentSharesByUsers(ctx context.Context, userIDs []uint, limit int) ([]models.Share, error)
	CountSharesByUsers(ctx context.Context, userIDs []uint) (int64, error)
	DeleteSharesByPostID(ctx context.Context, postID string) ([]uint, error)
	IncrementCounter(ctx context.Context, shareID uint, column string, delta int) error
}

type PostgresShareRepository struct {
	db *gorm.DB
}

func NewPostgresShareRepository(db *gorm.DB) *PostgresShareRepository {
	return &PostgresShareRepository{db: db}
}

// CreateShare fails with ErrDuplicate when the user already shared the post.
func (r *PostgresShareRepository) CreateShare(ctx context.Context, share *models.Share) error {
	return translate(r.db.WithContext(ctx).Create(share).Error)
}

func (r *PostgresShareRepository) GetShareByID(ctx context.Context, id uint) (*models.Share, error) {
	var share models.Share
	if err := r.db.WithContext(ctx).First(&share, id).Error; err != nil {
		return nil, translate(err)
	}
	return &share, nil
}

func (r *PostgresShareRepository) UpdateShare(ctx context.Context, share *models.Share) error {
	return r.db.WithContext(ctx).Model(share).
		Select("share_caption", "audience", "updated_at").
		Updates(share).Error
}

func (r *PostgresShareRepository) DeleteShare(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Share{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetRecentSharesByUsers returns the newest shares made by any of userIDs.
func (r *PostgresShareRepository) GetRecentSharesByUsers(ctx context.Context, userIDs []uint, limit int) ([]models.Share, error) {
	shares := []models.Share{}
	if len(userIDs) == 0 {
		return shares, nil
	}
	err := r.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&shares).Error
	return shares, err
}

func (r *PostgresShareRepository) CountSharesByUsers(ctx context.Context, userIDs []uint) (int64, error) {
	var count int64
	if len(userIDs) == 0 {
		return 0, nil
	}
	err := r.db.WithContext(ctx).Model(&models.Share{}).Where("user_id IN ?", userIDs).Count(&count).Error
	return count, err
}

// DeleteSharesByPostID removes every share of a post and returns their ids.
func (r *PostgresShareRepository) DeleteSharesByPostID(ctx context.Context, postID string) ([]uint, error) {
	ids := []uint{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Share{}).Where("post_id = ?", postID).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		return tx.Where("id IN ?", ids).Delete(&models.Share{}).Error
	})
	return ids, err
}

// IncrementCounter adds delta to a counter column, never going below zero.
func (r *PostgresShareRepository) IncrementCounter(ctx context.Context, shareID uint, column string, delta int) error {
	q := r.db.WithContext(ctx).Model(&models.Share{}).Where("id = ?", shareID)
	if delta < 0 {
		q = q.Where(column+" >= ?", -delta)
	}
	return q.UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error
}
