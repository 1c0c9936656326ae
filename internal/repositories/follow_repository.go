package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mattkerbyy/bubbly/backend/internal/models"
)

// FollowRepository defines the interface for follow data operations
type FollowRepository interface {
	CreateFollow(ctx context.Context, followerID, followingID uint) error
	DeleteFollow(ctx context.Context, followerID, followingID uint) error
	IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error)
	GetFollowers(ctx context.Context, userID uint, skip, limit int) ([]models.User, int64, error)
	GetFollowing(ctx context.Context, userID uint, skip, limit int) ([]models.User, int64, error)
	GetFollowersCount(ctx context.Context, userID uint) (int64, error)
	GetFollowingCount(ctx context.Context, userID uint) (int64, error)
	GetFollowingIDs(ctx context.Context, userID uint) ([]uint, error)
	GetFollowerIDs(ctx context.Context, userID uint) ([]uint, error)
}

// PostgresFollowRepository implements FollowRepository for PostgreSQL
type PostgresFollowRepository struct {
	db *gorm.DB
}

// NewPostgresFollowRepository creates a new PostgresFollowRepository
func NewPostgresFollowRepository(db *gorm.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{db: db}
}

// CreateFollow inserts the edge. An existing edge yields ErrDuplicate.
func (r *PostgresFollowRepository) CreateFollow(ctx context.Context, followerID, followingID uint) error {
	follow := &models.Follow{FollowerID: followerID, FollowingID: followingID}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(follow)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrDuplicate
	}
	return nil
}

func (r *PostgresFollowRepository) DeleteFollow(ctx context.Context, followerID, followingID uint) error {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresFollowRepository) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresFollowRepository) GetFollowers(ctx context.Context, userID uint, skip, limit int) ([]models.User, int64, error) {
	return r.pageUsers(ctx, "follower_id", "following_id", userID, skip, limit)
}

func (r *PostgresFollowRepository) GetFollowing(ctx context.Context, userID uint, skip, limit int) ([]models.User, int64, error) {
	return r.pageUsers(ctx, "following_id", "follower_id", userID, skip, limit)
}

// pageUsers lists users whose id is in column selectCol of edges where whereCol = userID,
// newest edge first.
func (r *PostgresFollowRepository) pageUsers(ctx context.Context, selectCol, whereCol string, userID uint, skip, limit int) ([]models.User, int64, error) {
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Follow{}).Where(whereCol+" = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := db.Model(&models.User{}).
		Joins("JOIN follows ON follows."+selectCol+" = users.id").
		Where("follows."+whereCol+" = ?", userID).
		Order("follows.created_at DESC").
		Offset(skip).Limit(limit).
		Find(&users).Error
	return users, total, err
}

func (r *PostgresFollowRepository) GetFollowersCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("following_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *PostgresFollowRepository) GetFollowingCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&count).Error
	return count, err
}

// GetFollowingIDs returns the users userID follows.
func (r *PostgresFollowRepository) GetFollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	ids := []uint{}
	err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ?", userID).Pluck("following_id", &ids).Error
	return ids, err
}

// GetFollowerIDs returns the users that follow userID.
func (r *PostgresFollowRepository) GetFollowerIDs(ctx context.Context, userID uint) ([]uint, error) {
	ids := []uint{}
	err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("following_id = ?", userID).Pluck("follower_id", &ids).Error
	return ids, err
}
