package repositories

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/mattkerbyy/bubbly/backend/internal/models"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
	GetUserByResetTokenHash(ctx context.Context, hash string) (*models.User, error)
	GetCompactUsers(ctx context.Context, ids []uint) (map[uint]models.UserCompact, error)
	UpdateUser(ctx context.Context, user *models.User) error
	SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error)
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.firstWhere(ctx, "LOWER(email) = ?", strings.ToLower(email))
}

func (r *PostgresUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.firstWhere(ctx, "LOWER(username) = ?", strings.ToLower(username))
}

func (r *PostgresUserRepository) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	return r.firstWhere(ctx, "firebase_uid = ?", firebaseUID)
}

func (r *PostgresUserRepository) GetUserByResetTokenHash(ctx context.Context, hash string) (*models.User, error) {
	return r.firstWhere(ctx, "reset_token_hash = ?", hash)
}

func (r *PostgresUserRepository) firstWhere(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// GetCompactUsers loads the display fields of the given users keyed by id.
// Unknown ids are absent from the result.
func (r *PostgresUserRepository) GetCompactUsers(ctx context.Context, ids []uint) (map[uint]models.UserCompact, error) {
	out := make(map[uint]models.UserCompact, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	err := r.db.WithContext(ctx).
		Select("id", "name", "username", "profile_picture").
		Where("id IN ?", ids).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	for i := range users {
		out[users[i].ID] = users[i].ToCompact()
	}
	return out, nil
}

// UpdateUser updates an existing user in PostgreSQL
func (r *PostgresUserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Save(user).Error)
}

// SearchUsers searches for users by name or username
func (r *PostgresUserRepository) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	var users []models.User
	pattern := "%" + strings.ToLower(query) + "%"
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? OR LOWER(username) LIKE ?", pattern, pattern).
		Order("username ASC").
		Limit(limit).
		Find(&users).Error
	return users, err
}
