package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/mattkerbyy/bubbly/backend/internal/models"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentByID(ctx context.Context, id uint) (*models.Comment, error)
	GetCommentsBySubject(ctx context.Context, subjectType models.SubjectType, subjectID string, skip, limit int) ([]models.Comment, int64, error)
	UpdateComment(ctx context.Context, comment *models.Comment) error
	DeleteComment(ctx context.Context, id uint) error
	DeleteBySubjects(ctx context.Context, subjectType models.SubjectType, subjectIDs []string) error
}

// PostgresCommentRepository implements CommentRepository for PostgreSQL
type PostgresCommentRepository struct {
	db *gorm.DB
}

// NewPostgresCommentRepository creates a new PostgresCommentRepository
func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

func (r *PostgresCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *PostgresCommentRepository) GetCommentByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return nil, translate(err)
	}
	return &comment, nil
}

// GetCommentsBySubject pages through a subject's comments, oldest first.
func (r *PostgresCommentRepository) GetCommentsBySubject(ctx context.Context, subjectType models.SubjectType, subjectID string, skip, limit int) ([]models.Comment, int64, error) {
	db := r.db.WithContext(ctx)
	const where = "subject_type = ? AND subject_id = ?"

	var total int64
	if err := db.Model(&models.Comment{}).Where(where, subjectType, subjectID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	comments := []models.Comment{}
	err := db.Where(where, subjectType, subjectID).
		Order("created_at ASC").Order("id ASC").
		Offset(skip).Limit(limit).
		Find(&comments).Error
	return comments, total, err
}

func (r *PostgresCommentRepository) UpdateComment(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Save(comment).Error
}

func (r *PostgresCommentRepository) DeleteComment(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Comment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresCommentRepository) DeleteBySubjects(ctx context.Context, subjectType models.SubjectType, subjectIDs []string) error {
	if len(subjectIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("subject_type = ? AND subject_id IN ?", subjectType, subjectIDs).
		Delete(&models.Comment{}).Error
}
