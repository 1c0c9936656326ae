package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/mattkerbyy/bubbly/backend/internal/models"
)

// ReactionRepository stores one reaction per (subject, user).
type ReactionRepository interface {
	GetReaction(ctx context.Context, subjectType models.SubjectType, subjectID string, userID uint) (*models.Reaction, error)
	CreateReaction(ctx context.Context, reaction *models.Reaction) error
	UpdateReactionType(ctx context.Context, id uint, t models.ReactionType) error
	DeleteReaction(ctx context.Context, id uint) error
	GetUserReactions(ctx context.Context, subjectType models.SubjectType, subjectIDs []string, userID uint) (map[string]models.ReactionType, error)
	CountByType(ctx context.Context, subjectType models.SubjectType, subjectID string) (map[models.ReactionType]int64, error)
	DeleteBySubjects(ctx context.Context, subjectType models.SubjectType, subjectIDs []string) error
}

type PostgresReactionRepository struct {
	db *gorm.DB
}

func NewPostgresReactionRepository(db *gorm.DB) *PostgresReactionRepository {
	return &PostgresReactionRepository{db: db}
}

func (r *PostgresReactionRepository) GetReaction(ctx context.Context, subjectType models.SubjectType, subjectID string, userID uint) (*models.Reaction, error) {
	var reaction models.Reaction
	err := r.db.WithContext(ctx).
		Where("subject_type = ? AND subject_id = ? AND user_id = ?", subjectType, subjectID, userID).
		First(&reaction).Error
	if err != nil {
		return nil, translate(err)
	}
	return &reaction, nil
}

func (r *PostgresReactionRepository) CreateReaction(ctx context.Context, reaction *models.Reaction) error {
	return translate(r.db.WithContext(ctx).Create(reaction).Error)
}

func (r *PostgresReactionRepository) UpdateReactionType(ctx context.Context, id uint, t models.ReactionType) error {
	return r.db.WithContext(ctx).Model(&models.Reaction{}).Where("id = ?", id).Update("type", t).Error
}

func (r *PostgresReactionRepository) DeleteReaction(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Reaction{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetUserReactions returns userID's reaction type per subject id.
func (r *PostgresReactionRepository) GetUserReactions(ctx context.Context, subjectType models.SubjectType, subjectIDs []string, userID uint) (map[string]models.ReactionType, error) {
	out := make(map[string]models.ReactionType, len(subjectIDs))
	if len(subjectIDs) == 0 {
		return out, nil
	}
	var reactions []models.Reaction
	err := r.db.WithContext(ctx).
		Select("subject_id", "type").
		Where("subject_type = ? AND user_id = ? AND subject_id IN ?", subjectType, userID, subjectIDs).
		Find(&reactions).Error
	if err != nil {
		return nil, err
	}
	for _, re := range reactions {
		out[re.SubjectID] = re.Type
	}
	return out, nil
}

func (r *PostgresReactionRepository) CountByType(ctx context.Context, subjectType models.SubjectType, subjectID string) (map[models.ReactionType]int64, error) {
	var rows []struct {
		Type  models.ReactionType
		Count int64
	}
	err := r.db.WithContext(ctx).Model(&models.Reaction{}).
		Select("type, COUNT(*) AS count").
		Where("subject_type = ? AND subject_id = ?", subjectType, subjectID).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[models.ReactionType]int64, len(rows))
	for _, row := range rows {
		out[row.Type] = row.Count
	}
	return out, nil
}

func (r *PostgresReactionRepository) DeleteBySubjects(ctx context.Context, subjectType models.SubjectType, subjectIDs []string) error {
	if len(subjectIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("subject_type = ? AND subject_id IN ?", subjectType, subjectIDs).
		Delete(&models.Reaction{}).Error
}
