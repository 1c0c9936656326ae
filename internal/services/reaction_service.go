package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mattkerbyy/bubbly/backend/internal/models"
	"github.com/mattkerbyy/bubbly/backend/internal/repositories"
	"github.com/mattkerbyy/bubbly/backend/pkg/logger"
)

type ReactionService struct {
	subjects  subjects
	reactions repositories.ReactionRepository
	users     repositories.UserRepository
	notifier  *NotificationService
}

func NewReactionService(posts repositories.PostRepository, shares repositories.ShareRepository, follows repositories.FollowRepository,
	reactions repositories.ReactionRepository, users repositories.UserRepository, notifier *NotificationService) *ReactionService {
	return &ReactionService{
		subjects:  subjects{posts: posts, shares: shares, follows: follows},
		reactions: reactions,
		users:     users,
		notifier:  notifier,
	}
}

// React toggles userID's reaction on a post or share: no reaction creates
// one, the same type removes it, a different type replaces it.
func (s *ReactionService) React(ctx context.Context, userID uint, t models.SubjectType, id string, reactionType models.ReactionType) (*models.ReactResult, error) {
	if !validReaction(reactionType) {
		return nil, validationError("Invalid reaction type")
	}
	subj, err := s.subjects.load(ctx, userID, t, id)
	if err != nil {
		return nil, err
	}

	existing, err := s.reactions.GetReaction(ctx, subj.Type, subj.ID, userID)
	if err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("load reaction: %w", err)
	}

	count := subj.ReactionsCount
	var current *models.ReactionType

	switch {
	case existing == nil:
		err := s.reactions.CreateReaction(ctx, &models.Reaction{
			SubjectType: subj.Type, SubjectID: subj.ID, UserID: userID, Type: reactionType,
		})
		if isDuplicate(err) {
			return nil, conflict("Reaction is being updated, try again")
		}
		if err != nil {
			return nil, fmt.Errorf("create reaction: %w", err)
		}
		if err := s.subjects.incrementReactions(ctx, subj, 1); err != nil {
			return nil, fmt.Errorf("increment reactions: %w", err)
		}
		count++
		current = &reactionType
		s.notifyOwner(ctx, subj, userID, reactionType)

	case existing.Type == reactionType:
		err := s.reactions.DeleteReaction(ctx, existing.ID)
		if isNotFound(err) {
			// A concurrent toggle already removed the row and owns the decrement.
			fresh, err := s.subjects.load(ctx, userID, t, id)
			if err != nil {
				return nil, err
			}
			return &models.ReactResult{ReactionsCount: fresh.ReactionsCount}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("delete reaction: %w", err)
		}
		if err := s.subjects.incrementReactions(ctx, subj, -1); err != nil {
			return nil, fmt.Errorf("decrement reactions: %w", err)
		}
		count = max(0, count-1)

	default:
		if err := s.reactions.UpdateReactionType(ctx, existing.ID, reactionType); err != nil {
			return nil, fmt.Errorf("update reaction: %w", err)
		}
		current = &reactionType
	}

	return &models.ReactResult{UserReaction: current, ReactionsCount: count}, nil
}

func (s *ReactionService) notifyOwner(ctx context.Context, subj *subject, userID uint, t models.ReactionType) {
	if subj.OwnerID == userID {
		return
	}
	name := "Someone"
	if u, err := s.users.GetUserByID(ctx, userID); err == nil {
		name = u.Name
	} else {
		logger.Debug("reaction notifier could not load user", zap.Uint("user_id", userID), zap.Error(err))
	}
	s.notifier.Notify(ctx, subj.notification(models.NotificationReaction, userID,
		fmt.Sprintf("%s reacted %s to your %s", name, t, subj.Type)))
}

// Summary returns reaction counts per type for a visible subject.
func (s *ReactionService) Summary(ctx context.Context, viewerID uint, t models.SubjectType, id string) (*models.ReactionSummary, error) {
	subj, err := s.subjects.load(ctx, viewerID, t, id)
	if err != nil {
		return nil, err
	}
	counts, err := s.reactions.CountByType(ctx, subj.Type, subj.ID)
	if err != nil {
		return nil, fmt.Errorf("count reactions: %w", err)
	}
	summary := &models.ReactionSummary{ByType: make(map[models.ReactionType]int64, len(models.ReactionTypes))}
	for _, rt := range models.ReactionTypes {
		summary.ByType[rt] = counts[rt]
		summary.Total += counts[rt]
	}
	return summary, nil
}

func validReaction(t models.ReactionType) bool {
	for _, rt := range models.ReactionTypes {
		if rt == t {
			return true
		}
	}
	return false
}
