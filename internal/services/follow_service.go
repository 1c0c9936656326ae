package services

import (
	"context"
	"fmt"

	"github.com/mattkerbyy/bubbly/backend/internal/models"
	"github.com/mattkerbyy/bubbly/backend/internal/repositories"
)

type FollowService struct {
	users    repositories.UserRepository
	follows  repositories.FollowRepository
	notifier *NotificationService
}

func NewFollowService(users repositories.UserRepository, follows repositories.FollowRepository, notifier *NotificationService) *FollowService {
	return &FollowService{users: users, follows: follows, notifier: notifier}
}

func (s *FollowService) requireUser(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.users.GetUserByID(ctx, id)
	if isNotFound(err) {
		return nil, notFound("User")
	}
	return u, err
}

func (s *FollowService) Follow(ctx context.Context, followerID, targetID uint) error {
	if followerID == targetID {
		return validationError("You cannot follow yourself")
	}
	if _, err := s.requireUser(ctx, targetID); err != nil {
		return err
	}
	follower, err := s.requireUser(ctx, followerID)
	if err != nil {
		return err
	}

	if err := s.follows.CreateFollow(ctx, followerID, targetID); err != nil {
		if isDuplicate(err) {
			return conflict("You are already following this user")
		}
		return fmt.Errorf("create follow: %w", err)
	}

	s.notifier.Notify(ctx, &models.Notification{
		Type:        models.NotificationFollow,
		SenderID:    followerID,
		RecipientID: targetID,
		Content:     fmt.Sprintf("%s started following you", follower.Name),
	})
	return nil
}

func (s *FollowService) Unfollow(ctx context.Context, followerID, targetID uint) error {
	if err := s.follows.DeleteFollow(ctx, followerID, targetID); err != nil {
		if isNotFound(err) {
			return notFound("Follow relationship")
		}
		return fmt.Errorf("delete follow: %w", err)
	}
	return nil
}

func (s *FollowService) Status(ctx context.Context, viewerID, targetID uint) (*models.FollowStatus, error) {
	if _, err := s.requireUser(ctx, targetID); err != nil {
		return nil, err
	}
	isFollowing, err := s.follows.IsFollowing(ctx, viewerID, targetID)
	if err != nil {
		return nil, err
	}
	followers, err := s.follows.GetFollowersCount(ctx, targetID)
	if err != nil {
		return nil, err
	}
	following, err := s.follows.GetFollowingCount(ctx, targetID)
	if err != nil {
		return nil, err
	}
	return &models.FollowStatus{IsFollowing: isFollowing, FollowersCount: followers, FollowingCount: following}, nil
}

func (s *FollowService) Followers(ctx context.Context, userID uint, q models.PageQuery) ([]models.UserCompact, models.Pagination, error) {
	if _, err := s.requireUser(ctx, userID); err != nil {
		return nil, models.Pagination{}, err
	}
	users, total, err := s.follows.GetFollowers(ctx, userID, q.Skip(), q.Limit)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return compactList(users), models.NewPagination(q, total), nil
}

func (s *FollowService) Following(ctx context.Context, userID uint, q models.PageQuery) ([]models.UserCompact, models.Pagination, error) {
	if _, err := s.requireUser(ctx, userID); err != nil {
		return nil, models.Pagination{}, err
	}
	users, total, err := s.follows.GetFollowing(ctx, userID, q.Skip(), q.Limit)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return compactList(users), models.NewPagination(q, total), nil
}

func compactList(users []models.User) []models.UserCompact {
	out := make([]models.UserCompact, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToCompact())
	}
	return out
}
