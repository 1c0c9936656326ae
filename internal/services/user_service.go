package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mattkerbyy/bubbly/backend/internal/models"
	"github.com/mattkerbyy/bubbly/backend/internal/repositories"
)

const maxSearchResults = 20

type UserService struct {
	users    repositories.UserRepository
	follows  repositories.FollowRepository
	presence PresenceChecker
}

func NewUserService(users repositories.UserRepository, follows repositories.FollowRepository, presence PresenceChecker) *UserService {
	if presence == nil {
		presence = offlinePresence{}
	}
	return &UserService{users: users, follows: follows, presence: presence}
}

func (s *UserService) load(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if isNotFound(err) {
		return nil, notFound("User")
	}
	return user, err
}

func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	return s.load(ctx, userID)
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint, req models.UpdateProfileRequest) (*models.User, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, validationError("Name cannot be empty")
		}
		user.Name = name
	}
	if req.Username != nil && *req.Username != user.Username {
		existing, err := s.users.GetUserByUsername(ctx, *req.Username)
		if err != nil && !isNotFound(err) {
			return nil, err
		}
		if existing != nil && existing.ID != user.ID {
			return nil, conflict("Username already taken")
		}
		user.Username = *req.Username
	}
	if req.Bio != nil {
		bio := strings.TrimSpace(*req.Bio)
		if bio == "" {
			user.Bio = nil
		} else {
			user.Bio = &bio
		}
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, conflict("Username already taken")
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

// GetUserProfile returns a user with follow counts and the viewer's relation to them.
func (s *UserService) GetUserProfile(ctx context.Context, viewerID, userID uint) (*models.UserProfile, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &models.UserProfile{User: *user, IsOnline: s.presence.IsOnline(userID)}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile.FollowersCount, err = s.follows.GetFollowersCount(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		profile.FollowingCount, err = s.follows.GetFollowingCount(gctx, userID)
		return err
	})
	if viewerID != userID {
		g.Go(func() error {
			var err error
			profile.IsFollowing, err = s.follows.IsFollowing(gctx, viewerID, userID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return profile, nil
}

func (s *UserService) Search(ctx context.Context, query string) ([]models.UserCompact, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, validationError("Search query is required")
	}
	users, err := s.users.SearchUsers(ctx, query, maxSearchResults)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	out := make([]models.UserCompact, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToCompact())
	}
	return out, nil
}

// Status reports whether the user currently holds a realtime connection.
func (s *UserService) Status(ctx context.Context, userID uint) (bool, error) {
	if _, err := s.load(ctx, userID); err != nil {
		return false, err
	}
	return s.presence.IsOnline(userID), nil
}
