package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mattkerbyy/bubbly/backend/internal/feed"
	"github.com/mattkerbyy/bubbly/backend/internal/models"
	"github.com/mattkerbyy/bubbly/backend/internal/repositories"
	"github.com/mattkerbyy/bubbly/backend/pkg/logger"
)

type ShareService struct {
	shares    repositories.ShareRepository
	posts     repositories.PostRepository
	reactions repositories.ReactionRepository
	comments  repositories.CommentRepository
	users     repositories.UserRepository
	follows   repositories.FollowRepository
	notifier  *NotificationService
}

func NewShareService(shares repositories.ShareRepository, posts repositories.PostRepository, reactions repositories.ReactionRepository,
	comments repositories.CommentRepository, users repositories.UserRepository, follows repositories.FollowRepository,
	notifier *NotificationService) *ShareService {
	return &ShareService{
		shares:    shares,
		posts:     posts,
		reactions: reactions,
		comments:  comments,
		users:     users,
		follows:   follows,
		notifier:  notifier,
	}
}

func normalizeCaption(caption *string) *string {
	if caption == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*caption)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (s *ShareService) view(ctx context.Context, viewerID uint, share *models.Share, post *models.Post) (*models.ShareView, error) {
	d, err := directoryFor(ctx, s.users, s.reactions, viewerID, []*models.Post{post}, []*models.Share{share})
	if err != nil {
		return nil, err
	}
	return feed.NewShareView(share, post, d), nil
}

// Create shares postID as userID. A private post can only be shared by its
// author, whatever audience the share asks for.
func (s *ShareService) Create(ctx context.Context, userID uint, postID string, req models.CreateShareRequest) (*models.ShareView, error) {
	audience := req.Audience.OrDefault()
	if !audience.Valid() {
		return nil, validationError("Invalid audience")
	}

	post, err := s.posts.GetPostByID(ctx, postID)
	if isNotFound(err) {
		return nil, notFound("Post")
	}
	if err != nil {
		return nil, err
	}
	if post.Audience == models.AudienceOnlyMe && post.UserID != userID {
		return nil, forbidden("You cannot share a private post")
	}
	rel, err := loadRelations(ctx, s.follows, userID)
	if err != nil {
		return nil, err
	}
	if !feed.CanViewPost(post, rel) {
		return nil, forbidden("You do not have permission to share this post")
	}

	share := &models.Share{
		UserID:       userID,
		PostID:       post.ID.Hex(),
		ShareCaption: normalizeCaption(req.ShareCaption),
		Audience:     audience,
	}
	if err := s.shares.CreateShare(ctx, share); err != nil {
		if isDuplicate(err) {
			return nil, conflict("You have already shared this post")
		}
		return nil, fmt.Errorf("create share: %w", err)
	}
	if err := s.posts.IncrementCounter(ctx, post.ID.Hex(), repositories.PostSharesCount, 1); err != nil {
		logger.Warn("failed to increment shares count", zap.String("post_id", postID), zap.Error(err))
	} else {
		post.SharesCount++
	}

	sharer, err := s.users.GetUserByID(ctx, userID)
	name := "Someone"
	if err == nil {
		name = sharer.Name
	}
	shareID := share.ID
	pid := post.ID.Hex()
	s.notifier.Notify(ctx, &models.Notification{
		Type:        models.NotificationShare,
		SenderID:    userID,
		RecipientID: post.UserID,
		PostID:      &pid,
		ShareID:     &shareID,
		Content:     fmt.Sprintf("%s shared your post", name),
	})

	return s.view(ctx, userID, share, post)
}

func (s *ShareService) load(ctx context.Context, shareID uint) (*models.Share, error) {
	share, err := s.shares.GetShareByID(ctx, shareID)
	if isNotFound(err) {
		return nil, notFound("Share")
	}
	return share, err
}

// Get returns a share with its post. A share whose post was deleted is gone too.
func (s *ShareService) Get(ctx context.Context, viewerID, shareID uint) (*models.ShareView, error) {
	share, err := s.load(ctx, shareID)
	if err != nil {
		return nil, err
	}
	post, err := s.posts.GetPostByID(ctx, share.PostID)
	if isNotFound(err) {
		return nil, notFound("Shared post")
	}
	if err != nil {
		return nil, err
	}
	rel, err := loadRelations(ctx, s.follows, viewerID)
	if err != nil {
		return nil, err
	}
	if !feed.CanViewShare(share, post, rel) {
		return nil, forbidden("You do not have permission to view this share")
	}
	return s.view(ctx, viewerID, share, post)
}

func (s *ShareService) owned(ctx context.Context, userID, shareID uint) (*models.Share, error) {
	share, err := s.load(ctx, shareID)
	if err != nil {
		return nil, err
	}
	if share.UserID != userID {
		return nil, forbidden("You can only modify your own shares")
	}
	return share, nil
}

func (s *ShareService) Update(ctx context.Context, userID, shareID uint, req models.UpdateShareRequest) (*models.ShareView, error) {
	share, err := s.owned(ctx, userID, shareID)
	if err != nil {
		return nil, err
	}
	if req.ShareCaption != nil {
		share.ShareCaption = normalizeCaption(req.ShareCaption)
	}
	if req.Audience != "" {
		if !req.Audience.Valid() {
			return nil, validationError("Invalid audience")
		}
		share.Audience = req.Audience
	}
	if err := s.shares.UpdateShare(ctx, share); err != nil {
		return nil, fmt.Errorf("update share: %w", err)
	}

	post, err := s.posts.GetPostByID(ctx, share.PostID)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	if post == nil {
		return nil, notFound("Shared post")
	}
	return s.view(ctx, userID, share, post)
}

func (s *ShareService) Delete(ctx context.Context, userID, shareID uint) error {
	share, err := s.owned(ctx, userID, shareID)
	if err != nil {
		return err
	}
	if err := s.shares.DeleteShare(ctx, share.ID); err != nil {
		if isNotFound(err) {
			return notFound("Share")
		}
		return fmt.Errorf("delete share: %w", err)
	}

	key := []string{shareKey(share.ID)}
	if err := s.reactions.DeleteBySubjects(ctx, models.SubjectShare, key); err != nil {
		return fmt.Errorf("cascade share delete: %w", err)
	}
	if err := s.comments.DeleteBySubjects(ctx, models.SubjectShare, key); err != nil {
		return fmt.Errorf("cascade share delete: %w", err)
	}
	if err := s.notifier.repo.DeleteByShareIDs(ctx, []uint{share.ID}); err != nil {
		return fmt.Errorf("cascade share delete: %w", err)
	}
	if err := s.posts.IncrementCounter(ctx, share.PostID, repositories.PostSharesCount, -1); err != nil && !isNotFound(err) {
		logger.Warn("failed to decrement shares count", zap.String("post_id", share.PostID), zap.Error(err))
	}
	return nil
}
