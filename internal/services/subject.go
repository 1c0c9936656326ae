package services

import (
	"context"
	"strconv"

	"github.com/mattkerbyy/bubbly/backend/internal/feed"
	"github.com/mattkerbyy/bubbly/backend/internal/models"
	"github.com/mattkerbyy/bubbly/backend/internal/repositories"
)

// subject is a post or share that reactions and comments attach to.
type subject struct {
	Type           models.SubjectType
	ID             string
	OwnerID        uint
	ReactionsCount int
	Post           *models.Post
	Share          *models.Share
}

func (s *subject) notification(t models.NotificationType, senderID uint, content string) *models.Notification {
	n := &models.Notification{Type: t, SenderID: senderID, RecipientID: s.OwnerID, Content: content}
	if s.Share != nil {
		id := s.Share.ID
		n.ShareID = &id
		postID := s.Share.PostID
		n.PostID = &postID
	} else {
		id := s.ID
		n.PostID = &id
	}
	return n
}

// subjects loads posts and shares and applies the audience rules for a viewer.
type subjects struct {
	posts   repositories.PostRepository
	shares  repositories.ShareRepository
	follows repositories.FollowRepository
}

func (r subjects) load(ctx context.Context, viewerID uint, t models.SubjectType, id string) (*subject, error) {
	switch t {
	case models.SubjectPost:
		return r.post(ctx, viewerID, id)
	case models.SubjectShare:
		return r.share(ctx, viewerID, id)
	}
	return nil, validationError("unknown subject type %q", t)
}

func (r subjects) post(ctx context.Context, viewerID uint, id string) (*subject, error) {
	post, err := r.posts.GetPostByID(ctx, id)
	if isNotFound(err) {
		return nil, notFound("Post")
	}
	if err != nil {
		return nil, err
	}
	rel, err := loadRelations(ctx, r.follows, viewerID)
	if err != nil {
		return nil, err
	}
	if !feed.CanViewPost(post, rel) {
		return nil, forbidden("You do not have permission to view this post")
	}
	return &subject{
		Type:           models.SubjectPost,
		ID:             post.ID.Hex(),
		OwnerID:        post.UserID,
		ReactionsCount: post.ReactionsCount,
		Post:           post,
	}, nil
}

func (r subjects) share(ctx context.Context, viewerID uint, id string) (*subject, error) {
	shareID, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return nil, notFound("Share")
	}
	share, err := r.shares.GetShareByID(ctx, uint(shareID))
	if isNotFound(err) {
		return nil, notFound("Share")
	}
	if err != nil {
		return nil, err
	}
	post, err := r.posts.GetPostByID(ctx, share.PostID)
	if isNotFound(err) {
		return nil, notFound("Shared post")
	}
	if err != nil {
		return nil, err
	}
	rel, err := loadRelations(ctx, r.follows, viewerID)
	if err != nil {
		return nil, err
	}
	if !feed.CanViewShare(share, post, rel) {
		return nil, forbidden("You do not have permission to view this share")
	}
	return &subject{
		Type:           models.SubjectShare,
		ID:             shareKey(share.ID),
		OwnerID:        share.UserID,
		ReactionsCount: share.ReactionsCount,
		Post:           post,
		Share:          share,
	}, nil
}

func (r subjects) incrementReactions(ctx context.Context, s *subject, delta int) error {
	if s.Share != nil {
		return r.shares.IncrementCounter(ctx, s.Share.ID, repositories.ShareReactionsCount, delta)
	}
	return r.posts.IncrementCounter(ctx, s.ID, repositories.PostReactionsCount, delta)
}

func (r subjects) incrementComments(ctx context.Context, s *subject, delta int) error {
	if s.Share != nil {
		return r.shares.IncrementCounter(ctx, s.Share.ID, repositories.ShareCommentsCount, delta)
	}
	return r.posts.IncrementCounter(ctx, s.ID, repositories.PostCommentsCount, delta)
}
