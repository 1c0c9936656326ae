package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/mattkerbyy/bubbly/backend/internal/feed"
	"github.com/mattkerbyy/bubbly/backend/internal/models"
	"github.com/mattkerbyy/bubbly/backend/internal/repositories"
	"github.com/mattkerbyy/bubbly/backend/pkg/logger"
)

const postFilesDir = "posts"

// FileStore persists uploaded media and returns public paths.
type FileStore interface {
	Save(ctx context.Context, dir, originalName string, r io.Reader) (string, error)
	Delete(ctx context.Context, publicPath string) error
}

// Upload is one file attached to a new post.
type Upload struct {
	Filename string
	Content  io.Reader
}

type PostService struct {
	posts     repositories.PostRepository
	shares    repositories.ShareRepository
	reactions repositories.ReactionRepository
	comments  repositories.CommentRepository
	users     repositories.UserRepository
	follows   repositories.FollowRepository
	notifier  *NotificationService
	store     FileStore
}

func NewPostService(posts repositories.PostRepository, shares repositories.ShareRepository, reactions repositories.ReactionRepository,
	comments repositories.CommentRepository, users repositories.UserRepository, follows repositories.FollowRepository,
	notifier *NotificationService, store FileStore) *PostService {
	return &PostService{
		posts:     posts,
		shares:    shares,
		reactions: reactions,
		comments:  comments,
		users:     users,
		follows:   follows,
		notifier:  notifier,
		store:     store,
	}
}

func normalizeContent(content *string) *string {
	if content == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*content)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (s *PostService) view(ctx context.Context, viewerID uint, post *models.Post) (*models.PostView, error) {
	d, err := directoryFor(ctx, s.users, s.reactions, viewerID, []*models.Post{post}, nil)
	if err != nil {
		return nil, err
	}
	return feed.NewPostView(post, d), nil
}

// Create stores the uploads and the post. A post needs text or at least one file.
func (s *PostService) Create(ctx context.Context, userID uint, req models.CreatePostRequest, uploads []Upload) (*models.PostView, error) {
	audience := req.Audience.OrDefault()
	if !audience.Valid() {
		return nil, validationError("Invalid audience")
	}
	if len(uploads) > models.MaxPostFiles {
		return nil, validationError("A post can have at most %d files", models.MaxPostFiles)
	}

	post := &models.Post{
		UserID:   userID,
		Content:  normalizeContent(req.Content),
		Audience: audience,
	}
	if !post.HasBody() && len(uploads) == 0 {
		return nil, validationError("Post must have content or at least one file")
	}

	saved := make([]string, 0, len(uploads))
	for _, u := range uploads {
		p, err := s.store.Save(ctx, postFilesDir, u.Filename, u.Content)
		if err != nil {
			s.removeFiles(ctx, saved)
			return nil, fmt.Errorf("save upload: %w", err)
		}
		saved = append(saved, p)
	}
	post.Files = saved

	if err := s.posts.CreatePost(ctx, post); err != nil {
		s.removeFiles(ctx, saved)
		return nil, fmt.Errorf("create post: %w", err)
	}
	return s.view(ctx, userID, post)
}

func (s *PostService) removeFiles(ctx context.Context, paths []string) {
	for _, p := range paths {
		if err := s.store.Delete(ctx, p); err != nil {
			logger.Warn("failed to remove post file", zap.String("path", p), zap.Error(err))
		}
	}
}

func (s *PostService) load(ctx context.Context, postID string) (*models.Post, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if isNotFound(err) {
		return nil, notFound("Post")
	}
	return post, err
}

func (s *PostService) Get(ctx context.Context, viewerID uint, postID string) (*models.PostView, error) {
	post, err := s.load(ctx, postID)
	if err != nil {
		return nil, err
	}
	rel, err := loadRelations(ctx, s.follows, viewerID)
	if err != nil {
		return nil, err
	}
	if !feed.CanViewPost(post, rel) {
		return nil, forbidden("You do not have permission to view this post")
	}
	return s.view(ctx, viewerID, post)
}

func (s *PostService) owned(ctx context.Context, userID uint, postID string) (*models.Post, error) {
	post, err := s.load(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, forbidden("You can only modify your own posts")
	}
	return post, nil
}

func (s *PostService) Update(ctx context.Context, userID uint, postID string, req models.UpdatePostRequest) (*models.PostView, error) {
	post, err := s.owned(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if req.Content != nil {
		post.Content = normalizeContent(req.Content)
	}
	if req.Audience != "" {
		if !req.Audience.Valid() {
			return nil, validationError("Invalid audience")
		}
		post.Audience = req.Audience
	}
	if !post.HasBody() {
		return nil, validationError("Post must have content or at least one file")
	}
	if err := s.posts.UpdatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return s.view(ctx, userID, post)
}

// Delete removes the post and everything hanging off it: its shares, the
// reactions and comments on both, related notifications and stored files.
func (s *PostService) Delete(ctx context.Context, userID uint, postID string) error {
	post, err := s.owned(ctx, userID, postID)
	if err != nil {
		return err
	}
	if err := s.posts.DeletePost(ctx, postID); err != nil {
		if isNotFound(err) {
			return notFound("Post")
		}
		return fmt.Errorf("delete post: %w", err)
	}

	shareIDs, err := s.shares.DeleteSharesByPostID(ctx, postID)
	if err != nil {
		return fmt.Errorf("delete shares of post: %w", err)
	}
	shareKeys := make([]string, 0, len(shareIDs))
	for _, id := range shareIDs {
		shareKeys = append(shareKeys, shareKey(id))
	}

	for _, step := range []func() error{
		func() error { return s.reactions.DeleteBySubjects(ctx, models.SubjectPost, []string{postID}) },
		func() error { return s.reactions.DeleteBySubjects(ctx, models.SubjectShare, shareKeys) },
		func() error { return s.comments.DeleteBySubjects(ctx, models.SubjectPost, []string{postID}) },
		func() error { return s.comments.DeleteBySubjects(ctx, models.SubjectShare, shareKeys) },
		func() error { return s.notifier.RemoveForPost(ctx, postID, shareIDs) },
	} {
		if err := step(); err != nil {
			return fmt.Errorf("cascade post delete: %w", err)
		}
	}

	s.removeFiles(ctx, post.Files)
	return nil
}

// ListByUser pages through an author's posts that viewerID may see.
func (s *PostService) ListByUser(ctx context.Context, viewerID, authorID uint, q models.PageQuery) ([]models.PostView, models.Pagination, error) {
	if _, err := s.users.GetUserByID(ctx, authorID); err != nil {
		if isNotFound(err) {
			return nil, models.Pagination{}, notFound("User")
		}
		return nil, models.Pagination{}, err
	}

	var audiences []models.Audience
	if viewerID != authorID {
		audiences = []models.Audience{models.AudiencePublic}
		authorFollowsViewer, err := s.follows.IsFollowing(ctx, authorID, viewerID)
		if err != nil {
			return nil, models.Pagination{}, err
		}
		if authorFollowsViewer {
			audiences = append(audiences, models.AudienceFollowing)
		}
	}

	total, err := s.posts.CountPostsByUserID(ctx, authorID, audiences)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("count posts: %w", err)
	}
	posts, err := s.posts.GetPostsByUserID(ctx, authorID, audiences, int64(q.Skip()), int64(q.Limit))
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("list posts: %w", err)
	}

	ptrs := make([]*models.Post, len(posts))
	for i := range posts {
		ptrs[i] = &posts[i]
	}
	d, err := directoryFor(ctx, s.users, s.reactions, viewerID, ptrs, nil)
	if err != nil {
		return nil, models.Pagination{}, err
	}

	views := make([]models.PostView, 0, len(posts))
	for _, p := range ptrs {
		views = append(views, *feed.NewPostView(p, d))
	}
	return views, models.NewPagination(q, total), nil
}
