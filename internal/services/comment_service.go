package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/mattkerbyy/bubbly/backend/internal/models"
	"github.com/mattkerbyy/bubbly/backend/internal/repositories"
	"github.com/mattkerbyy/bubbly/backend/pkg/logger"
)

const maxCommentLength = 1000

type CommentService struct {
	subjects subjects
	comments repositories.CommentRepository
	users    repositories.UserRepository
	notifier *NotificationService
}

func NewCommentService(posts repositories.PostRepository, shares repositories.ShareRepository, follows repositories.FollowRepository,
	comments repositories.CommentRepository, users repositories.UserRepository, notifier *NotificationService) *CommentService {
	return &CommentService{
		subjects: subjects{posts: posts, shares: shares, follows: follows},
		comments: comments,
		users:    users,
		notifier: notifier,
	}
}

func cleanComment(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", validationError("Comment content is required")
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return "", validationError("Comment must be at most %d characters", maxCommentLength)
	}
	return content, nil
}

func (s *CommentService) Add(ctx context.Context, userID uint, t models.SubjectType, id, content string) (*models.CommentView, error) {
	content, err := cleanComment(content)
	if err != nil {
		return nil, err
	}
	subj, err := s.subjects.load(ctx, userID, t, id)
	if err != nil {
		return nil, err
	}
	author, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load author: %w", err)
	}

	comment := &models.Comment{SubjectType: subj.Type, SubjectID: subj.ID, UserID: userID, Content: content}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	if err := s.subjects.incrementComments(ctx, subj, 1); err != nil {
		logger.Warn("failed to increment comments count", zap.String("subject_id", subj.ID), zap.Error(err))
	}

	s.notifier.Notify(ctx, subj.notification(models.NotificationComment, userID,
		fmt.Sprintf("%s commented on your %s", author.Name, subj.Type)))

	return &models.CommentView{Comment: *comment, User: author.ToCompact()}, nil
}

func (s *CommentService) List(ctx context.Context, viewerID uint, t models.SubjectType, id string, q models.PageQuery) ([]models.CommentView, models.Pagination, error) {
	subj, err := s.subjects.load(ctx, viewerID, t, id)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	comments, total, err := s.comments.GetCommentsBySubject(ctx, subj.Type, subj.ID, q.Skip(), q.Limit)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("list comments: %w", err)
	}

	ids := make([]uint, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.UserID)
	}
	authors, err := s.users.GetCompactUsers(ctx, dedupe(ids))
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("list comments: %w", err)
	}

	views := make([]models.CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, models.CommentView{Comment: c, User: compactOf(authors, c.UserID)})
	}
	return views, models.NewPagination(q, total), nil
}

func (s *CommentService) ownComment(ctx context.Context, userID, commentID uint) (*models.Comment, error) {
	comment, err := s.comments.GetCommentByID(ctx, commentID)
	if isNotFound(err) {
		return nil, notFound("Comment")
	}
	if err != nil {
		return nil, err
	}
	if comment.UserID != userID {
		return nil, forbidden("You can only modify your own comments")
	}
	return comment, nil
}

func (s *CommentService) Update(ctx context.Context, userID, commentID uint, content string) (*models.CommentView, error) {
	content, err := cleanComment(content)
	if err != nil {
		return nil, err
	}
	comment, err := s.ownComment(ctx, userID, commentID)
	if err != nil {
		return nil, err
	}
	comment.Content = content
	if err := s.comments.UpdateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	author, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load author: %w", err)
	}
	return &models.CommentView{Comment: *comment, User: author.ToCompact()}, nil
}

func (s *CommentService) Delete(ctx context.Context, userID, commentID uint) error {
	comment, err := s.ownComment(ctx, userID, commentID)
	if err != nil {
		return err
	}
	if err := s.comments.DeleteComment(ctx, commentID); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	subj := &subject{Type: comment.SubjectType, ID: comment.SubjectID}
	if comment.SubjectType == models.SubjectShare {
		share, err := s.subjects.shares.GetShareByID(ctx, parseShareKey(comment.SubjectID))
		if err != nil {
			return nil
		}
		subj.Share = share
	}
	if err := s.subjects.incrementComments(ctx, subj, -1); err != nil {
		logger.Warn("failed to decrement comments count", zap.String("subject_id", subj.ID), zap.Error(err))
	}
	return nil
}

func parseShareKey(id string) uint {
	n, _ := strconv.ParseUint(id, 10, 64)
	return uint(n)
}
