package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mattkerbyy/bubbly/backend/internal/models"
	"github.com/mattkerbyy/bubbly/backend/internal/realtime"
	"github.com/mattkerbyy/bubbly/backend/internal/repositories"
	"github.com/mattkerbyy/bubbly/backend/pkg/logger"
)

type NotificationService struct {
	repo    repositories.NotificationRepository
	users   repositories.UserRepository
	emitter Emitter
	now     func() time.Time
}

func NewNotificationService(repo repositories.NotificationRepository, users repositories.UserRepository, emitter Emitter) *NotificationService {
	if emitter == nil {
		emitter = noopEmitter{}
	}
	return &NotificationService{repo: repo, users: users, emitter: emitter, now: time.Now}
}

// Notify stores n and pushes it to the recipient. Self-notifications are
// skipped. Failures are logged and never surface to the triggering action.
func (s *NotificationService) Notify(ctx context.Context, n *models.Notification) {
	if n.SenderID == n.RecipientID {
		return
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		logger.Error("failed to create notification",
			zap.String("type", string(n.Type)),
			zap.Uint("recipient_id", n.RecipientID),
			zap.Error(err))
		return
	}

	views, err := s.views(ctx, []models.Notification{*n})
	if err != nil {
		logger.Warn("failed to resolve notification sender", zap.Uint("notification_id", n.ID), zap.Error(err))
		views = []models.NotificationView{{Notification: *n, Sender: models.UserCompact{ID: n.SenderID}}}
	}
	s.emitter.EmitToUser(n.RecipientID, realtime.EventNewNotification, views[0])
}

func (s *NotificationService) views(ctx context.Context, ns []models.Notification) ([]models.NotificationView, error) {
	ids := make([]uint, 0, len(ns))
	for _, n := range ns {
		ids = append(ids, n.SenderID)
	}
	senders, err := s.users.GetCompactUsers(ctx, dedupe(ids))
	if err != nil {
		return nil, err
	}
	out := make([]models.NotificationView, 0, len(ns))
	for _, n := range ns {
		out = append(out, models.NotificationView{Notification: n, Sender: compactOf(senders, n.SenderID)})
	}
	return out, nil
}

func (s *NotificationService) List(ctx context.Context, userID uint, q models.PageQuery) ([]models.NotificationView, models.Pagination, error) {
	ns, total, err := s.repo.GetByRecipientID(ctx, userID, q.Skip(), q.Limit)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("list notifications: %w", err)
	}
	views, err := s.views(ctx, ns)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("list notifications: %w", err)
	}
	return views, models.NewPagination(q, total), nil
}

func (s *NotificationService) Grouped(ctx context.Context, userID uint) (*models.GroupedNotifications, error) {
	today, yesterday, week, older, err := s.repo.GetGrouped(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("group notifications: %w", err)
	}

	all := make([]models.Notification, 0, len(today)+len(yesterday)+len(week)+len(older))
	all = append(append(append(append(all, today...), yesterday...), week...), older...)
	views, err := s.views(ctx, all)
	if err != nil {
		return nil, fmt.Errorf("group notifications: %w", err)
	}

	g := &models.GroupedNotifications{}
	i := 0
	take := func(n int) []models.NotificationView {
		part := views[i : i+n]
		i += n
		return part
	}
	g.Today = take(len(today))
	g.Yesterday = take(len(yesterday))
	g.ThisWeek = take(len(week))
	g.Older = take(len(older))
	return g, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.repo.GetUnreadCount(ctx, userID)
}

func (s *NotificationService) owned(ctx context.Context, userID, id uint) error {
	n, err := s.repo.GetNotificationByID(ctx, id)
	if isNotFound(err) {
		return notFound("Notification")
	}
	if err != nil {
		return err
	}
	if n.RecipientID != userID {
		return forbidden("You cannot modify this notification")
	}
	return nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) error {
	if err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.MarkAsRead(ctx, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, userID, id uint) error {
	if err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.DeleteNotification(ctx, id)
}

// RemoveForPost drops notifications that point at a deleted post or its shares.
func (s *NotificationService) RemoveForPost(ctx context.Context, postID string, shareIDs []uint) error {
	if err := s.repo.DeleteByPostID(ctx, postID); err != nil {
		return err
	}
	return s.repo.DeleteByShareIDs(ctx, shareIDs)
}
