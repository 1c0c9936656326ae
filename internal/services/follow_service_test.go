package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattkerbyy/bubbly/backend/internal/models"
)

func TestFollowUnfollow(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a, b := e.user(t, "alice"), e.user(t, "bob")
	svc := NewFollowService(e.users, e.follows, e.notifier)

	requireKind(t, svc.Follow(ctx, a.ID, a.ID), ErrValidation)
	requireKind(t, svc.Follow(ctx, a.ID, 999), ErrNotFound)
	requireKind(t, svc.Unfollow(ctx, a.ID, b.ID), ErrNotFound)

	require.NoError(t, svc.Follow(ctx, a.ID, b.ID))
	requireKind(t, svc.Follow(ctx, a.ID, b.ID), ErrConflict)

	status, err := svc.Status(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FollowStatus{IsFollowing: true, FollowersCount: 1, FollowingCount: 0}, *status)

	followers, pg, err := svc.Followers(ctx, b.ID, models.NewPageQuery())
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, "alice", followers[0].Username)
	assert.Equal(t, int64(1), pg.Total)

	following, _, err := svc.Following(ctx, a.ID, models.NewPageQuery())
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, b.ID, following[0].ID)

	ns, _, err := e.notifications.GetByRecipientID(ctx, b.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, ns, 1)
	assert.Equal(t, models.NotificationFollow, ns[0].Type)

	require.NoError(t, svc.Unfollow(ctx, a.ID, b.ID))
	status, err = svc.Status(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, status.IsFollowing)
	assert.Zero(t, status.FollowersCount)
}

func TestNotificationService(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a, b := e.user(t, "alice"), e.user(t, "bob")
	svc := e.notifier

	svc.Notify(ctx, &models.Notification{Type: models.NotificationFollow, SenderID: a.ID, RecipientID: a.ID, Content: "self"})
	assert.Zero(t, e.notificationCount(t, a.ID))

	svc.Notify(ctx, &models.Notification{Type: models.NotificationFollow, SenderID: b.ID, RecipientID: a.ID, Content: "bob followed you"})
	svc.Notify(ctx, &models.Notification{Type: models.NotificationFollow, SenderID: b.ID, RecipientID: a.ID, Content: "again"})

	pushed := e.emitter.to(a.ID, "new-notification")
	require.Len(t, pushed, 2)
	view, ok := pushed[0].(models.NotificationView)
	require.True(t, ok)
	assert.Equal(t, "bob", view.Sender.Username)

	unread, err := svc.UnreadCount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	list, _, err := svc.List(ctx, a.ID, models.NewPageQuery())
	require.NoError(t, err)
	require.Len(t, list, 2)

	requireKind(t, svc.MarkRead(ctx, b.ID, list[0].ID), ErrForbidden)
	requireKind(t, svc.MarkRead(ctx, a.ID, 999), ErrNotFound)
	require.NoError(t, svc.MarkRead(ctx, a.ID, list[0].ID))

	unread, err = svc.UnreadCount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	n, err := svc.MarkAllRead(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	grouped, err := svc.Grouped(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, len(grouped.Today)+len(grouped.Yesterday)+len(grouped.ThisWeek)+len(grouped.Older))

	requireKind(t, svc.Delete(ctx, b.ID, list[1].ID), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, a.ID, list[1].ID))
	assert.Equal(t, int64(1), e.notificationCount(t, a.ID))
}
