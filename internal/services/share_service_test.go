package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattkerbyy/bubbly/backend/internal/models"
)

func TestShareCreateRules(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a, b, c := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "carol")
	svc := e.shareService()

	private := e.post(t, a.ID, models.AudienceOnlyMe, "mine")
	followers := e.post(t, a.ID, models.AudienceFollowing, "circle")
	public := e.post(t, a.ID, models.AudiencePublic, "world")

	_, err := svc.Create(ctx, b.ID, private.ID.Hex(), models.CreateShareRequest{Audience: models.AudienceOnlyMe})
	requireKind(t, err, ErrForbidden)

	_, err = svc.Create(ctx, a.ID, private.ID.Hex(), models.CreateShareRequest{})
	require.NoError(t, err, "author may share their own private post")

	_, err = svc.Create(ctx, b.ID, followers.ID.Hex(), models.CreateShareRequest{})
	requireKind(t, err, ErrForbidden)

	_, err = svc.Create(ctx, b.ID, "000000000000000000000000", models.CreateShareRequest{})
	requireKind(t, err, ErrNotFound)

	view, err := svc.Create(ctx, b.ID, public.ID.Hex(), models.CreateShareRequest{ShareCaption: strPtr(" look ")})
	require.NoError(t, err)
	assert.Equal(t, "look", *view.ShareCaption)
	assert.Equal(t, models.AudiencePublic, view.Audience)
	assert.Equal(t, "bob", view.User.Username)
	require.NotNil(t, view.Post)
	assert.Equal(t, 1, view.Post.SharesCount)

	_, err = svc.Create(ctx, b.ID, public.ID.Hex(), models.CreateShareRequest{})
	requireKind(t, err, ErrConflict)

	stored, err := e.posts.GetPostByID(ctx, public.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 1, stored.SharesCount)

	ns, _, err := e.notifications.GetByRecipientID(ctx, a.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, ns, 1)
	assert.Equal(t, models.NotificationShare, ns[0].Type)
	assert.Len(t, e.emitter.to(a.ID, "new-notification"), 1)

	_, err = svc.Get(ctx, c.ID, view.ID)
	require.NoError(t, err)
}

func TestShareVisibilityNeedsBothLayers(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a, b, c := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "carol")
	svc := e.shareService()

	// a follows b so b can see a's Following post.
	e.follow(t, a.ID, b.ID)
	p := e.post(t, a.ID, models.AudienceFollowing, "circle")
	share, err := svc.Create(ctx, b.ID, p.ID.Hex(), models.CreateShareRequest{})
	require.NoError(t, err)

	// c passes the share (Public) but not the post.
	_, err = svc.Get(ctx, c.ID, share.ID)
	requireKind(t, err, ErrForbidden)

	e.follow(t, a.ID, c.ID)
	_, err = svc.Get(ctx, c.ID, share.ID)
	require.NoError(t, err)
}

func TestShareUpdateAndDelete(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a, b := e.user(t, "alice"), e.user(t, "bob")
	svc := e.shareService()
	p := e.post(t, a.ID, models.AudiencePublic, "world")

	share, err := svc.Create(ctx, b.ID, p.ID.Hex(), models.CreateShareRequest{})
	require.NoError(t, err)

	_, err = svc.Update(ctx, a.ID, share.ID, models.UpdateShareRequest{ShareCaption: strPtr("x")})
	requireKind(t, err, ErrForbidden)

	updated, err := svc.Update(ctx, b.ID, share.ID, models.UpdateShareRequest{Audience: models.AudienceOnlyMe})
	require.NoError(t, err)
	assert.Equal(t, models.AudienceOnlyMe, updated.Audience)

	_, err = svc.Get(ctx, a.ID, share.ID)
	requireKind(t, err, ErrForbidden)

	_, err = e.reactionService().React(ctx, b.ID, models.SubjectShare, shareKey(share.ID), models.ReactionWow)
	require.NoError(t, err)

	requireKind(t, svc.Delete(ctx, a.ID, share.ID), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, b.ID, share.ID))

	_, err = svc.Get(ctx, b.ID, share.ID)
	requireKind(t, err, ErrNotFound)

	stored, err := e.posts.GetPostByID(ctx, p.ID.Hex())
	require.NoError(t, err)
	assert.Zero(t, stored.SharesCount)

	var reactions int64
	require.NoError(t, e.db.Model(&models.Reaction{}).Count(&reactions).Error)
	assert.Zero(t, reactions)
}

func TestShareOfDeletedPostIsNotFound(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a, b := e.user(t, "alice"), e.user(t, "bob")
	p := e.post(t, a.ID, models.AudiencePublic, "temp")

	share, err := e.shareService().Create(ctx, b.ID, p.ID.Hex(), models.CreateShareRequest{})
	require.NoError(t, err)
	require.NoError(t, e.posts.DeletePost(ctx, p.ID.Hex()))

	_, err = e.shareService().Get(ctx, b.ID, share.ID)
	requireKind(t, err, ErrNotFound)
	assert.Equal(t, "Shared post not found", err.Error())
}
