package feed

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mattkerbyy/bubbly/backend/internal/models"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func post(author uint, audience models.Audience, age time.Duration) models.Post {
	content := "hello"
	return models.Post{
		ID:        primitive.NewObjectID(),
		UserID:    author,
		Content:   &content,
		Audience:  audience,
		CreatedAt: base.Add(-age),
	}
}

func share(id, sharer uint, p *models.Post, audience models.Audience, age time.Duration) ShareWithPost {
	return ShareWithPost{
		Share: models.Share{ID: id, UserID: sharer, PostID: p.ID.Hex(), Audience: audience, CreatedAt: base.Add(-age)},
		Post:  p,
	}
}

func TestCanView(t *testing.T) {
	const viewer, author = 1, 2

	tests := []struct {
		name      string
		author    uint
		audience  models.Audience
		following []uint
		followers []uint
		want      bool
	}{
		{"owner sees OnlyMe", viewer, models.AudienceOnlyMe, nil, nil, true},
		{"owner sees Following", viewer, models.AudienceFollowing, nil, nil, true},
		{"public to stranger", author, models.AudiencePublic, nil, nil, true},
		{"OnlyMe hidden from stranger", author, models.AudienceOnlyMe, nil, nil, false},
		{"OnlyMe hidden from follower", author, models.AudienceOnlyMe, []uint{author}, []uint{author}, false},
		{"Following visible when author follows viewer", author, models.AudienceFollowing, nil, []uint{author}, true},
		{"Following hidden when only viewer follows author", author, models.AudienceFollowing, []uint{author}, nil, false},
		{"Following hidden from stranger", author, models.AudienceFollowing, nil, nil, false},
		{"unknown audience hidden", author, models.Audience("Friends"), nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel := NewRelations(viewer, tt.following, tt.followers)
			assert.Equal(t, tt.want, CanView(tt.author, tt.audience, rel))
		})
	}
}

func TestCanViewShare(t *testing.T) {
	rel := NewRelations(1, nil, nil)
	public := post(3, models.AudiencePublic, 0)
	private := post(3, models.AudienceOnlyMe, 0)

	assert.True(t, CanViewShare(&models.Share{UserID: 2, Audience: models.AudiencePublic}, &public, rel))
	assert.False(t, CanViewShare(&models.Share{UserID: 2, Audience: models.AudiencePublic}, &private, rel),
		"public share of a private post stays hidden")
	assert.False(t, CanViewShare(&models.Share{UserID: 2, Audience: models.AudienceOnlyMe}, &public, rel))
	assert.False(t, CanViewShare(&models.Share{UserID: 2, Audience: models.AudiencePublic}, nil, rel),
		"share of a deleted post is hidden")

	// The viewer's own share of their own private post.
	own := post(1, models.AudienceOnlyMe, 0)
	assert.True(t, CanViewShare(&models.Share{UserID: 1, Audience: models.AudienceOnlyMe}, &own, rel))
}

func TestMerge_FiltersAndAnnotates(t *testing.T) {
	const viewer = 1
	rel := NewRelations(viewer, []uint{2}, nil)

	visible := post(2, models.AudiencePublic, time.Minute)
	hidden := post(3, models.AudienceOnlyMe, time.Minute)
	shared := post(4, models.AudiencePublic, time.Hour)

	d := Directory{
		Authors: map[uint]models.UserCompact{
			2: {ID: 2, Username: "bee"},
			4: {ID: 4, Username: "dee"},
		},
		PostReactions:  map[string]models.ReactionType{shared.ID.Hex(): models.ReactionHeart},
		ShareReactions: map[uint]models.ReactionType{10: models.ReactionHaha},
	}

	items := Merge(rel,
		[]models.Post{visible, hidden},
		[]ShareWithPost{
			share(10, 2, &shared, models.AudiencePublic, 0),
			{Share: models.Share{ID: 11, UserID: 2, Audience: models.AudiencePublic}, Post: nil},
		},
		d)

	require.Len(t, items, 2)
	assert.Equal(t, models.FeedItemPost, items[0].Type)
	assert.Equal(t, visible.ID.Hex(), items[0].Post.ID)
	assert.Equal(t, "bee", items[0].Post.Author.Username)
	assert.Nil(t, items[0].Post.UserReaction)
	assert.Equal(t, []string{}, items[0].Post.Files)

	assert.Equal(t, models.FeedItemShare, items[1].Type)
	require.NotNil(t, items[1].Share.UserReaction)
	assert.Equal(t, models.ReactionHaha, *items[1].Share.UserReaction)
	require.NotNil(t, items[1].Share.Post)
	require.NotNil(t, items[1].Share.Post.UserReaction)
	assert.Equal(t, models.ReactionHeart, *items[1].Share.Post.UserReaction)
}

func TestMerge_FollowingAudienceDirection(t *testing.T) {
	const a, b = 1, 2
	bPost := post(b, models.AudienceFollowing, 0)

	// A follows B only: B's Following post does not reach A.
	items := Merge(NewRelations(a, []uint{b}, nil), []models.Post{bPost}, nil, Directory{})
	assert.Empty(t, items)

	// B follows A: it does.
	items = Merge(NewRelations(a, []uint{b}, []uint{b}), []models.Post{bPost}, nil, Directory{})
	require.Len(t, items, 1)
	assert.Equal(t, bPost.ID.Hex(), items[0].Post.ID)
}

func TestRank_FollowedFirstThenRecency(t *testing.T) {
	const viewer = 1
	rel := NewRelations(viewer, []uint{2}, nil)

	strangerNew := post(5, models.AudiencePublic, time.Minute)
	followedOld := post(2, models.AudiencePublic, time.Hour)
	ownMid := post(viewer, models.AudiencePublic, 30*time.Minute)
	strangerPost := post(6, models.AudiencePublic, 2*time.Hour)

	items := Merge(rel,
		[]models.Post{strangerNew, followedOld, ownMid},
		// share by a followed user of a stranger's post: ranked by the sharer
		[]ShareWithPost{share(9, 2, &strangerPost, models.AudiencePublic, 10*time.Minute)},
		Directory{})
	Rank(items, rel)

	require.Len(t, items, 4)
	assert.Equal(t, models.FeedItemShare, items[0].Type)
	assert.Equal(t, ownMid.ID.Hex(), items[1].Post.ID)
	assert.Equal(t, followedOld.ID.Hex(), items[2].Post.ID)
	assert.Equal(t, strangerNew.ID.Hex(), items[3].Post.ID)
}

func TestRank_StableOnEqualTimestamps(t *testing.T) {
	rel := NewRelations(1, nil, nil)
	first := post(7, models.AudiencePublic, time.Minute)
	second := post(8, models.AudiencePublic, time.Minute)
	third := post(9, models.AudiencePublic, time.Minute)

	items := Merge(rel, []models.Post{first, second, third}, nil, Directory{})
	Rank(items, rel)

	assert.Equal(t, first.ID.Hex(), items[0].Post.ID)
	assert.Equal(t, second.ID.Hex(), items[1].Post.ID)
	assert.Equal(t, third.ID.Hex(), items[2].Post.ID)
}

func TestPaginate(t *testing.T) {
	rel := NewRelations(1, nil, nil)
	var posts []models.Post
	for i := 0; i < 5; i++ {
		posts = append(posts, post(2, models.AudiencePublic, time.Duration(i)*time.Minute))
	}
	items := Merge(rel, posts, nil, Directory{})

	assert.Len(t, Paginate(items, 1, 2), 2)
	assert.Len(t, Paginate(items, 3, 2), 1)
	assert.Empty(t, Paginate(items, 4, 2))
	assert.Equal(t, posts[2].ID.Hex(), Paginate(items, 2, 2)[0].Post.ID)

	// Pages whose offset would overflow int come back empty.
	assert.NotPanics(t, func() {
		assert.Empty(t, Paginate(items, math.MaxInt, 50))
		assert.Empty(t, Paginate(items, math.MaxInt/2, 4))
	})
}

func TestWorkingSet(t *testing.T) {
	p, s := WorkingSet(1, 10)
	assert.Equal(t, 30, p)
	assert.Equal(t, 20, s)

	p, s = WorkingSet(3, 10)
	assert.Equal(t, 50, p)
	assert.Equal(t, 40, s)
}

func TestNewPagination_UsesUnfilteredTotals(t *testing.T) {
	// 12 posts and 3 shares exist even if the viewer can see only a handful.
	p := NewPagination(1, 10, 12, 3)
	assert.Equal(t, 1, p.CurrentPage)
	assert.Equal(t, 2, p.TotalPages)
	assert.Equal(t, int64(12), p.TotalPosts)
	assert.Equal(t, int64(3), p.TotalShares)
	assert.True(t, p.HasMore)

	p = NewPagination(2, 10, 12, 3)
	assert.False(t, p.HasMore)
}
