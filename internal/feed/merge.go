package feed

import "github.com/mattkerbyy/bubbly/backend/internal/models"

// ShareWithPost pairs a share with its resolved post. Post is nil when the
// post has been deleted.
type ShareWithPost struct {
	Share models.Share
	Post  *models.Post
}

// Directory resolves users and the viewer's own reactions.
type Directory struct {
	Authors        map[uint]models.UserCompact
	PostReactions  map[string]models.ReactionType // by post id hex
	ShareReactions map[uint]models.ReactionType
}

func (d Directory) author(id uint) models.UserCompact {
	if u, ok := d.Authors[id]; ok {
		return u
	}
	return models.UserCompact{ID: id}
}

func (d Directory) postReaction(id string) *models.ReactionType {
	if t, ok := d.PostReactions[id]; ok {
		return &t
	}
	return nil
}

func (d Directory) shareReaction(id uint) *models.ReactionType {
	if t, ok := d.ShareReactions[id]; ok {
		return &t
	}
	return nil
}

// NewPostView builds the viewer-specific shape of a post.
func NewPostView(p *models.Post, d Directory) *models.PostView {
	files := p.Files
	if files == nil {
		files = []string{}
	}
	id := p.ID.Hex()
	return &models.PostView{
		ID:             id,
		Author:         d.author(p.UserID),
		Content:        p.Content,
		Files:          files,
		Audience:       p.Audience,
		ReactionsCount: p.ReactionsCount,
		CommentsCount:  p.CommentsCount,
		SharesCount:    p.SharesCount,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		UserReaction:   d.postReaction(id),
	}
}

// NewShareView builds the viewer-specific shape of a share and its post.
func NewShareView(s *models.Share, p *models.Post, d Directory) *models.ShareView {
	v := &models.ShareView{
		ID:             s.ID,
		User:           d.author(s.UserID),
		ShareCaption:   s.ShareCaption,
		Audience:       s.Audience,
		ReactionsCount: s.ReactionsCount,
		CommentsCount:  s.CommentsCount,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
		UserReaction:   d.shareReaction(s.ID),
	}
	if p != nil {
		v.Post = NewPostView(p, d)
	}
	return v
}

// Merge filters posts and shares through the visibility rules and returns
// tagged feed items in input order (posts first). Shares whose post is gone
// are dropped.
func Merge(rel Relations, posts []models.Post, shares []ShareWithPost, d Directory) []models.FeedItem {
	items := make([]models.FeedItem, 0, len(posts)+len(shares))
	for i := range posts {
		p := &posts[i]
		if !CanViewPost(p, rel) {
			continue
		}
		items = append(items, models.FeedItem{Type: models.FeedItemPost, Post: NewPostView(p, d)})
	}
	for i := range shares {
		s := &shares[i]
		if !CanViewShare(&s.Share, s.Post, rel) {
			continue
		}
		items = append(items, models.FeedItem{Type: models.FeedItemShare, Share: NewShareView(&s.Share, s.Post, d)})
	}
	return items
}
