package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// PostView is the outward shape of a post for one viewer.
type PostView struct {
	ID             string        `json:"id"`
	Author         UserCompact   `json:"author"`
	Content        *string       `json:"content"`
	Files          []string      `json:"files"`
	Audience       Audience      `json:"audience"`
	ReactionsCount int           `json:"reactionsCount"`
	CommentsCount  int           `json:"commentsCount"`
	SharesCount    int           `json:"sharesCount"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
	UserReaction   *ReactionType `json:"userReaction"`
}

// ShareView is the outward shape of a share for one viewer.
type ShareView struct {
	ID             uint          `json:"id"`
	User           UserCompact   `json:"user"`
	ShareCaption   *string       `json:"shareCaption"`
	Audience       Audience      `json:"audience"`
	ReactionsCount int           `json:"reactionsCount"`
	CommentsCount  int           `json:"commentsCount"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
	Post           *PostView     `json:"post"`
	UserReaction   *ReactionType `json:"userReaction"`
}

type FeedItemType string

const (
	FeedItemPost  FeedItemType = "post"
	FeedItemShare FeedItemType = "share"
)

// FeedItem is one timeline entry. Exactly one of Post or Share is set,
// matching Type.
type FeedItem struct {
	Type  FeedItemType
	Post  *PostView
	Share *ShareView
}

// ActorID is the post author or the sharer.
func (f FeedItem) ActorID() uint {
	if f.Type == FeedItemShare {
		return f.Share.User.ID
	}
	return f.Post.Author.ID
}

func (f FeedItem) CreatedAt() time.Time {
	if f.Type == FeedItemShare {
		return f.Share.CreatedAt
	}
	return f.Post.CreatedAt
}

// MarshalJSON flattens the item into {"type": ..., <view fields>}.
func (f FeedItem) MarshalJSON() ([]byte, error) {
	switch f.Type {
	case FeedItemPost:
		return json.Marshal(struct {
			Type FeedItemType `json:"type"`
			*PostView
		}{f.Type, f.Post})
	case FeedItemShare:
		return json.Marshal(struct {
			Type FeedItemType `json:"type"`
			*ShareView
		}{f.Type, f.Share})
	}
	return nil, fmt.Errorf("unknown feed item type %q", f.Type)
}

type FeedPagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalPosts  int64 `json:"totalPosts"`
	TotalShares int64 `json:"totalShares"`
	HasMore     bool  `json:"hasMore"`
}

type FeedPage struct {
	Items      []FeedItem
	Pagination FeedPagination
}
