// Package feed holds the pure parts of timeline composition: who may see
// what, merging posts with shares, ranking and paging.
package feed

import "github.com/mattkerbyy/bubbly/backend/internal/models"

// Relations is the viewer's slice of the follow graph.
type Relations struct {
	ViewerID  uint
	Following map[uint]struct{} // users the viewer follows
	Followers map[uint]struct{} // users that follow the viewer
}

func NewRelations(viewerID uint, following, followers []uint) Relations {
	return Relations{
		ViewerID:  viewerID,
		Following: toSet(following),
		Followers: toSet(followers),
	}
}

func toSet(ids []uint) map[uint]struct{} {
	s := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Follows reports whether the viewer follows userID.
func (r Relations) Follows(userID uint) bool {
	_, ok := r.Following[userID]
	return ok
}

// FollowedBy reports whether userID follows the viewer.
func (r Relations) FollowedBy(userID uint) bool {
	_, ok := r.Followers[userID]
	return ok
}

// IsViewerOrFollowed is the ranking bucket test.
func (r Relations) IsViewerOrFollowed(userID uint) bool {
	return userID == r.ViewerID || r.Follows(userID)
}

// CanView evaluates the audience rules in order: owner, Public, OnlyMe, Following.
// A Following item reaches the viewer only when its author follows the viewer.
func CanView(authorID uint, audience models.Audience, rel Relations) bool {
	if authorID == rel.ViewerID {
		return true
	}
	switch audience {
	case models.AudiencePublic:
		return true
	case models.AudienceOnlyMe:
		return false
	case models.AudienceFollowing:
		return rel.FollowedBy(authorID)
	}
	return false
}

// CanViewPost applies CanView to a post.
func CanViewPost(post *models.Post, rel Relations) bool {
	return post != nil && CanView(post.UserID, post.Audience, rel)
}

// CanViewShare requires both the share and the post it points to to be visible.
// A share whose post is gone is never visible.
func CanViewShare(share *models.Share, post *models.Post, rel Relations) bool {
	if share == nil || post == nil {
		return false
	}
	if !CanView(share.UserID, share.Audience, rel) {
		return false
	}
	return CanViewPost(post, rel)
}
