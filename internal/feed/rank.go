package feed

import (
	"slices"

	"github.com/mattkerbyy/bubbly/backend/internal/models"
)

// Rank sorts items in place: the viewer's own and followed users' items
// first, newest first within each bucket. Equal keys keep input order.
func Rank(items []models.FeedItem, rel Relations) {
	slices.SortStableFunc(items, func(a, b models.FeedItem) int {
		aw, bw := bucket(a, rel), bucket(b, rel)
		if aw != bw {
			return aw - bw
		}
		return b.CreatedAt().Compare(a.CreatedAt())
	})
}

func bucket(item models.FeedItem, rel Relations) int {
	if rel.IsViewerOrFollowed(item.ActorID()) {
		return 0
	}
	return 1
}

// Skip is the number of ranked items before the requested page.
func Skip(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}

// WorkingSet is how many recent posts and eligible shares are loaded
// before filtering for the requested page.
func WorkingSet(page, limit int) (posts, shares int) {
	skip := Skip(page, limit)
	return skip + limit*3, skip + limit*2
}

// Paginate returns items[skip : skip+limit], clamped to the slice.
func Paginate(items []models.FeedItem, page, limit int) []models.FeedItem {
	if limit <= 0 || page > len(items) {
		return []models.FeedItem{}
	}
	start := Skip(page, limit)
	if start < 0 || start >= len(items) {
		return []models.FeedItem{}
	}
	end := min(start+limit, len(items))
	return items[start:end]
}

// NewPagination derives page metadata from the unfiltered totals, so it can
// overstate what the viewer is allowed to see.
func NewPagination(page, limit int, totalPosts, totalShares int64) models.FeedPagination {
	total := totalPosts + totalShares
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return models.FeedPagination{
		CurrentPage: page,
		TotalPages:  pages,
		TotalPosts:  totalPosts,
		TotalShares: totalShares,
		HasMore:     page < pages,
	}
}
