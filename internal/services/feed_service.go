package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mattkerbyy/bubbly/backend/internal/feed"
	"github.com/mattkerbyy/bubbly/backend/internal/metrics"
	"github.com/mattkerbyy/bubbly/backend/internal/models"
	"github.com/mattkerbyy/bubbly/backend/internal/repositories"
)

type FeedService struct {
	posts     repositories.PostRepository
	shares    repositories.ShareRepository
	reactions repositories.ReactionRepository
	users     repositories.UserRepository
	follows   repositories.FollowRepository
	metrics   *metrics.Metrics
}

func NewFeedService(posts repositories.PostRepository, shares repositories.ShareRepository, reactions repositories.ReactionRepository,
	users repositories.UserRepository, follows repositories.FollowRepository, m *metrics.Metrics) *FeedService {
	return &FeedService{posts: posts, shares: shares, reactions: reactions, users: users, follows: follows, metrics: m}
}

// GetFeed builds one page of the viewer's timeline. It loads a bounded
// working set of recent posts (all authors) and recent shares (viewer and
// followed users only), filters by audience, ranks and slices. Page totals
// come from the unfiltered counts.
func (s *FeedService) GetFeed(ctx context.Context, viewerID uint, q models.PageQuery) (*models.FeedPage, error) {
	start := time.Now()

	rel, err := loadRelations(ctx, s.follows, viewerID)
	if err != nil {
		return nil, err
	}
	sharers := make([]uint, 0, len(rel.Following)+1)
	sharers = append(sharers, viewerID)
	for id := range rel.Following {
		sharers = append(sharers, id)
	}

	postLimit, shareLimit := feed.WorkingSet(q.Page, q.Limit)

	var (
		posts       []models.Post
		shares      []models.Share
		totalPosts  int64
		totalShares int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		posts, err = s.posts.GetRecentPosts(gctx, int64(postLimit))
		return err
	})
	g.Go(func() error {
		var err error
		totalPosts, err = s.posts.CountPosts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		shares, err = s.shares.GetRecentSharesByUsers(gctx, sharers, shareLimit)
		return err
	})
	g.Go(func() error {
		var err error
		totalShares, err = s.shares.CountSharesByUsers(gctx, sharers)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load feed: %w", err)
	}

	postIDs := make([]string, 0, len(shares))
	for _, sh := range shares {
		postIDs = append(postIDs, sh.PostID)
	}
	sharedPosts, err := s.posts.GetPostsByIDs(ctx, postIDs)
	if err != nil {
		return nil, fmt.Errorf("load shared posts: %w", err)
	}

	withPosts := make([]feed.ShareWithPost, 0, len(shares))
	allPosts := make([]*models.Post, 0, len(posts)+len(sharedPosts))
	allShares := make([]*models.Share, 0, len(shares))
	for i := range posts {
		allPosts = append(allPosts, &posts[i])
	}
	for i := range shares {
		p := sharedPosts[shares[i].PostID]
		withPosts = append(withPosts, feed.ShareWithPost{Share: shares[i], Post: p})
		allShares = append(allShares, &shares[i])
		if p != nil {
			allPosts = append(allPosts, p)
		}
	}

	d, err := directoryFor(ctx, s.users, s.reactions, viewerID, allPosts, allShares)
	if err != nil {
		return nil, err
	}

	items := feed.Merge(rel, posts, withPosts, d)
	feed.Rank(items, rel)
	page := feed.Paginate(items, q.Page, q.Limit)

	s.metrics.ObserveFeed(len(page), len(posts)+len(shares)-len(items), time.Since(start))

	return &models.FeedPage{
		Items:      page,
		Pagination: feed.NewPagination(q.Page, q.Limit, totalPosts, totalShares),
	}, nil
}
