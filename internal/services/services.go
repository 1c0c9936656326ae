// Package services holds the application operations behind the HTTP and
// websocket handlers. Services return *Error values for anything a client
// caused and plain wrapped errors for infrastructure failures.
package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/mattkerbyy/bubbly/backend/internal/feed"
	"github.com/mattkerbyy/bubbly/backend/internal/models"
	"github.com/mattkerbyy/bubbly/backend/internal/repositories"
)

// Emitter delivers a realtime event to every connection of a user.
type Emitter interface {
	EmitToUser(userID uint, event string, payload interface{})
}

// PresenceChecker answers whether a user has a live realtime connection.
type PresenceChecker interface {
	IsOnline(userID uint) bool
}

type noopEmitter struct{}

func (noopEmitter) EmitToUser(uint, string, interface{}) {}

type offlinePresence struct{}

func (offlinePresence) IsOnline(uint) bool { return false }

// loadRelations fetches both directions of the viewer's follow graph.
func loadRelations(ctx context.Context, follows repositories.FollowRepository, viewerID uint) (feed.Relations, error) {
	var following, followers []uint
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		following, err = follows.GetFollowingIDs(gctx, viewerID)
		return err
	})
	g.Go(func() error {
		var err error
		followers, err = follows.GetFollowerIDs(gctx, viewerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return feed.Relations{}, fmt.Errorf("load relations: %w", err)
	}
	return feed.NewRelations(viewerID, following, followers), nil
}

// directoryFor resolves authors and the viewer's reactions for a batch of
// posts and shares.
func directoryFor(ctx context.Context, users repositories.UserRepository, reactions repositories.ReactionRepository,
	viewerID uint, posts []*models.Post, shares []*models.Share) (feed.Directory, error) {

	userIDs := make([]uint, 0, len(posts)+len(shares))
	postIDs := make([]string, 0, len(posts))
	shareIDs := make([]string, 0, len(shares))
	for _, p := range posts {
		if p == nil {
			continue
		}
		userIDs = append(userIDs, p.UserID)
		postIDs = append(postIDs, p.ID.Hex())
	}
	for _, s := range shares {
		userIDs = append(userIDs, s.UserID)
		shareIDs = append(shareIDs, shareKey(s.ID))
	}

	var d feed.Directory
	var shareReactions map[string]models.ReactionType
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.Authors, err = users.GetCompactUsers(gctx, dedupe(userIDs))
		return err
	})
	g.Go(func() error {
		var err error
		d.PostReactions, err = reactions.GetUserReactions(gctx, models.SubjectPost, postIDs, viewerID)
		return err
	})
	g.Go(func() error {
		var err error
		shareReactions, err = reactions.GetUserReactions(gctx, models.SubjectShare, shareIDs, viewerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return feed.Directory{}, fmt.Errorf("load directory: %w", err)
	}

	d.ShareReactions = make(map[uint]models.ReactionType, len(shareReactions))
	for _, s := range shares {
		if t, ok := shareReactions[shareKey(s.ID)]; ok {
			d.ShareReactions[s.ID] = t
		}
	}
	return d, nil
}

func shareKey(id uint) string {
	return fmt.Sprint(id)
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func isNotFound(err error) bool {
	return errors.Is(err, repositories.ErrNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, repositories.ErrDuplicate)
}

func compactOf(users map[uint]models.UserCompact, id uint) models.UserCompact {
	if u, ok := users[id]; ok {
		return u
	}
	return models.UserCompact{ID: id}
}
