// Package cache keeps hot follow-graph reads in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mattkerbyy/bubbly/backend/internal/repositories"
	"github.com/mattkerbyy/bubbly/backend/pkg/logger"
)

// RelationCache is a FollowRepository that serves the id-set reads used by
// the feed from Redis and drops both users' entries on every follow change.
// With a nil client it passes everything through.
type RelationCache struct {
	repositories.FollowRepository
	client *redis.Client
	ttl    time.Duration
}

func NewRelationCache(repo repositories.FollowRepository, client *redis.Client, ttl time.Duration) *RelationCache {
	return &RelationCache{FollowRepository: repo, client: client, ttl: ttl}
}

func followingKey(userID uint) string { return fmt.Sprintf("relations:following:%d", userID) }
func followersKey(userID uint) string { return fmt.Sprintf("relations:followers:%d", userID) }

// genKey counts invalidations of key. A refill only lands if the count did
// not move while the set was being read from the database.
func genKey(key string) string { return key + ":gen" }

func (c *RelationCache) GetFollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	return c.load(ctx, followingKey(userID), func() ([]uint, error) {
		return c.FollowRepository.GetFollowingIDs(ctx, userID)
	})
}

func (c *RelationCache) GetFollowerIDs(ctx context.Context, userID uint) ([]uint, error) {
	return c.load(ctx, followersKey(userID), func() ([]uint, error) {
		return c.FollowRepository.GetFollowerIDs(ctx, userID)
	})
}

func (c *RelationCache) CreateFollow(ctx context.Context, followerID, followingID uint) error {
	if err := c.FollowRepository.CreateFollow(ctx, followerID, followingID); err != nil {
		return err
	}
	c.Invalidate(ctx, followerID, followingID)
	return nil
}

func (c *RelationCache) DeleteFollow(ctx context.Context, followerID, followingID uint) error {
	if err := c.FollowRepository.DeleteFollow(ctx, followerID, followingID); err != nil {
		return err
	}
	c.Invalidate(ctx, followerID, followingID)
	return nil
}

// Invalidate drops the cached sets of every given user and bumps their
// generations. Failures are logged; entries then expire by TTL.
func (c *RelationCache) Invalidate(ctx context.Context, userIDs ...uint) {
	if c.client == nil || len(userIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(userIDs)*2)
	for _, id := range userIDs {
		keys = append(keys, followingKey(id), followersKey(id))
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Incr(ctx, genKey(key))
		}
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		logger.Warn("relation cache invalidate failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

func (c *RelationCache) load(ctx context.Context, key string, fetch func() ([]uint, error)) ([]uint, error) {
	if c.client == nil {
		return fetch()
	}

	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var ids []uint
		if uErr := json.Unmarshal(data, &ids); uErr == nil {
			return ids, nil
		}
	} else if err != redis.Nil {
		logger.Warn("relation cache read failed", zap.String("key", key), zap.Error(err))
	}

	gen, err := c.client.Get(ctx, genKey(key)).Int64()
	if err != nil && err != redis.Nil {
		logger.Warn("relation cache read failed", zap.String("key", genKey(key)), zap.Error(err))
		return fetch()
	}

	ids, err := fetch()
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(ids)
	if err != nil {
		return ids, nil
	}
	c.fill(ctx, key, gen, payload)
	return ids, nil
}

// fill stores payload under key unless key was invalidated since gen was read.
func (c *RelationCache) fill(ctx context.Context, key string, gen int64, payload []byte) {
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		now, err := tx.Get(ctx, genKey(key)).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if now != gen {
			logger.Debug("relation cache refill skipped", zap.String("key", key))
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, c.ttl)
			return nil
		})
		return err
	}, genKey(key))
	if errors.Is(err, redis.TxFailedErr) {
		logger.Debug("relation cache refill raced an invalidation", zap.String("key", key))
		return
	}
	if err != nil {
		logger.Warn("relation cache write failed", zap.String("key", key), zap.Error(err))
	}
}
