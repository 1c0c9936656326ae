package models

import "time"

// Follow is a directed follower -> following edge.
type Follow struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FollowerID  uint      `json:"followerId" gorm:"index;uniqueIndex:idx_follower_following"`
	FollowingID uint      `json:"followingId" gorm:"index;uniqueIndex:idx_follower_following"`
	CreatedAt   time.Time `json:"createdAt"`
}

type FollowStatus struct {
	IsFollowing    bool  `json:"isFollowing"`
	FollowersCount int64 `json:"followersCount"`
	FollowingCount int64 `json:"followingCount"`
}
