package models

import "time"

// Share is a re-post of a Mongo post by another user (PostgreSQL).
// PostID may dangle after the post is deleted.
type Share struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	UserID         uint      `json:"userId" gorm:"index;uniqueIndex:idx_share_post_user"`
	PostID         string    `json:"postId" gorm:"size:24;index;uniqueIndex:idx_share_post_user"`
	ShareCaption   *string   `json:"shareCaption"`
	Audience       Audience  `json:"audience" gorm:"size:20;not null"`
	ReactionsCount int       `json:"reactionsCount" gorm:"not null;default:0"`
	CommentsCount  int       `json:"commentsCount" gorm:"not null;default:0"`
	CreatedAt      time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type CreateShareRequest struct {
	ShareCaption *string  `json:"shareCaption" validate:"omitempty,max=2000"`
	Audience     Audience `json:"audience" validate:"omitempty,oneof=Public Following OnlyMe"`
}

type UpdateShareRequest struct {
	ShareCaption *string  `json:"shareCaption,omitempty" validate:"omitempty,max=2000"`
	Audience     Audience `json:"audience,omitempty" validate:"omitempty,oneof=Public Following OnlyMe"`
}
