package models

import "time"

type ReactionType string

const (
	ReactionLike  ReactionType = "Like"
	ReactionHeart ReactionType = "Heart"
	ReactionHaha  ReactionType = "Haha"
	ReactionWow   ReactionType = "Wow"
	ReactionSad   ReactionType = "Sad"
	ReactionAngry ReactionType = "Angry"
)

// ReactionTypes lists every reaction type in display order.
var ReactionTypes = []ReactionType{
	ReactionLike, ReactionHeart, ReactionHaha, ReactionWow, ReactionSad, ReactionAngry,
}

// SubjectType names what a reaction or comment is attached to.
type SubjectType string

const (
	SubjectPost  SubjectType = "post"
	SubjectShare SubjectType = "share"
)

// Reaction is a user's single reaction on a post or share (PostgreSQL).
// SubjectID is the post's ObjectID hex or the share's numeric id.
type Reaction struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	SubjectType SubjectType  `json:"subjectType" gorm:"size:10;not null;uniqueIndex:idx_reaction_subject_user"`
	SubjectID   string       `json:"subjectId" gorm:"size:24;not null;uniqueIndex:idx_reaction_subject_user"`
	UserID      uint         `json:"userId" gorm:"not null;index;uniqueIndex:idx_reaction_subject_user"`
	Type        ReactionType `json:"type" gorm:"size:10;not null"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// ReactRequest defines the request body for reacting to a post or share
type ReactRequest struct {
	Type ReactionType `json:"type" validate:"required,oneof=Like Heart Haha Wow Sad Angry"`
}

// ReactResult is the state after a toggle.
type ReactResult struct {
	UserReaction   *ReactionType `json:"userReaction"`
	ReactionsCount int           `json:"reactionsCount"`
}

// ReactionSummary holds per-type counts for a subject.
type ReactionSummary struct {
	Total  int64                  `json:"total"`
	ByType map[ReactionType]int64 `json:"byType"`
}
