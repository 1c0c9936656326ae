package models

import "time"

// Comment represents a comment on a post or share
type Comment struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	SubjectType SubjectType `json:"subjectType" gorm:"size:10;not null;index:idx_comment_subject"`
	SubjectID   string      `json:"subjectId" gorm:"size:24;not null;index:idx_comment_subject"` // post ObjectID hex or share id
	UserID      uint        `json:"userId" gorm:"index"`                                          // ID of the user who made the comment
	Content     string      `json:"content" gorm:"type:text;not null"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type CommentView struct {
	Comment
	User UserCompact `json:"user"`
}

type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=1000"`
}

type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=1000"`
}
