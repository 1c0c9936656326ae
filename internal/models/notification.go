package models

import "time"

type NotificationType string

const (
	NotificationReaction NotificationType = "reaction"
	NotificationComment  NotificationType = "comment"
	NotificationShare    NotificationType = "share"
	NotificationFollow   NotificationType = "follow"
)

// Notification represents a user notification (PostgreSQL)
type Notification struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	Type        NotificationType `json:"type" gorm:"size:20;index"`
	SenderID    uint             `json:"senderId" gorm:"index"`
	RecipientID uint             `json:"recipientId" gorm:"index"`
	PostID      *string          `json:"postId" gorm:"size:24;index"`
	ShareID     *uint            `json:"shareId" gorm:"index"`
	Content     string           `json:"content"`
	IsRead      bool             `json:"isRead" gorm:"default:false;index"`
	CreatedAt   time.Time        `json:"createdAt" gorm:"index"`
}

type NotificationView struct {
	Notification
	Sender UserCompact `json:"sender"`
}

// GroupedNotifications buckets notifications by age relative to now.
type GroupedNotifications struct {
	Today     []NotificationView `json:"today"`
	Yesterday []NotificationView `json:"yesterday"`
	ThisWeek  []NotificationView `json:"thisWeek"`
	Older     []NotificationView `json:"older"`
}
