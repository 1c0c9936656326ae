package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Audience controls who may see a post or share.
type Audience string

const (
	AudiencePublic    Audience = "Public"
	AudienceFollowing Audience = "Following"
	AudienceOnlyMe    Audience = "OnlyMe"
)

func (a Audience) Valid() bool {
	switch a {
	case AudiencePublic, AudienceFollowing, AudienceOnlyMe:
		return true
	}
	return false
}

// OrDefault returns Public for the zero value.
func (a Audience) OrDefault() Audience {
	if a == "" {
		return AudiencePublic
	}
	return a
}

// MaxPostFiles is the number of files a single post may carry.
const MaxPostFiles = 10

// Post represents a social media post stored in MongoDB
type Post struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID         uint               `json:"userId" bson:"user_id"`
	Content        *string            `json:"content" bson:"content,omitempty"`
	Files          []string           `json:"files" bson:"files"`
	Audience       Audience           `json:"audience" bson:"audience"`
	ReactionsCount int                `json:"reactionsCount" bson:"reactions_count"`
	CommentsCount  int                `json:"commentsCount" bson:"comments_count"`
	SharesCount    int                `json:"sharesCount" bson:"shares_count"`
	CreatedAt      time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updated_at"`
}

// HasBody reports whether the post carries text or at least one file.
func (p *Post) HasBody() bool {
	return (p.Content != nil && *p.Content != "") || len(p.Files) > 0
}

// CreatePostRequest is bound from JSON or from the text fields of a multipart form.
// Files only ever come from multipart uploads the server stores itself.
type CreatePostRequest struct {
	Content  *string  `json:"content" form:"content" validate:"omitempty,max=5000"`
	Audience Audience `json:"audience" form:"audience" validate:"omitempty,oneof=Public Following OnlyMe"`
}

type UpdatePostRequest struct {
	Content  *string  `json:"content,omitempty" validate:"omitempty,max=5000"`
	Audience Audience `json:"audience,omitempty" validate:"omitempty,oneof=Public Following OnlyMe"`
}
