package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type User struct {
	ID                  uint       `json:"id" gorm:"primaryKey"`
	Name                string     `json:"name" gorm:"size:100;not null"`
	Username            string     `json:"username" gorm:"size:50;uniqueIndex;not null"`
	Email               string     `json:"email" gorm:"size:255;uniqueIndex;not null"` // Ensure email is unique across all users
	Password            string     `json:"-"`                                          // Store hashed password, ignore for JSON serialization
	Bio                 *string    `json:"bio"`
	ProfilePicture      *string    `json:"profilePicture"`
	FirebaseUID         *string    `json:"-" gorm:"uniqueIndex"` // Link to Firebase User UID
	ResetTokenHash      *string    `json:"-" gorm:"index"`
	ResetTokenExpiresAt *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// UserCompact is the author/sender shape embedded in posts, shares, comments and notifications.
type UserCompact struct {
	ID             uint    `json:"id"`
	Name           string  `json:"name"`
	Username       string  `json:"username"`
	ProfilePicture *string `json:"profilePicture"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:             u.ID,
		Name:           u.Name,
		Username:       u.Username,
		ProfilePicture: u.ProfilePicture,
	}
}

// UserProfile is what GET /users/:id returns.
type UserProfile struct {
	User
	FollowersCount int64 `json:"followersCount"`
	FollowingCount int64 `json:"followingCount"`
	IsFollowing    bool  `json:"isFollowing"`
	IsOnline       bool  `json:"isOnline"`
}

type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Username string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type SigninRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type UpdateProfileRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=50,alphanum"`
	Bio      *string `json:"bio,omitempty" validate:"omitempty,max=500"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
