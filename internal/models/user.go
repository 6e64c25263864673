package models

import (
	"time"

	"github.com/google/uuid"
)

// User roles. Fresh registrations always start as RoleBasic.
const (
	RoleBasic = "basic"
	RoleAdmin = "admin"
)

// How the account was created. External providers never carry a password.
const (
	LoginTypeEmail  = "email"
	LoginTypeGoogle = "google"
)

type User struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time

	FirstName string
	LastName  string
	Username  string
	Email     string

	HashedPassword  string
	Role            string
	IsEmailVerified bool
	LoginType       string

	// Currently valid refresh token, nil when no session is active.
	// A user has at most one live session: every login overwrites it.
	RefreshToken *string

	// One-time token pairs. Either both set or both nil.
	EmailVerificationToken  *string
	EmailVerificationExpiry *time.Time
	ResetPasswordToken      *string
	ResetPasswordExpiry     *time.Time
}

// PublicUser is the client-facing profile: no credential material.
type PublicUser struct {
	ID              uuid.UUID `json:"id"`
	Username        string    `json:"username"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	LoginType       string    `json:"loginType"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:              u.ID,
		Username:        u.Username,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Email:           u.Email,
		Role:            u.Role,
		IsEmailVerified: u.IsEmailVerified,
		LoginType:       u.LoginType,
	}
}
