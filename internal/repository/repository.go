package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yuvi90/chatapp/internal/models"
)

type CreateUserParams struct {
	FirstName      string
	LastName       string
	Username       string
	Email          string
	HashedPassword string
	Role           string
	LoginType      string
}

// UserRepo is the persistence contract the services depend on.
// All methods that mutate token pairs write token and expiry in a single
// statement, so a pair is never half set.
type UserRepo interface {
	// Create user
	// Must return apperrors.ErrUserExists when username or email is taken
	CreateUser(ctx context.Context, params CreateUserParams) (models.User, error)

	// Lookups by unique fields
	// Must return apperrors.ErrUserNotFound when no row matches
	GetByID(ctx context.Context, id uuid.UUID) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByRefreshToken(ctx context.Context, token string) (models.User, error)

	// One-time token lookups: hash equality AND expiry not before now
	// Must return apperrors.ErrUserNotFound when no row matches
	GetByVerificationToken(ctx context.Context, hash string, now time.Time) (models.User, error)
	GetByResetToken(ctx context.Context, hash string, now time.Time) (models.User, error)

	ListUsers(ctx context.Context) ([]models.User, error)

	// SetRefreshToken stores the currently valid refresh token.
	// nil clears it (logout); a new value supersedes any prior session.
	SetRefreshToken(ctx context.Context, id uuid.UUID, token *string) error

	SetVerificationToken(ctx context.Context, id uuid.UUID, hash string, expiry time.Time) error
	SetResetToken(ctx context.Context, id uuid.UUID, hash string, expiry time.Time) error

	// MarkEmailVerified clears the verification pair and flips the flag
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error

	// ResetPassword sets the new hash and clears the reset pair
	ResetPassword(ctx context.Context, id uuid.UUID, hashedPassword string) error

	UpdatePassword(ctx context.Context, id uuid.UUID, hashedPassword string) error
	SetRole(ctx context.Context, id uuid.UUID, role string) error
}
