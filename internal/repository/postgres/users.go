package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yuvi90/chatapp/internal/apperrors"
	"github.com/yuvi90/chatapp/internal/models"
	"github.com/yuvi90/chatapp/internal/repository"
)

type UserRepo struct {
	DB DBTX
}

const userColumns = `id, created_at, updated_at, first_name, last_name, username, email,
	password_hash, role, is_email_verified, login_type, refresh_token,
	email_verification_token, email_verification_expiry,
	reset_password_token, reset_password_expiry`

const createUser = `-- name: CreateUser
INSERT INTO users (id, first_name, last_name, username, email, password_hash, role, login_type)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + userColumns

func (r *UserRepo) CreateUser(ctx context.Context, params repository.CreateUserParams) (models.User, error) {
	rows, _ := r.DB.Query(ctx, createUser,
		uuid.New(),
		params.FirstName,
		params.LastName,
		params.Username,
		params.Email,
		params.HashedPassword,
		params.Role,
		params.LoginType,
	)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
			return user, apperrors.ErrUserExists
		}
		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `-- name: GetByID
SELECT ` + userColumns + `
FROM users
WHERE id = $1
`

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, id)
	return collectUser(rows)
}

const getUserByUsername = `-- name: GetByUsername
SELECT ` + userColumns + `
FROM users
WHERE username = $1
`

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByUsername, username)
	return collectUser(rows)
}

const getUserByEmail = `-- name: GetByEmail
SELECT ` + userColumns + `
FROM users
WHERE email = $1
`

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByEmail, email)
	return collectUser(rows)
}

const getUserByRefreshToken = `-- name: GetByRefreshToken
SELECT ` + userColumns + `
FROM users
WHERE refresh_token = $1
`

func (r *UserRepo) GetByRefreshToken(ctx context.Context, token string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByRefreshToken, token)
	return collectUser(rows)
}

const getUserByVerificationToken = `-- name: GetByVerificationToken
SELECT ` + userColumns + `
FROM users
WHERE email_verification_token = $1 AND email_verification_expiry >= $2
`

func (r *UserRepo) GetByVerificationToken(ctx context.Context, hash string, now time.Time) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByVerificationToken, hash, now)
	return collectUser(rows)
}

const getUserByResetToken = `-- name: GetByResetToken
SELECT ` + userColumns + `
FROM users
WHERE reset_password_token = $1 AND reset_password_expiry >= $2
`

func (r *UserRepo) GetByResetToken(ctx context.Context, hash string, now time.Time) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByResetToken, hash, now)
	return collectUser(rows)
}

const listUsers = `-- name: ListUsers
SELECT ` + userColumns + `
FROM users
ORDER BY created_at
`

func (r *UserRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, _ := r.DB.Query(ctx, listUsers)
	users, err := pgx.CollectRows(rows, rowToUser)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return users, nil
}

const setRefreshToken = `-- name: SetRefreshToken
UPDATE users
SET refresh_token = $2, updated_at = now()
WHERE id = $1
`

func (r *UserRepo) SetRefreshToken(ctx context.Context, id uuid.UUID, token *string) error {
	return r.exec(ctx, setRefreshToken, id, token)
}

const setVerificationToken = `-- name: SetVerificationToken
UPDATE users
SET email_verification_token = $2, email_verification_expiry = $3, updated_at = now()
WHERE id = $1
`

func (r *UserRepo) SetVerificationToken(ctx context.Context, id uuid.UUID, hash string, expiry time.Time) error {
	return r.exec(ctx, setVerificationToken, id, hash, expiry)
}

const setResetToken = `-- name: SetResetToken
UPDATE users
SET reset_password_token = $2, reset_password_expiry = $3, updated_at = now()
WHERE id = $1
`

func (r *UserRepo) SetResetToken(ctx context.Context, id uuid.UUID, hash string, expiry time.Time) error {
	return r.exec(ctx, setResetToken, id, hash, expiry)
}

const markEmailVerified = `-- name: MarkEmailVerified
UPDATE users
SET is_email_verified = TRUE,
    email_verification_token = NULL,
    email_verification_expiry = NULL,
    updated_at = now()
WHERE id = $1
`

func (r *UserRepo) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx, markEmailVerified, id)
}

const resetPassword = `-- name: ResetPassword
UPDATE users
SET password_hash = $2,
    reset_password_token = NULL,
    reset_password_expiry = NULL,
    updated_at = now()
WHERE id = $1
`

func (r *UserRepo) ResetPassword(ctx context.Context, id uuid.UUID, hashedPassword string) error {
	return r.exec(ctx, resetPassword, id, hashedPassword)
}

const updatePassword = `-- name: UpdatePassword
UPDATE users
SET password_hash = $2, updated_at = now()
WHERE id = $1
`

func (r *UserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hashedPassword string) error {
	return r.exec(ctx, updatePassword, id, hashedPassword)
}

const setRole = `-- name: SetRole
UPDATE users
SET role = $2, updated_at = now()
WHERE id = $1
`

func (r *UserRepo) SetRole(ctx context.Context, id uuid.UUID, role string) error {
	return r.exec(ctx, setRole, id, role)
}

// exec runs an update keyed by user id and maps "no rows touched"
// to apperrors.ErrUserNotFound
func (r *UserRepo) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := r.DB.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

func collectUser(rows pgx.Rows) (models.User, error) {
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.FirstName,
		&u.LastName,
		&u.Username,
		&u.Email,
		&u.HashedPassword,
		&u.Role,
		&u.IsEmailVerified,
		&u.LoginType,
		&u.RefreshToken,
		&u.EmailVerificationToken,
		&u.EmailVerificationExpiry,
		&u.ResetPasswordToken,
		&u.ResetPasswordExpiry,
	)
	return u, err
}
