package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yuvi90/chatapp/internal/apperrors"
	"github.com/yuvi90/chatapp/internal/models"
	"github.com/yuvi90/chatapp/internal/repository"
	"github.com/yuvi90/chatapp/internal/service/hasher"
	"github.com/yuvi90/chatapp/internal/service/token"
)

// Service owns the session lifecycle: login, logout, refresh and bearer
// authentication. One refresh token lives on the user row at a time, so a
// new login invalidates any prior session.
type Service struct {
	codec  *token.Codec
	users  repository.UserRepo
	hasher hasher.Hasher
}

func NewService(codec *token.Codec, users repository.UserRepo, h hasher.Hasher) (*Service, error) {
	if codec == nil || users == nil {
		return nil, errors.New("codec and user repo must not be nil")
	}

	if h == nil {
		h = hasher.Bcrypt{}
	}

	return &Service{
		codec:  codec,
		users:  users,
		hasher: h,
	}, nil
}

// LoginResult carries everything the handler needs: the access token for
// the response body, the refresh token for the cookie, the user profile.
type LoginResult struct {
	Access  models.IssuedToken
	Refresh models.IssuedToken
	User    models.User
}

func (s *Service) Login(ctx context.Context, username string, password string) (LoginResult, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return LoginResult{}, apperrors.ErrLoginNotFound
		}
		return LoginResult{}, fmt.Errorf("error while looking up user. Err: %w", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return LoginResult{}, apperrors.ErrInvalidCredentials
	}

	access, err := s.codec.IssueAccess(user)
	if err != nil {
		return LoginResult{}, err
	}

	refresh, err := s.codec.IssueRefresh(user)
	if err != nil {
		return LoginResult{}, err
	}

	// Overwrites any previously stored token: old sessions die here
	if err := s.users.SetRefreshToken(ctx, user.ID, &refresh.Value); err != nil {
		return LoginResult{}, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	return LoginResult{Access: access, Refresh: refresh, User: user}, nil
}

// Logout invalidates the session behind the presented refresh token.
// It is idempotent: no token or an unknown token still succeeds.
// clearCookie reports whether the caller should expire the jwt cookie.
func (s *Service) Logout(ctx context.Context, presented string) (clearCookie bool, err error) {
	if presented == "" {
		return false, nil
	}

	user, err := s.users.GetByRefreshToken(ctx, presented)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			// Session invalidated elsewhere already, still clear the cookie
			return true, nil
		}
		return false, fmt.Errorf("error while looking up session. Err: %w", err)
	}

	if err := s.users.SetRefreshToken(ctx, user.ID, nil); err != nil {
		return false, fmt.Errorf("error while clearing refresh token. Err: %w", err)
	}

	return true, nil
}

// Refresh mints a new access token for a valid presented refresh token.
// The refresh token itself is not rotated: a leaked token stays valid for
// its full lifetime. Known accepted weakness of the single-session design.
func (s *Service) Refresh(ctx context.Context, presented string) (models.IssuedToken, error) {
	if presented == "" {
		return models.IssuedToken{}, apperrors.ErrUnauthenticated
	}

	// An unknown value means the token was rotated or revoked elsewhere
	user, err := s.users.GetByRefreshToken(ctx, presented)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return models.IssuedToken{}, apperrors.ErrForbidden
		}
		return models.IssuedToken{}, fmt.Errorf("error while looking up session. Err: %w", err)
	}

	claims, err := s.codec.ParseRefresh(presented)
	if err != nil {
		return models.IssuedToken{}, apperrors.ErrForbidden
	}

	// Stored value and signed claims must describe the same user
	if claims.UserID != user.ID || claims.Username != user.Username {
		return models.IssuedToken{}, apperrors.ErrForbidden
	}

	access, err := s.codec.IssueAccess(user)
	if err != nil {
		return models.IssuedToken{}, err
	}

	return access, nil
}

// Authenticate turns a bearer access token into an authenticated principal.
func (s *Service) Authenticate(ctx context.Context, access string) (models.Principal, error) {
	claims, err := s.codec.ParseAccess(access)
	if err != nil {
		return models.Principal{}, apperrors.ErrForbidden
	}

	return models.Principal{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
	}, nil
}
