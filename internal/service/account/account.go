package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yuvi90/chatapp/internal/apperrors"
	"github.com/yuvi90/chatapp/internal/logger"
	"github.com/yuvi90/chatapp/internal/mail"
	"github.com/yuvi90/chatapp/internal/models"
	"github.com/yuvi90/chatapp/internal/repository"
	"github.com/yuvi90/chatapp/internal/service/hasher"
	"github.com/yuvi90/chatapp/internal/service/token"
)

// Service owns the account lifecycle: registration, email verification,
// password reset and change, and the admin user-management operations.
type Service struct {
	users  repository.UserRepo
	codec  *token.Codec
	hasher hasher.Hasher
	mailer mail.Mailer
	logger logger.Logger
}

func NewService(users repository.UserRepo, codec *token.Codec, mailer mail.Mailer, log logger.Logger) (*Service, error) {
	if users == nil || codec == nil || mailer == nil {
		return nil, errors.New("user repo, codec and mailer must not be nil")
	}

	if log == nil {
		log = logger.NewNoOpLogger()
	}

	return &Service{
		users:  users,
		codec:  codec,
		hasher: hasher.Bcrypt{},
		mailer: mailer,
		logger: log,
	}, nil
}

type RegisterParams struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
}

// Register creates an unverified basic user and mails a verification link.
// The mail send is best effort: its failure never fails the registration.
func (s *Service) Register(ctx context.Context, params RegisterParams) (models.User, error) {
	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("can't use this as password, error=%w", err)
	}

	user, err := s.users.CreateUser(ctx, repository.CreateUserParams{
		FirstName:      strings.TrimSpace(params.FirstName),
		LastName:       strings.TrimSpace(params.LastName),
		Username:       strings.ToLower(strings.TrimSpace(params.Username)),
		Email:          strings.TrimSpace(params.Email),
		HashedPassword: hash,
		Role:           models.RoleBasic,
		LoginType:      models.LoginTypeEmail,
	})
	if err != nil {
		return models.User{}, err
	}

	if err := s.issueVerification(ctx, user); err != nil {
		// Registration already succeeded, the user can ask for a resend
		s.logger.Error("could not issue verification token", "user", user.Username, "error", err.Error())
	}

	return user, nil
}

// VerifyEmail consumes a verification token: the stored pair is cleared
// and the account marked verified. A token works once and only before its
// expiry.
func (s *Service) VerifyEmail(ctx context.Context, plainToken string) error {
	if plainToken == "" {
		return apperrors.ErrTokenMissing
	}

	user, err := s.users.GetByVerificationToken(ctx, token.HashToken(plainToken), time.Now())
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			// Wrong and expired tokens are indistinguishable to the client
			return apperrors.ErrInvalidToken
		}
		return fmt.Errorf("error while looking up verification token. Err: %w", err)
	}

	return s.users.MarkEmailVerified(ctx, user.ID)
}

// ResendVerification issues a fresh token for an authenticated user.
// The previous verification link stops working.
func (s *Service) ResendVerification(ctx context.Context, username string) error {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}

	if user.IsEmailVerified {
		return apperrors.ErrAlreadyVerified
	}

	return s.issueVerification(ctx, user)
}

// ForgotPassword issues a reset token and mails the reset link.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return err
	}

	ott, err := s.codec.NewOneTimeToken()
	if err != nil {
		return err
	}

	if err := s.users.SetResetToken(ctx, user.ID, ott.Hash, ott.ExpiresAt); err != nil {
		return fmt.Errorf("error while saving reset token. Err: %w", err)
	}

	s.sendAsync("reset", user, ott.Plain)
	return nil
}

// ResetPassword consumes a reset token and sets the new password.
func (s *Service) ResetPassword(ctx context.Context, plainToken string, newPassword string, confirmPassword string) error {
	if plainToken == "" {
		return apperrors.ErrTokenMissing
	}

	if newPassword != confirmPassword {
		return apperrors.Validation("Passwords do not match!", "confirmPassword: does not match newPassword")
	}

	user, err := s.users.GetByResetToken(ctx, token.HashToken(plainToken), time.Now())
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return apperrors.ErrInvalidToken
		}
		return fmt.Errorf("error while looking up reset token. Err: %w", err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("can't use this as password, error=%w", err)
	}

	return s.users.ResetPassword(ctx, user.ID, hash)
}

// ChangePassword replaces the password of an authenticated user after
// verifying the old one. The stored hash stays untouched on any failure.
func (s *Service) ChangePassword(ctx context.Context, username string, oldPassword string, newPassword string, confirmPassword string) error {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}

	if err := s.hasher.Compare(user.HashedPassword, oldPassword); err != nil {
		return apperrors.ErrOldPasswordIncorrect
	}

	if newPassword != confirmPassword {
		return apperrors.Validation("Passwords do not match!", "confirmPassword: does not match newPassword")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("can't use this as password, error=%w", err)
	}

	return s.users.UpdatePassword(ctx, user.ID, hash)
}

// ListUsers returns all public profiles, admin only at the HTTP layer.
func (s *Service) ListUsers(ctx context.Context) ([]models.PublicUser, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	public := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		public = append(public, u.Public())
	}
	return public, nil
}

// AssignRole changes a user's role, admin only at the HTTP layer.
func (s *Service) AssignRole(ctx context.Context, userID uuid.UUID, role string) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}

	return s.users.SetRole(ctx, userID, role)
}

// issueVerification stores a fresh verification pair and mails the link.
func (s *Service) issueVerification(ctx context.Context, user models.User) error {
	ott, err := s.codec.NewOneTimeToken()
	if err != nil {
		return err
	}

	if err := s.users.SetVerificationToken(ctx, user.ID, ott.Hash, ott.ExpiresAt); err != nil {
		return fmt.Errorf("error while saving verification token. Err: %w", err)
	}

	s.sendAsync("verification", user, ott.Plain)
	return nil
}

// sendAsync delivers mail on a detached goroutine. The triggering request
// finishes without waiting; failures go to the log only. No retries, a
// user-triggered resend is the recovery path.
func (s *Service) sendAsync(kind string, user models.User, plainToken string) {
	go func() {
		// Detached from the request context on purpose
		ctx := context.Background()

		var err error
		switch kind {
		case "verification":
			err = s.mailer.SendVerificationEmail(ctx, user.Email, user.FirstName, plainToken)
		case "reset":
			err = s.mailer.SendPasswordResetEmail(ctx, user.Email, user.FirstName, plainToken)
		}

		if err != nil {
			s.logger.Error("mail send failed", "kind", kind, "user", user.Username, "error", err.Error())
		}
	}()
}
