package mail

import "context"

// Mailer delivers account mails. Sends happen on a detached goroutine
// relative to the triggering request: failures are logged, never returned
// to the client.
type Mailer interface {
	// SendVerificationEmail mails the email verification link built from
	// the plain one-time token
	SendVerificationEmail(ctx context.Context, to string, name string, plainToken string) error

	// SendPasswordResetEmail mails the password reset link built from
	// the plain one-time token
	SendPasswordResetEmail(ctx context.Context, to string, name string, plainToken string) error
}
