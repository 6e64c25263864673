package mail

import (
	"context"
	"sync"
)

// SentMail is one recorded delivery.
type SentMail struct {
	To    string
	Name  string
	Token string
	Kind  string // "verification" or "reset"
}

// Recorder is a Mailer for tests: it stores sends instead of delivering
// them, so tests can capture the plain one-time tokens.
type Recorder struct {
	mu   sync.Mutex
	sent []SentMail

	// Err, when set, is returned from every send
	Err error
}

func (r *Recorder) SendVerificationEmail(ctx context.Context, to string, name string, plainToken string) error {
	return r.record(SentMail{To: to, Name: name, Token: plainToken, Kind: "verification"})
}

func (r *Recorder) SendPasswordResetEmail(ctx context.Context, to string, name string, plainToken string) error {
	return r.record(SentMail{To: to, Name: name, Token: plainToken, Kind: "reset"})
}

func (r *Recorder) record(m SentMail) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}

	r.sent = append(r.sent, m)
	return nil
}

// Sent returns a copy of everything recorded so far.
func (r *Recorder) Sent() []SentMail {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]SentMail, len(r.sent))
	copy(out, r.sent)
	return out
}
