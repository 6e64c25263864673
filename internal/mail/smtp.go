package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
)

type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string

	// Base URL the links in mails point at, e.g. https://app.example.com
	BaseURL string
}

// SMTPMailer sends HTML mail over plain-auth SMTP.
type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTP(cfg SMTPConfig) *SMTPMailer {
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) SendVerificationEmail(ctx context.Context, to string, name string, plainToken string) error {
	link := fmt.Sprintf("%s/api/v1/users/verify-email/%s", m.cfg.BaseURL, plainToken)

	body, err := render(verificationTmpl, mailData{Name: name, Link: link})
	if err != nil {
		return fmt.Errorf("error while rendering verification mail. Err: %w", err)
	}

	return m.send(to, "Please verify your email", body)
}

func (m *SMTPMailer) SendPasswordResetEmail(ctx context.Context, to string, name string, plainToken string) error {
	link := fmt.Sprintf("%s/reset-password/%s", m.cfg.BaseURL, plainToken)

	body, err := render(resetTmpl, mailData{Name: name, Link: link})
	if err != nil {
		return fmt.Errorf("error while rendering reset mail. Err: %w", err)
	}

	return m.send(to, "Reset your password", body)
}

func (m *SMTPMailer) send(to string, subject string, body string) error {
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		m.cfg.From, to, subject, body,
	))

	addr := m.cfg.Host + ":" + m.cfg.Port
	return smtp.SendMail(addr, auth, m.cfg.From, []string{to}, msg)
}

type mailData struct {
	Name string
	Link string
}

func render(tmpl *template.Template, data mailData) (string, error) {
	buf := &bytes.Buffer{}
	if err := tmpl.Execute(buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var verificationTmpl = template.Must(template.New("verification").Parse(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>Hello {{.Name}},</h2>
    <p>Thank you for signing up! Please click the button below to verify your email address.</p>
    <a href="{{.Link}}" style="display: inline-block; background-color: #4F46E5; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px;">Verify Email</a>
    <p>Or copy and paste this link into your browser:</p>
    <p style="word-break: break-all;">{{.Link}}</p>
    <p>The link expires in 20 minutes. If you didn't create an account, you can safely ignore this email.</p>
</body>
</html>
`))

var resetTmpl = template.Must(template.New("reset").Parse(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>Hello {{.Name}},</h2>
    <p>We received a request to reset your password. Click the button below to choose a new one.</p>
    <a href="{{.Link}}" style="display: inline-block; background-color: #4F46E5; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px;">Reset Password</a>
    <p>Or copy and paste this link into your browser:</p>
    <p style="word-break: break-all;">{{.Link}}</p>
    <p>The link expires in 20 minutes. If you didn't request a reset, you can safely ignore this email.</p>
</body>
</html>
`))
