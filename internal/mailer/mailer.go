// Package mailer delivers transactional mail over SMTP. It implements the
// service.Notifier interface consumed by the password-reset flow.
package mailer

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/prms-app/prms-server/internal/config"
)

// Mailer sends mail through a single SMTP relay. A fresh connection is
// dialed per message; reset mail volume does not justify a pool.
type Mailer struct {
	host string
	port int
	user string
	pass string
	from string
}

// New builds a Mailer from the SMTP settings in cfg.
func New(cfg config.Config) *Mailer {
	return &Mailer{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		from: cfg.SMTPFrom,
	}
}

// SendResetCode mails the one-time password-reset code to the user. Any
// dial or send failure is returned to the caller; the reset flow reports
// it as ErrNotificationFailed without rolling back the stored code.
//
// gomail has no context support, so the send runs in a goroutine and the
// call returns ctx.Err() when the deadline fires first. A stuck relay then
// costs a background goroutine until the connection dies, not a hung
// request.
func (m *Mailer) SendResetCode(ctx context.Context, to, name, code string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Password Reset OTP")
	msg.SetBody("text/html", resetBody(name, code))

	d := gomail.NewDialer(m.host, m.port, m.user, m.pass)
	errc := make(chan error, 1)
	go func() { errc <- d.DialAndSend(msg) }()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("send reset mail to %s: %w", to, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send reset mail to %s: %w", to, ctx.Err())
	}
}

func resetBody(name, code string) string {
	return fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 500px; margin: auto; border: 1px solid #eee; border-radius: 8px; padding: 24px;">
  <h2 style="color: #2d7ff9;">Password Reset Request</h2>
  <p>Hi <b>%s</b>,</p>
  <p>You requested to reset your password. Use the OTP below to verify your request:</p>
  <div style="font-size: 24px; font-weight: bold; color: #2d7ff9; margin: 16px 0;">%s</div>
  <p style="color: #888;">The code expires in 5 minutes.</p>
  <hr style="margin: 24px 0;">
  <p style="font-size: 12px; color: #aaa;">If you did not request this, please ignore this email.</p>
</div>`, name, code)
}
