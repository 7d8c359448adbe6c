package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prms-app/prms-server/internal/model"
	"github.com/prms-app/prms-server/internal/utils"
)

// OTPValidity is how long a reset code stays usable. Expiry is computed
// lazily at confirmation time; nothing is stored beyond code + timestamp.
const OTPValidity = 5 * time.Minute

// UserStore is the slice of user persistence the reset flow needs.
type UserStore interface {
	// GetByEmail returns the user or ErrNotFound. Email is matched on the
	// normalized (lowercased, trimmed) form.
	GetByEmail(ctx context.Context, email string) (model.User, error)
	// SaveResetTicket persists code and expiry on the user row in a single
	// write, replacing any prior ticket.
	SaveResetTicket(ctx context.Context, email, code string, expiresAt time.Time) error
	// CompleteReset persists the new password hash and clears the ticket
	// (code and expiry together) in a single write.
	CompleteReset(ctx context.Context, email, passwordHash string) error
}

// Notifier delivers the reset code to the user. Implemented by the SMTP
// mailer; tests use a recording fake.
type Notifier interface {
	SendResetCode(ctx context.Context, to, name, code string) error
}

// PasswordHasher is the one-way password function. Implemented by
// utils.BcryptHasher.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// PasswordResetFlow issues time-limited one-time codes for password resets
// and consumes them exactly once. A user holds at most one live ticket:
// requesting a new code overwrites the previous one.
type PasswordResetFlow struct {
	users    UserStore
	notifier Notifier
	hasher   PasswordHasher

	// overridable in tests
	now     func() time.Time
	genCode func() (string, error)
}

// NewPasswordResetFlow wires the flow with a real clock and crypto/rand
// code generation.
func NewPasswordResetFlow(users UserStore, notifier Notifier, hasher PasswordHasher) *PasswordResetFlow {
	return &PasswordResetFlow{
		users:    users,
		notifier: notifier,
		hasher:   hasher,
		now:      time.Now,
		genCode:  utils.GenerateOTP,
	}
}

// RequestReset generates a 6-digit code for the account behind email,
// persists it with a 5-minute expiry and mails it to the user. The code is
// persisted before the mail goes out: when delivery fails the caller gets
// ErrNotificationFailed but the ticket stays valid, so the user can simply
// retry the request.
func (f *PasswordResetFlow) RequestReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	user, err := f.users.GetByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: no user with email %s", ErrNotFound, email)
		}
		return fmt.Errorf("load user: %w", err)
	}

	code, err := f.genCode()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	expiresAt := f.now().UTC().Add(OTPValidity)

	if err := f.users.SaveResetTicket(ctx, email, code, expiresAt); err != nil {
		return fmt.Errorf("save reset ticket: %w", err)
	}
	if err := f.notifier.SendResetCode(ctx, email, user.DisplayName(), code); err != nil {
		return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}
	return nil
}

// ConfirmReset validates the code and, on success, replaces the user's
// password and clears the ticket so the code cannot be replayed. A wrong
// code leaves the ticket untouched; brute-force pressure on this endpoint
// is handled by the rate limiter in front of it, not here.
func (f *PasswordResetFlow) ConfirmReset(ctx context.Context, email, code, newPassword string) error {
	email = normalizeEmail(email)
	user, err := f.users.GetByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: no user with email %s", ErrNotFound, email)
		}
		return fmt.Errorf("load user: %w", err)
	}

	if !f.ticketMatches(user, code) {
		return ErrInvalidOrExpiredOTP
	}

	hash, err := f.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := f.users.CompleteReset(ctx, email, hash); err != nil {
		return fmt.Errorf("complete reset: %w", err)
	}
	return nil
}

// ticketMatches checks the live ticket against the submitted code. Codes
// are compared after trimming whitespace on both sides. Expiry uses a
// strict comparison: a confirmation at exactly otp_expires_at still passes.
func (f *PasswordResetFlow) ticketMatches(user model.User, code string) bool {
	if user.OTPCode == nil || user.OTPExpiresAt == nil {
		return false
	}
	if strings.TrimSpace(*user.OTPCode) != strings.TrimSpace(code) {
		return false
	}
	return !f.now().UTC().After(*user.OTPExpiresAt)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
