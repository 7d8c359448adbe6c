package model

import "time"

// User represents a row in the `users` table. PasswordHash is never
// serialized; handlers expose their own response shapes. OTPCode and
// OTPExpiresAt form the live password-reset ticket: both are nil when no
// reset is pending and are cleared together when a reset completes.
type User struct {
	ID           uint64     // users.id
	Username     string     // users.username (unique)
	Email        string     // users.email (unique, stored lowercase)
	PasswordHash string     // users.password_hash (bcrypt)
	FullName     string     // users.full_name (may be empty)
	Role         Role       // users.role
	IsActive     bool       // users.is_active
	OTPCode      *string    // users.otp_code (nullable)
	OTPExpiresAt *time.Time // users.otp_expires_at (nullable, UTC)
	CreatedAt    time.Time  // users.created_at
	UpdatedAt    time.Time  // users.updated_at
}

// DisplayName returns the name used when addressing the user in outbound
// mail: the full name when present, otherwise the username.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// RefreshToken models an entry in the `refresh_tokens` table. Only the
// SHA-256 hash of the token is stored; the raw value goes back to the
// client once and is never persisted.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
