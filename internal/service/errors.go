// Package service contains the business rules that sit between the HTTP
// handlers and the repositories: round-robin task assignment and the
// OTP-based password-reset flow. Sentinel errors defined here let handlers
// translate failures into HTTP responses. Store failures are wrapped, never
// swallowed, so the opaque cause stays on the chain for logging.
package service

import (
	"database/sql"
	"errors"
)

// isNotFound reports whether err represents a missing row, either as the
// service sentinel (from fakes) or as sql.ErrNoRows (from the repositories).
func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, sql.ErrNoRows)
}

var (
	// ErrInvalidRequest is returned for missing or malformed input, such as
	// assigning a task that has no preferred role.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNotFound is returned when the referenced user or task does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoEligibleUsers is returned when a preferred role has zero active
	// users to rotate across.
	ErrNoEligibleUsers = errors.New("no eligible users")

	// ErrInvalidOrExpiredOTP covers every failed reset confirmation: missing
	// ticket, code mismatch, or expired code. Callers get no hint which.
	ErrInvalidOrExpiredOTP = errors.New("invalid or expired otp")

	// ErrNotificationFailed signals that the OTP was persisted but the mail
	// could not be delivered. The client may simply request a new code.
	ErrNotificationFailed = errors.New("notification failed")
)
