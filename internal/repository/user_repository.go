package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/prms-app/prms-server/internal/model"
)

// UserRepo provides access to the `users` table. It satisfies both the
// service.UserStore and service.UserDirectory interfaces.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, username, email, password_hash, full_name, role, is_active, otp_code, otp_expires_at, created_at, updated_at"

// Create inserts a user and returns its ID. The email is stored lowercase
// so lookups match case-insensitively. Duplicate username or email yields
// ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, username, email, passwordHash, fullName string, role model.Role) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, full_name, role) VALUES (?,?,?,?,?)",
		username, email, passwordHash, fullName, role)
	if err != nil {
		if isDuplicateErr(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// ActiveByRole returns active users holding the given role, ordered by
// ascending id. The ordering is load-bearing: the round-robin selector
// indexes into this list.
func (r *UserRepo) ActiveByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE role=? AND is_active=1 ORDER BY id ASC", role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SaveResetTicket stores an OTP code and its expiry on the user row in one
// statement, replacing any previous ticket.
func (r *UserRepo) SaveResetTicket(ctx context.Context, email, code string, expiresAt time.Time) error {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET otp_code=?, otp_expires_at=? WHERE email=?",
		code, expiresAt.UTC(), email)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// CompleteReset writes the new password hash and clears the reset ticket
// in a single statement so the code can never be replayed.
func (r *UserRepo) CompleteReset(ctx context.Context, email, passwordHash string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, otp_code=NULL, otp_expires_at=NULL WHERE email=?",
		passwordHash, email)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface{ Scan(dest ...any) error }

func scanUser(s scanner) (model.User, error) {
	var (
		u      model.User
		otp    sql.NullString
		otpExp sql.NullTime
	)
	err := s.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FullName,
		&u.Role, &u.IsActive, &otp, &otpExp, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	if otp.Valid {
		v := otp.String
		u.OTPCode = &v
	}
	if otpExp.Valid {
		t := otpExp.Time.UTC()
		u.OTPExpiresAt = &t
	}
	return u, nil
}

// requireRow converts a zero-row UPDATE into sql.ErrNoRows so callers can
// treat a vanished user the same as a failed lookup.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
