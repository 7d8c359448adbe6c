package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/prms-app/prms-server/internal/config"
	"github.com/prms-app/prms-server/internal/repository"
)

func refreshHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Config{JWTSecret: "unit-secret", AccessTTLMin: 5, RefreshTTLDays: 7, BcryptCost: 4}
	return NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db), nil), mock
}

func postRefresh(h *AuthHandler) *httptest.ResponseRecorder {
	e := echo.New()
	e.POST("/refresh", h.Refresh)
	req := httptest.NewRequest(http.MethodPost, "/refresh", strings.NewReader(`{"refresh_token":"raw-token"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRefreshRotation(t *testing.T) {
	validateQ := regexp.QuoteMeta("SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1")
	revokeQ := regexp.QuoteMeta("UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL")

	t.Run("revoke failure aborts the rotation", func(t *testing.T) {
		h, mock := refreshHandler(t)

		mock.ExpectQuery(validateQ).
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
				AddRow(5, time.Now().UTC().Add(time.Hour), nil))
		mock.ExpectExec(revokeQ).WillReturnError(errors.New("connection lost"))

		rec := postRefresh(h)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.NoError(t, mock.ExpectationsWereMet(), "no tokens may be issued after a failed revoke")
	})

	t.Run("successful rotation revokes then issues", func(t *testing.T) {
		h, mock := refreshHandler(t)
		now := time.Now().UTC()

		mock.ExpectQuery(validateQ).
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
				AddRow(5, now.Add(time.Hour), nil))
		mock.ExpectExec(revokeQ).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username, email, password_hash, full_name, role, is_active, otp_code, otp_expires_at, created_at, updated_at FROM users WHERE id=? LIMIT 1")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "full_name", "role", "is_active", "otp_code", "otp_expires_at", "created_at", "updated_at"}).
				AddRow(5, "bob", "bob@example.com", "hash", "Bob", "DEVELOPER", true, nil, nil, now, now))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)")).
			WillReturnResult(sqlmock.NewResult(1, 1))

		rec := postRefresh(h)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"token"`)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown token is 401", func(t *testing.T) {
		h, mock := refreshHandler(t)

		mock.ExpectQuery(validateQ).
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}))

		rec := postRefresh(h)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
