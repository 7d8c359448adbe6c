package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/prms-app/prms-server/internal/model"
)

type fakeUserStore struct {
	users map[string]model.User
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	u, ok := s.users[email]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

func (s *fakeUserStore) SaveResetTicket(_ context.Context, email, code string, expiresAt time.Time) error {
	u, ok := s.users[email]
	if !ok {
		return ErrNotFound
	}
	u.OTPCode = &code
	u.OTPExpiresAt = &expiresAt
	s.users[email] = u
	return nil
}

func (s *fakeUserStore) CompleteReset(_ context.Context, email, passwordHash string) error {
	u, ok := s.users[email]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.OTPCode = nil
	u.OTPExpiresAt = nil
	s.users[email] = u
	return nil
}

type fakeNotifier struct {
	sent []string // codes, in send order
	err  error
}

func (n *fakeNotifier) SendResetCode(_ context.Context, _, _, code string) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, code)
	return nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }
func (fakeHasher) Verify(plain, hash string) bool    { return "hashed:"+plain == hash }

func newResetFixture(t *testing.T) (*PasswordResetFlow, *fakeUserStore, *fakeNotifier, time.Time) {
	t.Helper()
	store := &fakeUserStore{users: map[string]model.User{
		"bob@example.com": {ID: 1, Username: "bob", Email: "bob@example.com", PasswordHash: "hashed:old", Role: model.RoleDeveloper, IsActive: true},
	}}
	notifier := &fakeNotifier{}
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	flow := NewPasswordResetFlow(store, notifier, fakeHasher{})
	flow.now = func() time.Time { return base }
	flow.genCode = func() (string, error) { return "123456", nil }
	return flow, store, notifier, base
}

func TestRequestReset(t *testing.T) {
	ctx := context.Background()

	t.Run("persists ticket and mails the code", func(t *testing.T) {
		flow, store, notifier, base := newResetFixture(t)

		require.NoError(t, flow.RequestReset(ctx, "Bob@Example.com "))

		u := store.users["bob@example.com"]
		require.NotNil(t, u.OTPCode)
		require.Equal(t, "123456", *u.OTPCode)
		require.NotNil(t, u.OTPExpiresAt)
		require.Equal(t, base.Add(OTPValidity), *u.OTPExpiresAt)
		require.Equal(t, []string{"123456"}, notifier.sent)
	})

	t.Run("unknown email", func(t *testing.T) {
		flow, _, notifier, _ := newResetFixture(t)

		err := flow.RequestReset(ctx, "nobody@example.com")
		require.ErrorIs(t, err, ErrNotFound)
		require.Empty(t, notifier.sent)
	})

	t.Run("mail failure keeps the ticket", func(t *testing.T) {
		flow, store, notifier, _ := newResetFixture(t)
		notifier.err = errors.New("smtp down")

		err := flow.RequestReset(ctx, "bob@example.com")
		require.ErrorIs(t, err, ErrNotificationFailed)

		u := store.users["bob@example.com"]
		require.NotNil(t, u.OTPCode, "code survives a delivery failure")
		require.Equal(t, "123456", *u.OTPCode)
	})

	t.Run("new request overwrites the previous ticket", func(t *testing.T) {
		flow, store, _, _ := newResetFixture(t)

		require.NoError(t, flow.RequestReset(ctx, "bob@example.com"))
		flow.genCode = func() (string, error) { return "654321", nil }
		require.NoError(t, flow.RequestReset(ctx, "bob@example.com"))

		require.Equal(t, "654321", *store.users["bob@example.com"].OTPCode)
	})
}

func TestConfirmReset(t *testing.T) {
	ctx := context.Background()

	t.Run("sets password and consumes the code", func(t *testing.T) {
		flow, store, _, _ := newResetFixture(t)
		require.NoError(t, flow.RequestReset(ctx, "bob@example.com"))

		require.NoError(t, flow.ConfirmReset(ctx, "bob@example.com", "123456", "newpass"))

		u := store.users["bob@example.com"]
		require.Equal(t, "hashed:newpass", u.PasswordHash)
		require.Nil(t, u.OTPCode)
		require.Nil(t, u.OTPExpiresAt)

		// The code cannot be replayed.
		err := flow.ConfirmReset(ctx, "bob@example.com", "123456", "again")
		require.ErrorIs(t, err, ErrInvalidOrExpiredOTP)
	})

	t.Run("wrong code leaves ticket and password intact", func(t *testing.T) {
		flow, store, _, _ := newResetFixture(t)
		require.NoError(t, flow.RequestReset(ctx, "bob@example.com"))

		err := flow.ConfirmReset(ctx, "bob@example.com", "000000", "newpass")
		require.ErrorIs(t, err, ErrInvalidOrExpiredOTP)

		u := store.users["bob@example.com"]
		require.Equal(t, "hashed:old", u.PasswordHash)
		require.NotNil(t, u.OTPCode)

		// A subsequent attempt with the right code still works.
		require.NoError(t, flow.ConfirmReset(ctx, "bob@example.com", "123456", "newpass"))
	})

	t.Run("code surrounded by whitespace is accepted", func(t *testing.T) {
		flow, _, _, _ := newResetFixture(t)
		require.NoError(t, flow.RequestReset(ctx, "bob@example.com"))

		require.NoError(t, flow.ConfirmReset(ctx, "bob@example.com", "  123456\n", "newpass"))
	})

	t.Run("confirmation exactly at expiry passes", func(t *testing.T) {
		flow, _, _, base := newResetFixture(t)
		require.NoError(t, flow.RequestReset(ctx, "bob@example.com"))

		flow.now = func() time.Time { return base.Add(OTPValidity) }
		require.NoError(t, flow.ConfirmReset(ctx, "bob@example.com", "123456", "newpass"))
	})

	t.Run("confirmation after expiry fails", func(t *testing.T) {
		flow, store, _, base := newResetFixture(t)
		require.NoError(t, flow.RequestReset(ctx, "bob@example.com"))

		flow.now = func() time.Time { return base.Add(OTPValidity + time.Millisecond) }
		err := flow.ConfirmReset(ctx, "bob@example.com", "123456", "newpass")
		require.ErrorIs(t, err, ErrInvalidOrExpiredOTP)
		require.Equal(t, "hashed:old", store.users["bob@example.com"].PasswordHash)
	})

	t.Run("no ticket on record", func(t *testing.T) {
		flow, _, _, _ := newResetFixture(t)

		err := flow.ConfirmReset(ctx, "bob@example.com", "123456", "newpass")
		require.ErrorIs(t, err, ErrInvalidOrExpiredOTP)
	})

	t.Run("unknown email", func(t *testing.T) {
		flow, _, _, _ := newResetFixture(t)

		err := flow.ConfirmReset(ctx, "nobody@example.com", "123456", "newpass")
		require.ErrorIs(t, err, ErrNotFound)
	})
}
