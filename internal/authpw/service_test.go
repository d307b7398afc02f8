package authpw

import (
	"context"
	"errors"
	"strings"
	"testing"

	"henritrip/api/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// mockUserStore is a mock implementation of UserStore for testing
type mockUserStore struct {
	users map[string]store.User
	err   error
}

func (m *mockUserStore) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	if m.err != nil {
		return store.User{}, m.err
	}
	if user, ok := m.users[strings.ToLower(strings.TrimSpace(email))]; ok {
		return user, nil
	}
	return store.User{}, store.ErrNotFound
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(nil, bcrypt.MinCost)
	hash, err := svc.HashPassword("  admin123 ")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	svc.store = &mockUserStore{users: map[string]store.User{
		"admin@henritrip.test": {ID: 1, Email: "admin@henritrip.test", PasswordHash: hash, Role: "Admin"},
	}}
	return svc
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	t.Run("successful sign in", func(t *testing.T) {
		user, err := svc.SignIn(ctx, " ADMIN@henritrip.test ", " admin123 ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.ID != 1 {
			t.Errorf("expected user 1, got %d", user.ID)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.SignIn(ctx, "admin@henritrip.test", "admin124")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("password is case sensitive", func(t *testing.T) {
		_, err := svc.SignIn(ctx, "admin@henritrip.test", "ADMIN123")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("non-existent user", func(t *testing.T) {
		_, err := svc.SignIn(ctx, "nobody@henritrip.test", "admin123")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		for _, tc := range [][2]string{{"", "x"}, {"a@b.c", "   "}, {"", ""}} {
			if _, err := svc.SignIn(ctx, tc[0], tc[1]); !errors.Is(err, ErrMissingCredentials) {
				t.Errorf("SignIn(%q, %q) expected ErrMissingCredentials, got %v", tc[0], tc[1], err)
			}
		}
	})

	t.Run("store failure is not a credential error", func(t *testing.T) {
		failing := NewService(&mockUserStore{err: errors.New("connection reset")}, bcrypt.MinCost)
		_, err := failing.SignIn(ctx, "admin@henritrip.test", "admin123")
		if err == nil || errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected wrapped store error, got %v", err)
		}
	})
}

func TestNewServiceClampsCost(t *testing.T) {
	if svc := NewService(nil, 0); svc.cost != bcrypt.DefaultCost {
		t.Fatalf("expected default cost, got %d", svc.cost)
	}
	if svc := NewService(nil, 99); svc.cost != bcrypt.DefaultCost {
		t.Fatalf("expected default cost, got %d", svc.cost)
	}
}
