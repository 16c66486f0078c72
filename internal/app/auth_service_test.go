package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"weighttrend/internal/app"
	"weighttrend/internal/domain"
)

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(h)
}

func TestRegister_RestrictedToConfiguredUsers(t *testing.T) {
	svc := app.NewAuthService(&mockUserRepo{}, &mockSessionRepo{}, []string{"alice", "bob"})

	if _, err := svc.Register(context.Background(), "mallory", "password123"); !errors.Is(err, app.ErrUserNotAllowed) {
		t.Fatalf("expected ErrUserNotAllowed, got %v", err)
	}

	user, err := svc.Register(context.Background(), "alice", "password123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("unexpected user: %v", user)
	}
}

func TestRegister_OncePerUser(t *testing.T) {
	users := &mockUserRepo{
		byUsernameFn: func(_ context.Context, username string) (*domain.User, error) {
			return &domain.User{ID: 1, Username: username}, nil
		},
	}
	svc := app.NewAuthService(users, &mockSessionRepo{}, []string{"alice"})
	if _, err := svc.Register(context.Background(), "alice", "password123"); !errors.Is(err, app.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestLogin_Success(t *testing.T) {
	pwHash := hash(t, "correct horse")
	users := &mockUserRepo{
		byUsernameFn: func(_ context.Context, _ string) (*domain.User, error) {
			return &domain.User{ID: 1, Username: "alice", PasswordHash: pwHash}, nil
		},
	}
	var storedToken string
	sessions := &mockSessionRepo{
		createFn: func(_ context.Context, userID int64, token string, expiresAt time.Time) error {
			if userID != 1 {
				t.Fatalf("unexpected userID: %d", userID)
			}
			if time.Until(expiresAt) < 23*time.Hour {
				t.Fatalf("session expires too soon: %v", expiresAt)
			}
			storedToken = token
			return nil
		},
	}
	svc := app.NewAuthService(users, sessions, []string{"alice"})

	token, err := svc.Login(context.Background(), "alice", "correct horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token == "" || token != storedToken {
		t.Fatalf("token mismatch: %q vs stored %q", token, storedToken)
	}
}

func TestLogin_LockoutAfterThreeFailures(t *testing.T) {
	pwHash := hash(t, "correct horse")
	users := &mockUserRepo{
		byUsernameFn: func(_ context.Context, _ string) (*domain.User, error) {
			return &domain.User{ID: 1, Username: "alice", PasswordHash: pwHash}, nil
		},
	}
	svc := app.NewAuthService(users, &mockSessionRepo{}, []string{"alice"})

	for i := 0; i < 3; i++ {
		if _, err := svc.Login(context.Background(), "alice", "wrong"); !errors.Is(err, app.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}

	// Even the correct password is refused while locked.
	if _, err := svc.Login(context.Background(), "alice", "correct horse"); !errors.Is(err, app.ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}
	if until, locked := svc.LockedUntil("alice"); !locked || time.Until(until) <= 0 {
		t.Fatalf("expected future lockout, got %v locked=%v", until, locked)
	}
	if n := svc.RemainingAttempts("alice"); n != 0 {
		t.Fatalf("expected 0 remaining attempts, got %d", n)
	}
}

func TestLogin_UnknownUsernamesNotTracked(t *testing.T) {
	// Probing with arbitrary usernames must not accumulate lockout
	// state; only the configured accounts are tracked.
	svc := app.NewAuthService(&mockUserRepo{}, &mockSessionRepo{}, []string{"alice"})

	for i := 0; i < 5; i++ {
		if _, err := svc.Login(context.Background(), "mallory", "wrong"); !errors.Is(err, app.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}
	if _, locked := svc.LockedUntil("mallory"); locked {
		t.Fatal("unknown username must never lock")
	}
	if n := svc.RemainingAttempts("mallory"); n != 3 {
		t.Fatalf("expected untracked username to keep full attempts, got %d", n)
	}
}

func TestLogin_SuccessResetsFailureCount(t *testing.T) {
	pwHash := hash(t, "correct horse")
	users := &mockUserRepo{
		byUsernameFn: func(_ context.Context, _ string) (*domain.User, error) {
			return &domain.User{ID: 1, Username: "alice", PasswordHash: pwHash}, nil
		},
	}
	svc := app.NewAuthService(users, &mockSessionRepo{}, []string{"alice"})

	_, _ = svc.Login(context.Background(), "alice", "wrong")
	_, _ = svc.Login(context.Background(), "alice", "wrong")
	if _, err := svc.Login(context.Background(), "alice", "correct horse"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := svc.RemainingAttempts("alice"); n != 3 {
		t.Fatalf("expected full attempts after success, got %d", n)
	}
}

func TestValidateSession(t *testing.T) {
	users := &mockUserRepo{
		byIDFn: func(_ context.Context, id int64) (*domain.User, error) {
			return &domain.User{ID: id, Username: "alice"}, nil
		},
	}

	t.Run("valid", func(t *testing.T) {
		sessions := &mockSessionRepo{
			getByTokenFn: func(_ context.Context, _ string) (*domain.Session, error) {
				return &domain.Session{UserID: 1, ExpiresAt: time.Now().Add(time.Hour)}, nil
			},
		}
		svc := app.NewAuthService(users, sessions, []string{"alice"})
		user, err := svc.ValidateSession(context.Background(), "tok")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.ID != 1 {
			t.Fatalf("unexpected user: %v", user)
		}
	})

	t.Run("expired", func(t *testing.T) {
		deleted := false
		sessions := &mockSessionRepo{
			getByTokenFn: func(_ context.Context, _ string) (*domain.Session, error) {
				return &domain.Session{UserID: 1, ExpiresAt: time.Now().Add(-time.Minute)}, nil
			},
			deleteFn: func(_ context.Context, _ string) error {
				deleted = true
				return nil
			},
		}
		svc := app.NewAuthService(users, sessions, []string{"alice"})
		if _, err := svc.ValidateSession(context.Background(), "tok"); !errors.Is(err, app.ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
		if !deleted {
			t.Fatal("expected expired session to be deleted")
		}
	})

	t.Run("missing", func(t *testing.T) {
		svc := app.NewAuthService(users, &mockSessionRepo{}, []string{"alice"})
		if _, err := svc.ValidateSession(context.Background(), "tok"); !errors.Is(err, app.ErrSessionNotFound) {
			t.Fatalf("expected ErrSessionNotFound, got %v", err)
		}
	})
}

func TestLogout(t *testing.T) {
	var deletedToken string
	sessions := &mockSessionRepo{
		deleteFn: func(_ context.Context, token string) error {
			deletedToken = token
			return nil
		},
	}
	svc := app.NewAuthService(&mockUserRepo{}, sessions, []string{"alice"})
	if err := svc.Logout(context.Background(), "tok"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deletedToken != "tok" {
		t.Fatalf("unexpected token deleted: %q", deletedToken)
	}
}
