package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"slices"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"weighttrend/internal/domain"
)

const (
	maxLoginAttempts = 3
	lockoutDuration  = 15 * time.Minute
	sessionTTL       = 24 * time.Hour
)

var (
	// ErrInvalidCredentials indicates that the provided username or password was incorrect.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrAccountLocked indicates too many failed logins; retry after the lockout window.
	ErrAccountLocked = errors.New("account locked after repeated failed logins")
	// ErrSessionNotFound indicates that the requested session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates that the session has expired.
	ErrSessionExpired = errors.New("session expired")
	// ErrUserNotFound indicates that the user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserNotAllowed indicates a registration attempt for a username outside the configured users.
	ErrUserNotAllowed = errors.New("username is not one of the configured users")
	// ErrUserExists indicates the username has already registered.
	ErrUserExists = errors.New("user already registered")
)

// AuthService handles authentication, account lockout and session
// management for the configured users.
type AuthService struct {
	users    domain.UserRepository
	sessions domain.SessionRepository
	allowed  []string
	now      func() time.Time

	mu       sync.Mutex
	attempts map[string]*loginAttempts
}

type loginAttempts struct {
	count       int
	lockedUntil time.Time
}

// NewAuthService creates an AuthService restricted to the given usernames.
func NewAuthService(users domain.UserRepository, sessions domain.SessionRepository, allowedUsers []string) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		allowed:  allowedUsers,
		now:      time.Now,
		attempts: make(map[string]*loginAttempts),
	}
}

// Login authenticates a user and creates a session. Three consecutive
// failures lock the account for fifteen minutes.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	if _, locked := s.LockedUntil(username); locked {
		return "", ErrAccountLocked
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil || user == nil {
		s.recordFailure(username)
		return "", ErrInvalidCredentials
	}
	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.recordFailure(username)
		return "", ErrInvalidCredentials
	}
	s.resetAttempts(username)

	token, err := generateToken()
	if err != nil {
		return "", err
	}
	if err := s.sessions.Create(ctx, user.ID, token, s.now().Add(sessionTTL)); err != nil {
		return "", err
	}
	return token, nil
}

// LockedUntil reports whether the account is currently locked and until when.
func (s *AuthService) LockedUntil(username string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.attempts[username]
	if !ok {
		return time.Time{}, false
	}
	if !a.lockedUntil.IsZero() && s.now().Before(a.lockedUntil) {
		return a.lockedUntil, true
	}
	if !a.lockedUntil.IsZero() {
		// lockout window elapsed
		delete(s.attempts, username)
	}
	return time.Time{}, false
}

// RemainingAttempts reports how many failures remain before lockout.
func (s *AuthService) RemainingAttempts(username string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.attempts[username]; ok {
		if n := maxLoginAttempts - a.count; n > 0 {
			return n
		}
		return 0
	}
	return maxLoginAttempts
}

func (s *AuthService) recordFailure(username string) {
	// Only the configured accounts are worth tracking; arbitrary probed
	// usernames would grow the map without bound.
	if !slices.Contains(s.allowed, username) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.attempts[username]
	if !ok {
		a = &loginAttempts{}
		s.attempts[username] = a
	}
	a.count++
	if a.count >= maxLoginAttempts {
		a.lockedUntil = s.now().Add(lockoutDuration)
	}
}

func (s *AuthService) resetAttempts(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, username)
}

// Logout invalidates a session.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// ValidateSession checks if a session token is valid.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*domain.User, error) {
	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil || session == nil {
		return nil, ErrSessionNotFound
	}
	if s.now().After(session.ExpiresAt) {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrSessionExpired
	}
	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil || user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// RegisteredUsers reports how many of the configured users have
// registered so far.
func (s *AuthService) RegisteredUsers(ctx context.Context) (int, error) {
	return s.users.Count(ctx)
}

// Register creates an account for one of the configured usernames. Each
// configured user may register exactly once.
func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	if !slices.Contains(s.allowed, username) {
		return nil, ErrUserNotAllowed
	}
	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.users.Create(ctx, username, string(hash))
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
