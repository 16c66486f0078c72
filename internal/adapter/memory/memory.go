// Package memory implements in-memory repositories for development and testing.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"weighttrend/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu           sync.Mutex
	observations []domain.Observation
	users        []*domain.User
	sessions     map[string]*domain.Session

	obsIDCounter  int64
	userIDCounter int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		sessions: make(map[string]*domain.Session),
	}
}

// Ensure interfaces are met.
var _ domain.ObservationRepository = (*DB)(nil)
var _ domain.UserRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// --- ObservationRepository ---

// AddObservation stores a new observation.
func (db *DB) AddObservation(ctx context.Context, userID int64, weight float64, minutesSinceMeal int, recordedAt time.Time) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.obsIDCounter++
	id := db.obsIDCounter

	db.observations = append(db.observations, domain.Observation{
		ID:               id,
		UserID:           userID,
		Weight:           weight,
		MinutesSinceMeal: minutesSinceMeal,
		RecordedAt:       recordedAt.UTC(),
	})
	return id, nil
}

// UpdateObservation rewrites an observation and flags it edited.
func (db *DB) UpdateObservation(ctx context.Context, userID, id int64, weight float64, minutesSinceMeal int, recordedAt time.Time) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.observations {
		o := &db.observations[i]
		if o.ID == id && o.UserID == userID {
			o.Weight = weight
			o.MinutesSinceMeal = minutesSinceMeal
			if !recordedAt.IsZero() {
				o.RecordedAt = recordedAt.UTC()
			}
			o.Edited = true
			return true, nil
		}
	}
	return false, nil
}

// DeleteObservation removes an observation by id.
func (db *DB) DeleteObservation(ctx context.Context, userID, id int64) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i, o := range db.observations {
		if o.ID == id && o.UserID == userID {
			db.observations = append(db.observations[:i], db.observations[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// ListObservations returns the user's full history ordered by RecordedAt.
func (db *DB) ListObservations(ctx context.Context, userID int64) ([]domain.Observation, error) {
	return db.ListObservationsRange(ctx, userID, time.Time{}, time.Time{})
}

// ListObservationsRange returns the user's observations within [from, to].
// Zero bounds are open-ended.
func (db *DB) ListObservationsRange(ctx context.Context, userID int64, from, to time.Time) ([]domain.Observation, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var result []domain.Observation
	for _, o := range db.observations {
		if o.UserID != userID {
			continue
		}
		if !from.IsZero() && o.RecordedAt.Before(from.UTC()) {
			continue
		}
		if !to.IsZero() && o.RecordedAt.After(to.UTC()) {
			continue
		}
		result = append(result, o)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].RecordedAt.Before(result[j].RecordedAt)
	})
	return result, nil
}

// --- UserRepository ---

// GetByUsername retrieves a user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return nil, errors.New("user already exists")
		}
	}

	db.userIDCounter++
	u := &domain.User{
		ID:           db.userIDCounter,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	db.users = append(db.users, u)
	return u, nil
}

// Count returns the total number of users.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo wraps the DB as a SessionRepository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessions[token] = &domain.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[token]; ok {
		return s, nil
	}
	return nil, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now()
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
		}
	}
	return nil
}
