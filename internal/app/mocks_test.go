package app_test

import (
	"context"
	"time"

	"weighttrend/internal/domain"
)

type mockObservationRepo struct {
	addFn       func(ctx context.Context, userID int64, weight float64, mealMinutes int, at time.Time) (int64, error)
	updateFn    func(ctx context.Context, userID, id int64, weight float64, mealMinutes int, at time.Time) (bool, error)
	deleteFn    func(ctx context.Context, userID, id int64) (bool, error)
	listFn      func(ctx context.Context, userID int64) ([]domain.Observation, error)
	listRangeFn func(ctx context.Context, userID int64, from, to time.Time) ([]domain.Observation, error)
}

func (m *mockObservationRepo) AddObservation(ctx context.Context, userID int64, weight float64, mealMinutes int, at time.Time) (int64, error) {
	if m.addFn != nil {
		return m.addFn(ctx, userID, weight, mealMinutes, at)
	}
	return 1, nil
}

func (m *mockObservationRepo) UpdateObservation(ctx context.Context, userID, id int64, weight float64, mealMinutes int, at time.Time) (bool, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, id, weight, mealMinutes, at)
	}
	return false, nil
}

func (m *mockObservationRepo) DeleteObservation(ctx context.Context, userID, id int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return false, nil
}

func (m *mockObservationRepo) ListObservations(ctx context.Context, userID int64) ([]domain.Observation, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockObservationRepo) ListObservationsRange(ctx context.Context, userID int64, from, to time.Time) ([]domain.Observation, error) {
	if m.listRangeFn != nil {
		return m.listRangeFn(ctx, userID, from, to)
	}
	return nil, nil
}

type mockUserRepo struct {
	byUsernameFn func(ctx context.Context, username string) (*domain.User, error)
	byIDFn       func(ctx context.Context, id int64) (*domain.User, error)
	createFn     func(ctx context.Context, username, passwordHash string) (*domain.User, error)
	countFn      func(ctx context.Context) (int, error)
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.byUsernameFn != nil {
		return m.byUsernameFn(ctx, username)
	}
	return nil, nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.byIDFn != nil {
		return m.byIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, username, passwordHash)
	}
	return &domain.User{ID: 1, Username: username, PasswordHash: passwordHash}, nil
}

func (m *mockUserRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

type mockSessionRepo struct {
	createFn     func(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	getByTokenFn func(ctx context.Context, token string) (*domain.Session, error)
	deleteFn     func(ctx context.Context, token string) error
}

func (m *mockSessionRepo) Create(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	if m.createFn != nil {
		return m.createFn(ctx, userID, token, expiresAt)
	}
	return nil
}

func (m *mockSessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	if m.getByTokenFn != nil {
		return m.getByTokenFn(ctx, token)
	}
	return nil, nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, token string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, token)
	}
	return nil
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) error { return nil }

// weekOfWeights fabricates n consecutive daily observations at 07:00
// local, all without meal timing.
func weekOfWeights(userID int64, n int, weight func(i int) float64) []domain.Observation {
	start := time.Date(2026, 5, 1, 7, 0, 0, 0, time.Local)
	obs := make([]domain.Observation, 0, n)
	for i := 0; i < n; i++ {
		obs = append(obs, domain.Observation{
			ID:         int64(i + 1),
			UserID:     userID,
			Weight:     weight(i),
			RecordedAt: start.AddDate(0, 0, i),
		})
	}
	return obs
}
