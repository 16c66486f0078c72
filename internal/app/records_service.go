// Package app holds the application services and business logic.
package app

import (
	"context"
	"errors"
	"time"

	"weighttrend/internal/domain"
	"weighttrend/internal/forecast"
)

// RecordsService encapsulates observation CRUD use cases. Mutations drop
// the user's cached model so the next forecast sees the new history.
type RecordsService struct {
	repo    domain.ObservationRepository
	trainer *forecast.Trainer
}

// NewRecordsService creates a RecordsService backed by the given
// repository. trainer may be nil when forecasting is disabled.
func NewRecordsService(repo domain.ObservationRepository, trainer *forecast.Trainer) *RecordsService {
	return &RecordsService{repo: repo, trainer: trainer}
}

// Add validates and stores a new observation. A zero recordedAt means now.
func (s *RecordsService) Add(ctx context.Context, userID int64, weight float64, mealMinutes int, recordedAt time.Time) (int64, error) {
	if err := validateObservation(weight, mealMinutes); err != nil {
		return 0, err
	}
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}
	id, err := s.repo.AddObservation(ctx, userID, weight, mealMinutes, recordedAt)
	if err != nil {
		return 0, err
	}
	s.invalidate(userID)
	return id, nil
}

// Update rewrites an existing observation and marks it edited.
func (s *RecordsService) Update(ctx context.Context, userID, id int64, weight float64, mealMinutes int, recordedAt time.Time) (bool, error) {
	if err := validateObservation(weight, mealMinutes); err != nil {
		return false, err
	}
	ok, err := s.repo.UpdateObservation(ctx, userID, id, weight, mealMinutes, recordedAt)
	if err != nil {
		return false, err
	}
	if ok {
		s.invalidate(userID)
	}
	return ok, nil
}

// Delete removes an observation by id.
func (s *RecordsService) Delete(ctx context.Context, userID, id int64) (bool, error) {
	ok, err := s.repo.DeleteObservation(ctx, userID, id)
	if err != nil {
		return false, err
	}
	if ok {
		s.invalidate(userID)
	}
	return ok, nil
}

// ListRange returns the user's observations within [from, to], ascending.
func (s *RecordsService) ListRange(ctx context.Context, userID int64, from, to time.Time) ([]domain.Observation, error) {
	return s.repo.ListObservationsRange(ctx, userID, from, to)
}

// History returns the user's full observation history, ascending.
func (s *RecordsService) History(ctx context.Context, userID int64) ([]domain.Observation, error) {
	return s.repo.ListObservations(ctx, userID)
}

func (s *RecordsService) invalidate(userID int64) {
	if s.trainer != nil {
		s.trainer.Invalidate(userID)
	}
}

func validateObservation(weight float64, mealMinutes int) error {
	if weight <= 0 {
		return errors.New("weight must be > 0")
	}
	if !domain.ValidMealTime(mealMinutes) {
		return errors.New("minutesSinceMeal must be 0 (unknown) or a 30-minute step between 30 and 210")
	}
	return nil
}
