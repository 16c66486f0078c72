package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"weighttrend/internal/app"
	"weighttrend/internal/domain"
	"weighttrend/internal/forecast"
)

func TestAddObservation_Validation(t *testing.T) {
	svc := app.NewRecordsService(&mockObservationRepo{}, nil)

	tests := []struct {
		name   string
		weight float64
		meal   int
	}{
		{"zero weight", 0, 0},
		{"negative weight", -70, 0},
		{"meal below minimum", 80, 15},
		{"meal off the half-hour grid", 80, 45},
		{"meal above maximum", 80, 240},
		{"negative meal", 80, -30},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Add(context.Background(), 1, tc.weight, tc.meal, time.Time{})
			if err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestAddObservation_DefaultsRecordedAtToNow(t *testing.T) {
	var got time.Time
	repo := &mockObservationRepo{
		addFn: func(_ context.Context, _ int64, _ float64, _ int, at time.Time) (int64, error) {
			got = at
			return 42, nil
		},
	}
	svc := app.NewRecordsService(repo, nil)

	id, err := svc.Add(context.Background(), 1, 80, domain.MealUnknown, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 42 {
		t.Fatalf("unexpected id: %d", id)
	}
	if got.IsZero() {
		t.Fatal("expected recordedAt to default to now")
	}
}

func TestAddObservation_AcceptsMealGrid(t *testing.T) {
	svc := app.NewRecordsService(&mockObservationRepo{}, nil)
	for _, meal := range []int{0, 30, 60, 90, 120, 150, 180, 210} {
		if _, err := svc.Add(context.Background(), 1, 80, meal, time.Now()); err != nil {
			t.Fatalf("meal=%d: unexpected error: %v", meal, err)
		}
	}
}

func TestUpdateObservation_NotFound(t *testing.T) {
	repo := &mockObservationRepo{
		updateFn: func(_ context.Context, _, _ int64, _ float64, _ int, _ time.Time) (bool, error) {
			return false, nil
		},
	}
	svc := app.NewRecordsService(repo, nil)
	ok, err := svc.Update(context.Background(), 1, 99, 80, 0, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for missing record")
	}
}

func TestDeleteObservation_RepoError(t *testing.T) {
	repo := &mockObservationRepo{
		deleteFn: func(_ context.Context, _, _ int64) (bool, error) {
			return false, errors.New("db down")
		},
	}
	svc := app.NewRecordsService(repo, nil)
	if _, err := svc.Delete(context.Background(), 1, 7); err == nil {
		t.Fatal("expected error from repo")
	}
}

func TestMutationsInvalidateCachedModel(t *testing.T) {
	trainer := forecast.NewTrainer(forecast.NewBuilder(5), forecast.DefaultHyperparameters(), nil)
	obs := weekOfWeights(1, 8, func(int) float64 { return 70 })

	if _, err := trainer.GetOrTrain(context.Background(), 1, obs); err != nil {
		t.Fatalf("train: %v", err)
	}
	if got := trainer.Trainings(); got != 1 {
		t.Fatalf("expected 1 training, got %d", got)
	}

	svc := app.NewRecordsService(&mockObservationRepo{}, trainer)
	if _, err := svc.Add(context.Background(), 1, 70.2, domain.MealUnknown, time.Now()); err != nil {
		t.Fatalf("add: %v", err)
	}

	// Same history, but the cache entry is gone: must retrain.
	if _, err := trainer.GetOrTrain(context.Background(), 1, obs); err != nil {
		t.Fatalf("retrain: %v", err)
	}
	if got := trainer.Trainings(); got != 2 {
		t.Fatalf("expected retrain after mutation, trainings=%d", got)
	}
}
