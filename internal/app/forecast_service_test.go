package app_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"weighttrend/internal/app"
	"weighttrend/internal/domain"
	"weighttrend/internal/forecast"
)

func newForecastService(repo domain.ObservationRepository, enabled bool, horizon int) *app.ForecastService {
	trainer := forecast.NewTrainer(forecast.NewBuilder(5), forecast.DefaultHyperparameters(), nil)
	return app.NewForecastService(repo, trainer, enabled, horizon, nil)
}

func TestForecastUser_Disabled(t *testing.T) {
	svc := newForecastService(&mockObservationRepo{}, false, 30)
	_, err := svc.ForecastUser(context.Background(), 1, 7)
	if !errors.Is(err, app.ErrForecastDisabled) {
		t.Fatalf("expected ErrForecastDisabled, got %v", err)
	}
}

func TestForecastUser_InsufficientData(t *testing.T) {
	repo := &mockObservationRepo{
		listFn: func(_ context.Context, userID int64) ([]domain.Observation, error) {
			return weekOfWeights(userID, 3, func(int) float64 { return 70 }), nil
		},
	}
	svc := newForecastService(repo, true, 30)
	_, err := svc.ForecastUser(context.Background(), 1, 7)
	if !errors.Is(err, forecast.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestForecastUser_InvalidHorizon(t *testing.T) {
	repo := &mockObservationRepo{
		listFn: func(_ context.Context, userID int64) ([]domain.Observation, error) {
			return weekOfWeights(userID, 10, func(int) float64 { return 70 }), nil
		},
	}
	svc := newForecastService(repo, true, 30)
	_, err := svc.ForecastUser(context.Background(), 1, 31)
	if !errors.Is(err, forecast.ErrInvalidHorizon) {
		t.Fatalf("expected ErrInvalidHorizon, got %v", err)
	}
}

func TestForecastUser_DefaultHorizon(t *testing.T) {
	repo := &mockObservationRepo{
		listFn: func(_ context.Context, userID int64) ([]domain.Observation, error) {
			return weekOfWeights(userID, 10, func(int) float64 { return 70 }), nil
		},
	}
	svc := newForecastService(repo, true, 14)
	points, err := svc.ForecastUser(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 14 {
		t.Fatalf("expected 14 points, got %d", len(points))
	}
}

func TestForecastUser_FallsBackToFlatLine(t *testing.T) {
	// A NaN weight makes the fit fail; the service must degrade to the
	// flat-line model rather than erroring out.
	obs := weekOfWeights(1, 10, func(int) float64 { return 70 })
	obs[4].Weight = math.NaN()
	obs[len(obs)-1].Weight = 71.5
	repo := &mockObservationRepo{
		listFn: func(_ context.Context, _ int64) ([]domain.Observation, error) {
			return obs, nil
		},
	}
	svc := newForecastService(repo, true, 30)

	points, err := svc.ForecastUser(context.Background(), 1, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 7 {
		t.Fatalf("expected 7 points, got %d", len(points))
	}
	for i, p := range points {
		if p.Weight != 71.5 {
			t.Fatalf("point %d: expected flat 71.5, got %f", i, p.Weight)
		}
	}
}

func TestForecastUser_RepoError(t *testing.T) {
	repo := &mockObservationRepo{
		listFn: func(_ context.Context, _ int64) ([]domain.Observation, error) {
			return nil, errors.New("db down")
		},
	}
	svc := newForecastService(repo, true, 30)
	if _, err := svc.ForecastUser(context.Background(), 1, 7); err == nil {
		t.Fatal("expected error")
	}
}
