package app

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"weighttrend/internal/domain"
	"weighttrend/internal/forecast"
)

// ErrForecastDisabled indicates forecasting is switched off in
// configuration. Callers show history without a forecast.
var ErrForecastDisabled = errors.New("forecasting is disabled")

// ForecastService runs the forecast pipeline: fetch history, train or
// fetch the cached model, generate the trajectory. Synchronous; a request
// runs to completion before returning.
type ForecastService struct {
	repo           domain.ObservationRepository
	trainer        *forecast.Trainer
	enabled        bool
	defaultHorizon int
	log            *logrus.Entry
}

// NewForecastService wires the service. defaultHorizon is used when a
// caller passes horizonDays == 0.
func NewForecastService(repo domain.ObservationRepository, trainer *forecast.Trainer, enabled bool, defaultHorizon int, log *logrus.Entry) *ForecastService {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &ForecastService{
		repo:           repo,
		trainer:        trainer,
		enabled:        enabled,
		defaultHorizon: defaultHorizon,
		log:            log,
	}
}

// ForecastUser projects horizonDays of daily weight predictions for the
// user. Returns forecast.ErrInsufficientData when the history is too
// short and forecast.ErrInvalidHorizon for out-of-range horizons; a
// numerically failed fit falls back to the naive flat-line model instead
// of failing the request.
func (s *ForecastService) ForecastUser(ctx context.Context, userID int64, horizonDays int) ([]forecast.Point, error) {
	if !s.enabled {
		return nil, ErrForecastDisabled
	}
	if horizonDays == 0 {
		horizonDays = s.defaultHorizon
	}

	observations, err := s.repo.ListObservations(ctx, userID)
	if err != nil {
		return nil, err
	}

	model, err := s.trainer.GetOrTrain(ctx, userID, observations)
	if errors.Is(err, forecast.ErrTrainingFailed) {
		s.log.WithField("user", userID).WithError(err).
			Warn("training failed, falling back to flat-line forecast")
		model = forecast.NewNaiveModel(userID, observations)
	} else if err != nil {
		return nil, err
	}

	return forecast.Points(model, model.Stats().LastObserved, horizonDays)
}
