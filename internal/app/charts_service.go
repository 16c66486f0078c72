package app

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"weighttrend/internal/domain"
	"weighttrend/internal/forecast"
)

// ChartsService assembles the chart payload consumed by the renderer:
// each configured user's history in the requested range plus, on request,
// the forecast trajectory.
type ChartsService struct {
	records   domain.ObservationRepository
	users     domain.UserRepository
	forecasts *ForecastService
	usernames []string
	unit      string
	log       *logrus.Entry
}

// NewChartsService creates a ChartsService for the configured users.
// unit is the deployment's storage unit.
func NewChartsService(records domain.ObservationRepository, users domain.UserRepository, forecasts *ForecastService, usernames []string, unit string, log *logrus.Entry) *ChartsService {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &ChartsService{
		records:   records,
		users:     users,
		forecasts: forecasts,
		usernames: usernames,
		unit:      unit,
		log:       log,
	}
}

// SeriesPoint is one historical data point on the chart.
type SeriesPoint struct {
	Date   time.Time `json:"date"`
	Weight float64   `json:"weight"`
	Edited bool      `json:"edited,omitempty"`
}

// UserSeries is one user's chart data.
type UserSeries struct {
	UserID   int64            `json:"userId"`
	Username string           `json:"username"`
	History  []SeriesPoint    `json:"history"`
	Forecast []forecast.Point `json:"forecast,omitempty"`
}

// GetSeries returns chart data for every configured user that has
// registered. A user whose history is too short for a forecast still gets
// their history back; the chart is never blank because of a model error.
func (s *ChartsService) GetSeries(ctx context.Context, from, to time.Time, unit string, withForecast bool) ([]UserSeries, error) {
	unit, err := domain.ParseUnit(unit, s.unit)
	if err != nil {
		return nil, err
	}

	series := make([]UserSeries, 0, len(s.usernames))
	for _, name := range s.usernames {
		user, err := s.users.GetByUsername(ctx, name)
		if err != nil {
			return nil, err
		}
		if user == nil {
			continue // configured but not yet registered
		}

		observations, err := s.records.ListObservationsRange(ctx, user.ID, from, to)
		if err != nil {
			return nil, err
		}

		us := UserSeries{
			UserID:   user.ID,
			Username: user.Username,
			History:  make([]SeriesPoint, 0, len(observations)),
		}
		for _, o := range observations {
			us.History = append(us.History, SeriesPoint{
				Date:   o.RecordedAt,
				Weight: domain.ConvertWeight(o.Weight, s.unit, unit),
				Edited: o.Edited,
			})
		}

		if withForecast {
			us.Forecast = s.forecastFor(ctx, user.ID, unit)
		}
		series = append(series, us)
	}
	return series, nil
}

// forecastFor fetches the forecast trajectory, converted to the requested
// unit. Insufficient data and disabled forecasting degrade to no forecast
// line; unexpected errors are logged but never blank the chart.
func (s *ChartsService) forecastFor(ctx context.Context, userID int64, unit string) []forecast.Point {
	points, err := s.forecasts.ForecastUser(ctx, userID, 0)
	if err != nil {
		if !errors.Is(err, forecast.ErrInsufficientData) && !errors.Is(err, ErrForecastDisabled) {
			s.log.WithField("user", userID).WithError(err).Warn("forecast unavailable")
		}
		return nil
	}
	if unit != s.unit {
		for i := range points {
			points[i].Weight = domain.ConvertWeight(points[i].Weight, s.unit, unit)
		}
	}
	return points
}
