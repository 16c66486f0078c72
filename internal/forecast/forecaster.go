package forecast

import (
	"iter"
	"time"

	"github.com/pkg/errors"
)

// Horizon bounds for a forecast request, in days.
const (
	MinHorizonDays = 1
	MaxHorizonDays = 30
)

// Point is one projected (date, weight) pair. Produced transiently and
// never persisted.
type Point struct {
	Date   time.Time `json:"date"`
	Weight float64   `json:"predictedWeight"`
	UserID int64     `json:"userId"`
}

// Forecast projects horizonDays daily predictions starting the day after
// lastObserved. The returned sequence is finite, ordered by date
// ascending, and computed lazily; every call builds a fresh sequence with
// no shared iterator state.
//
// Each step is a single independent model inference: the day ordinal
// advances, meal timing takes the per-user training median, and predicted
// weights are never fed back as inputs, so errors cannot compound through
// the target variable.
func Forecast(m *Model, lastObserved time.Time, horizonDays int) (iter.Seq[Point], error) {
	if horizonDays < MinHorizonDays || horizonDays > MaxHorizonDays {
		return nil, errors.Wrapf(ErrInvalidHorizon, "horizon_days=%d, want %d..%d",
			horizonDays, MinHorizonDays, MaxHorizonDays)
	}

	start := midnight(lastObserved)
	st := m.Stats()

	return func(yield func(Point) bool) {
		for day := 1; day <= horizonDays; day++ {
			date := start.AddDate(0, 0, day)
			row := futureRow(st, date)
			if !yield(Point{Date: date, Weight: m.predictRow(row), UserID: m.UserID}) {
				return
			}
		}
	}, nil
}

// Points collects a forecast into a slice for callers that need the whole
// trajectory at once (e.g. the chart boundary).
func Points(m *Model, lastObserved time.Time, horizonDays int) ([]Point, error) {
	seq, err := Forecast(m, lastObserved, horizonDays)
	if err != nil {
		return nil, err
	}
	out := make([]Point, 0, horizonDays)
	for p := range seq {
		out = append(out, p)
	}
	return out, nil
}

// futureRow synthesizes the feature row for a future date. Meal timing
// cannot be known ahead of time; the median established during training
// stands in, with the known-indicator left at zero.
func futureRow(st FeatureStats, date time.Time) []float64 {
	at := time.Date(date.Year(), date.Month(), date.Day(),
		int(st.HourMedian), 0, 0, 0, date.Location())
	return featureRow(st, at, 0, false)
}
