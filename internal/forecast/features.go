package forecast

import (
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	"weighttrend/internal/domain"
)

// DefaultMinObservations is the training threshold applied when the
// builder is constructed without an explicit one.
const DefaultMinObservations = 5

// Column layout of a feature row. The meal columns are appended only when
// the user has recorded meal timing at least once; otherwise the feature
// is dropped for that user's model.
const (
	colDayOrdinal = iota
	colWeekday
	colHour
	colMealMinutes
	colMealKnown
)

// FeatureStats holds the per-user aggregates established while building
// features. The forecaster uses them to synthesize rows for future dates.
type FeatureStats struct {
	FirstDay      time.Time // local midnight of the earliest observation
	LastObserved  time.Time
	LastOrdinal   float64
	LastWeight    float64
	MealMedian    float64
	HourMedian    float64
	HasMealColumn bool
}

// FeatureSet is the numeric training view of one user's history: one row
// per observation, same order, weights as targets.
type FeatureSet struct {
	X     [][]float64
	Y     []float64
	Stats FeatureStats
}

// Builder converts raw observations into a feature matrix and target
// vector. Building is deterministic: identical input yields identical
// output.
type Builder struct {
	minObservations int
}

// NewBuilder creates a Builder refusing to build below minObservations
// (DefaultMinObservations when <= 0).
func NewBuilder(minObservations int) *Builder {
	if minObservations <= 0 {
		minObservations = DefaultMinObservations
	}
	return &Builder{minObservations: minObservations}
}

// Build derives one feature row per observation. Unknown meal timing is
// imputed with the per-user median of known values; day ordinals are
// relative to the user's own earliest observation, so two users' models
// are independently scaled.
func (b *Builder) Build(observations []domain.Observation) (*FeatureSet, error) {
	if len(observations) < b.minObservations {
		return nil, errors.Wrapf(ErrInsufficientData, "have %d observations, need %d",
			len(observations), b.minObservations)
	}

	obs := sortedByTime(observations)
	st := buildStats(obs)

	set := &FeatureSet{
		X:     make([][]float64, 0, len(obs)),
		Y:     make([]float64, 0, len(obs)),
		Stats: st,
	}
	for _, o := range obs {
		set.X = append(set.X, featureRow(st, o.RecordedAt, o.MinutesSinceMeal, o.MealKnown()))
		set.Y = append(set.Y, o.Weight)
	}
	return set, nil
}

// featureRow lays out a single row for the given timestamp and meal
// timing. known=false rows take the imputed median with a zero indicator.
func featureRow(st FeatureStats, at time.Time, mealMinutes int, known bool) []float64 {
	row := []float64{
		daysBetween(st.FirstDay, at),
		float64(at.Weekday()),
		float64(at.Hour()),
	}
	if !st.HasMealColumn {
		return row
	}
	meal := st.MealMedian
	indicator := 0.0
	if known {
		meal = float64(mealMinutes)
		indicator = 1.0
	}
	return append(row, meal, indicator)
}

func buildStats(obs []domain.Observation) FeatureStats {
	first := obs[0].RecordedAt
	last := obs[len(obs)-1]

	var mealValues []float64
	hours := make([]float64, 0, len(obs))
	for _, o := range obs {
		if o.MealKnown() {
			mealValues = append(mealValues, float64(o.MinutesSinceMeal))
		}
		hours = append(hours, float64(o.RecordedAt.Hour()))
	}

	st := FeatureStats{
		FirstDay:     midnight(first),
		LastObserved: last.RecordedAt,
		LastWeight:   last.Weight,
		HourMedian:   medianOf(hours),
	}
	st.LastOrdinal = daysBetween(st.FirstDay, last.RecordedAt)
	if len(mealValues) > 0 {
		st.HasMealColumn = true
		st.MealMedian = medianOf(mealValues)
	}
	return st
}

// medianOf wraps stats.Median; the inputs here are never empty, so an
// error collapses to zero rather than propagating.
func medianOf(values []float64) float64 {
	m, err := stats.Median(values)
	if err != nil {
		return 0
	}
	return m
}

// sortedByTime returns a copy ordered by RecordedAt ascending. The input
// contract says ordered already, but builds and fingerprints must agree
// for any traversal order that preserves timestamps.
func sortedByTime(observations []domain.Observation) []domain.Observation {
	obs := make([]domain.Observation, len(observations))
	copy(obs, observations)
	sort.SliceStable(obs, func(i, j int) bool {
		return obs[i].RecordedAt.Before(obs[j].RecordedAt)
	})
	return obs
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from a to b, DST-safe.
func daysBetween(a, b time.Time) float64 {
	return math.Round(midnight(b).Sub(midnight(a)).Hours() / 24)
}
