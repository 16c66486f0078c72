package domain

import (
	"context"
	"time"
)

// MealUnknown is the sentinel for observations recorded without meal timing.
const MealUnknown = 0

// Meal-timing bounds, in minutes. Entries are recorded in 30-minute steps;
// MealTimeMax means "3 hours 30 minutes or more".
const (
	MealTimeMin  = 30
	MealTimeMax  = 210
	MealTimeStep = 30
)

// Observation is one recorded weight measurement with optional meal-timing
// metadata. Immutable from the forecasting core's point of view: the core
// only ever reads copies handed to it by the repository.
type Observation struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"userId"`
	Weight           float64   `json:"weight"`
	MinutesSinceMeal int       `json:"minutesSinceMeal"`
	Edited           bool      `json:"edited"`
	RecordedAt       time.Time `json:"recordedAt"`
}

// MealKnown reports whether the observation carries meal timing.
func (o Observation) MealKnown() bool {
	return o.MinutesSinceMeal != MealUnknown
}

// ValidMealTime reports whether m is MealUnknown or one of the recordable
// 30-minute steps between MealTimeMin and MealTimeMax.
func ValidMealTime(m int) bool {
	if m == MealUnknown {
		return true
	}
	return m >= MealTimeMin && m <= MealTimeMax && m%MealTimeStep == 0
}

// ObservationRepository is the port for the record store. Listings are
// returned ordered by RecordedAt ascending.
type ObservationRepository interface {
	AddObservation(ctx context.Context, userID int64, weight float64, minutesSinceMeal int, recordedAt time.Time) (int64, error)
	UpdateObservation(ctx context.Context, userID, id int64, weight float64, minutesSinceMeal int, recordedAt time.Time) (bool, error)
	DeleteObservation(ctx context.Context, userID, id int64) (bool, error)
	ListObservations(ctx context.Context, userID int64) ([]Observation, error)
	ListObservationsRange(ctx context.Context, userID int64, from, to time.Time) ([]Observation, error)
}
