// Package forecast turns a user's weight history into a trained
// gradient-boosted regression model and projects a future trajectory.
package forecast

import "github.com/pkg/errors"

var (
	// ErrInsufficientData indicates too few observations to train a model.
	// Callers recover by showing history without a forecast.
	ErrInsufficientData = errors.New("not enough observations to train")
	// ErrTrainingFailed indicates the fit failed numerically. Callers
	// recover by falling back to a naive flat-line model.
	ErrTrainingFailed = errors.New("model training failed")
	// ErrInvalidHorizon indicates a horizon outside [MinHorizonDays,
	// MaxHorizonDays]. Rejected at the boundary, never clamped.
	ErrInvalidHorizon = errors.New("forecast horizon out of range")
)
