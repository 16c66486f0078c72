package forecast

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainedModel(t *testing.T, weight func(i int) float64, n int) *Model {
	t.Helper()
	tr := newTestTrainer()
	m, err := tr.GetOrTrain(context.Background(), 1, dailyHistory(1, n, weight, noMeal))
	require.NoError(t, err)
	return m
}

func TestForecastRejectsBadHorizon(t *testing.T) {
	m := trainedModel(t, constWeight(70), 8)

	for _, days := range []int{0, -1, 31, 100} {
		_, err := Forecast(m, m.Stats().LastObserved, days)
		require.Error(t, err, "days=%d", days)
		assert.True(t, errors.Is(err, ErrInvalidHorizon), "days=%d", days)
	}
}

func TestForecastDatesAndStability(t *testing.T) {
	m := trainedModel(t, constWeight(70), 14)
	last := m.Stats().LastObserved

	points, err := Points(m, last, 7)
	require.NoError(t, err)
	require.Len(t, points, 7)

	wantFirst := midnight(last).AddDate(0, 0, 1)
	for i, p := range points {
		assert.Equal(t, wantFirst.AddDate(0, 0, i), p.Date, "point %d", i)
		assert.InDelta(t, 70.0, p.Weight, 0.5, "point %d", i)
		assert.EqualValues(t, 1, p.UserID)
	}
}

func TestForecastTrendStaysBounded(t *testing.T) {
	// Steady loss of 100g/day over 60 days: 82.0 down to 76.1.
	m := trainedModel(t, func(i int) float64 { return 82.0 - 0.1*float64(i) }, 60)

	points, err := Points(m, m.Stats().LastObserved, 30)
	require.NoError(t, err)
	require.Len(t, points, 30)

	for i, p := range points {
		assert.False(t, math.IsNaN(p.Weight) || math.IsInf(p.Weight, 0), "point %d", i)
		assert.True(t, p.Weight > 0, "point %d", i)
		assert.True(t, p.Weight >= 74.0 && p.Weight <= 84.0, "point %d predicted %f", i, p.Weight)
	}
}

func TestForecastSequenceIsRepeatable(t *testing.T) {
	m := trainedModel(t, constWeight(70), 10)
	last := m.Stats().LastObserved

	seq, err := Forecast(m, last, 5)
	require.NoError(t, err)

	collect := func() []Point {
		var out []Point
		for p := range seq {
			out = append(out, p)
		}
		return out
	}
	first := collect()
	second := collect()
	assert.Equal(t, first, second)
	assert.Len(t, first, 5)
}

func TestForecastEarlyBreak(t *testing.T) {
	m := trainedModel(t, constWeight(70), 10)
	seq, err := Forecast(m, m.Stats().LastObserved, 30)
	require.NoError(t, err)

	n := 0
	for range seq {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestNaiveForecastIsFlat(t *testing.T) {
	obs := dailyHistory(1, 8, func(i int) float64 { return 70 + float64(i)*0.3 }, noMeal)
	m := NewNaiveModel(1, obs)

	points, err := Points(m, m.Stats().LastObserved, 10)
	require.NoError(t, err)
	require.Len(t, points, 10)

	last := obs[len(obs)-1]
	for _, p := range points {
		assert.Equal(t, last.Weight, p.Weight)
		assert.True(t, p.Date.After(last.RecordedAt))
	}
}

func TestMidnightKeepsLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	at := time.Date(2026, 3, 8, 22, 15, 0, 0, loc)
	m := midnight(at)
	assert.Equal(t, 0, m.Hour())
	assert.Equal(t, loc, m.Location())
}
