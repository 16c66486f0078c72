package adapthttp

import (
	"errors"
	"net/http"
	"time"

	"weighttrend/internal/app"
	"weighttrend/internal/forecast"
)

func (s *Server) handleChartsSeries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if userFromContext(r) == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	now := time.Now()
	from, err := dateQuery(r, "from", now.AddDate(0, 0, -7))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	to, err := dateQuery(r, "to", now)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	to = to.Add(24*time.Hour - time.Nanosecond)

	unit := r.URL.Query().Get("unit")
	withForecast := r.URL.Query().Get("forecast") == "1"

	series, err := s.charts.GetSeries(r.Context(), from, to, unit, withForecast)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"from":   localDayString(from),
		"to":     localDayString(to),
		"today":  localDayString(now),
		"series": series,
	})
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user := userFromContext(r)
	if user == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	days, err := intQuery(r, "days", 0) // 0 = configured default
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	points, err := s.forecasts.ForecastUser(r.Context(), user.ID, days)
	switch {
	case errors.Is(err, forecast.ErrInvalidHorizon):
		writeError(w, http.StatusBadRequest, err)
		return
	case errors.Is(err, forecast.ErrInsufficientData), errors.Is(err, app.ErrForecastDisabled):
		writeJSON(w, http.StatusOK, map[string]any{
			"available": false,
			"reason":    err.Error(),
		})
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"available": true,
		"days":      len(points),
		"points":    points,
	})
}
