package adapthttp

import (
	"fmt"
	"net/http"
	"time"
)

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)
	if user == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		// Default range mirrors the UI: the trailing week.
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

		items, err := s.records.ListRange(r.Context(), user.ID, from, to)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"from":  localDayString(from),
			"to":    localDayString(to),
			"items": items,
		})

	case http.MethodPost:
		var body struct {
			Weight           float64    `json:"weight"`
			MinutesSinceMeal int        `json:"minutesSinceMeal"`
			RecordedAt       *time.Time `json:"recordedAt"`
		}
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		at := time.Time{}
		if body.RecordedAt != nil {
			at = *body.RecordedAt
		}
		id, err := s.records.Add(r.Context(), user.ID, body.Weight, body.MinutesSinceMeal, at)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": id})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleRecordUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user := userFromContext(r)
	if user == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		ID               int64      `json:"id"`
		Weight           float64    `json:"weight"`
		MinutesSinceMeal int        `json:"minutesSinceMeal"`
		RecordedAt       *time.Time `json:"recordedAt"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	at := time.Time{}
	if body.RecordedAt != nil {
		at = *body.RecordedAt
	}
	ok, err := s.records.Update(r.Context(), user.ID, body.ID, body.Weight, body.MinutesSinceMeal, at)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("record %d not found", body.ID))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleRecordDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user := userFromContext(r)
	if user == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		ID int64 `json:"id"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ok, err := s.records.Delete(r.Context(), user.ID, body.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("record %d not found", body.ID))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleRecordExport dumps the user's full raw history as JSON.
func (s *Server) handleRecordExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user := userFromContext(r)
	if user == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	items, err := s.records.History(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", user.Username+"-weights.json"))
	writeJSON(w, http.StatusOK, map[string]any{
		"username":   user.Username,
		"exportedAt": time.Now(),
		"records":    items,
	})
}
