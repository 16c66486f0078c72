package adapthttp

import (
	"errors"
	"net/http"
	"time"

	"weighttrend/internal/app"
)

const sessionCookie = "session"

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	token, err := s.auth.Login(r.Context(), body.Username, body.Password)
	switch {
	case errors.Is(err, app.ErrAccountLocked):
		until, _ := s.auth.LockedUntil(body.Username)
		writeJSON(w, http.StatusForbidden, map[string]any{
			"error":       err.Error(),
			"lockedUntil": until,
		})
		return
	case errors.Is(err, app.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"error":             err.Error(),
			"remainingAttempts": s.auth.RemainingAttempts(body.Username),
		})
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   86400,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if err := s.auth.Logout(r.Context(), cookie.Value); err != nil {
			s.log.WithError(err).Warn("logout failed")
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.Username == "" || len(body.Password) < 8 {
		writeError(w, http.StatusBadRequest,
			errors.New("username required and password must be at least 8 characters"))
		return
	}

	user, err := s.auth.Register(r.Context(), body.Username, body.Password)
	switch {
	case errors.Is(err, app.ErrUserNotAllowed):
		writeError(w, http.StatusForbidden, err)
		return
	case errors.Is(err, app.ErrUserExists):
		writeError(w, http.StatusConflict, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":       user.ID,
		"username": user.Username,
	})
}
