// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"weighttrend/internal/app"
)

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	records   *app.RecordsService
	charts    *app.ChartsService
	forecasts *app.ForecastService
	auth      *app.AuthService
	log       *logrus.Logger
	webDir    string

	disableAuth bool // tests only
}

// New creates a Server wired to the given application services.
func New(rs *app.RecordsService, cs *app.ChartsService, fs *app.ForecastService, as *app.AuthService, log *logrus.Logger, webDir string) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{records: rs, charts: cs, forecasts: fs, auth: as, log: log, webDir: webDir}
}

// WithoutAuth disables session checks. Test use only.
func (s *Server) WithoutAuth() *Server {
	s.disableAuth = true
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	authAPI := http.NewServeMux()
	authAPI.HandleFunc("/login", s.handleLogin)
	authAPI.HandleFunc("/logout", s.handleLogout)
	authAPI.HandleFunc("/register", s.handleRegister)

	api := http.NewServeMux()
	api.HandleFunc("/health", s.handleHealth)

	api.HandleFunc("/records", s.handleRecords)
	api.HandleFunc("/records/update", s.handleRecordUpdate)
	api.HandleFunc("/records/delete", s.handleRecordDelete)
	api.HandleFunc("/records/export", s.handleRecordExport)

	api.HandleFunc("/charts/series", s.handleChartsSeries)
	api.HandleFunc("/forecast", s.handleForecast)

	root := http.NewServeMux()
	root.Handle("/api/auth/", http.StripPrefix("/api/auth", authAPI))
	root.Handle("/api/", http.StripPrefix("/api", s.authMiddleware(api)))
	root.Handle("/", spaFromDisk(s.webDir))

	return s.requestLogger(withNoCache(root))
}

// handleHealth reports liveness and how many of the configured users
// have registered.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	n, err := s.auth.RegisteredUsers(r.Context())
	if err != nil {
		s.log.WithError(err).Warn("user count unavailable")
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "registeredUsers": n})
}
