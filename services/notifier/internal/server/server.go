package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"knockknock/internal/util"
	"knockknock/services/notifier/internal/app"
)

// Server exposes health and a manual trigger for the notification job.
type Server struct {
	app *app.App
	mux *http.ServeMux
}

// New constructs the server with routes configured.
func New(a *app.App) *Server {
	s := &Server{app: a, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /run", s.handleRun)
	return s
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("notifier", util.WithAPIHeaders(s.mux)))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	res, err := s.app.TryRun(r.Context())
	switch {
	case errors.Is(err, app.ErrRunInProgress):
		writeJSON(w, http.StatusConflict, map[string]string{"message": err.Error()})
	case err != nil:
		writeJSON(w, http.StatusBadGateway, runFailure{Message: err.Error(), Result: res})
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

type runFailure struct {
	Message string        `json:"message"`
	Result  app.RunResult `json:"result"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
