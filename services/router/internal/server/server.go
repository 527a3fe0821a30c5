package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"knockknock/internal/util"
	"knockknock/services/router/internal/app"
)

const maxBodyBytes = 1 << 20

// Limiter caps translate calls per client.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	Limiter        Limiter
	TrustedProxies *util.TrustedProxies
}

// Server exposes the phrase API.
type Server struct {
	app            *app.App
	limiter        Limiter
	trustedProxies *util.TrustedProxies
	mux            *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app:            cfg.App,
		limiter:        cfg.Limiter,
		trustedProxies: cfg.TrustedProxies,
		mux:            http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	var h http.Handler = s.mux
	h = util.WithCORS(util.PhraseAPICORS, h)
	h = util.WithAPIHeaders(h)
	h = util.WithRequestLog("router", h)
	return util.WithRequestID(h)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /{$}", s.handlePhrase)
	s.mux.HandleFunc("POST /phrases", s.handlePhrase)

	s.mux.HandleFunc("/healthz", methodNotAllowed("GET, HEAD"))
	s.mux.HandleFunc("/{$}", methodNotAllowed("OPTIONS, POST"))
	s.mux.HandleFunc("/phrases", methodNotAllowed("OPTIONS, POST"))
	s.mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, "not found")
	})
}

func methodNotAllowed(allow string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Allow", allow)
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePhrase(w http.ResponseWriter, r *http.Request) {
	logger := util.LoggerFromContext(r.Context())
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("panic while handling request", "panic", rec)
			writeMessage(w, http.StatusBadRequest, "internal error")
		}
	}()

	// unreadable bodies classify as {}
	body, _ := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	req, err := app.ParseRequest(body)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, ok := req.(app.TranslateRequest); ok && s.limiter != nil {
		key := "ip:" + util.ClientIP(r, s.trustedProxies)
		allowed, err := s.limiter.Allow(r.Context(), key)
		if err != nil {
			logger.Error("rate limiter unavailable", "err", err)
		}
		if !allowed {
			writeMessage(w, http.StatusTooManyRequests, app.ErrRateLimited.Error())
			return
		}
	}

	resp, err := s.app.Dispatch(r.Context(), req)
	if err != nil {
		var tErr *app.TranslateError
		if !errors.As(err, &tErr) && !errors.Is(err, app.ErrInvalidPhrase) {
			logger.Error("phrase request failed", "err", err)
		}
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, resp.Status, resp.Body)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
