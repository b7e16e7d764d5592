package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/misting-controller/internal/scheduler"
)

type Server struct {
	sched *scheduler.Scheduler
}

type EnabledRequest struct {
	Enabled bool `json:"enabled"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewServer(sched *scheduler.Scheduler) *Server {
	return &Server{sched: sched}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/api/scheduler", s.getScheduler)
	r.Put("/api/scheduler/enabled", s.setEnabled)
	r.Post("/api/scheduler/trigger", s.trigger)

	return r
}

func (s *Server) Start(port int) error {
	addr := fmt.Sprintf("0.0.0.0:%d", port)
	log.Info().Str("address", addr).Msg("Starting REST API server")

	return http.ListenAndServe(addr, s.Routes())
}

func (s *Server) getScheduler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.sched.Snapshot())
}

func (s *Server) setEnabled(w http.ResponseWriter, r *http.Request) {
	var req EnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	s.sched.SetEnabled(req.Enabled)
	log.Info().Bool("enabled", req.Enabled).Msg("Scheduler enabled flag updated via API")
	s.writeJSON(w, http.StatusOK, s.sched.Snapshot())
}

func (s *Server) trigger(w http.ResponseWriter, r *http.Request) {
	if err := s.sched.ForceTrigger(); err != nil {
		s.writeError(w, http.StatusConflict, err.Error())
		return
	}
	s.writeJSON(w, http.StatusAccepted, s.sched.Snapshot())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode API response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, ErrorResponse{Error: msg})
}
