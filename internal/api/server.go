package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kiselevos/lingua_practice_bot/internal/gateway"
	"github.com/kiselevos/lingua_practice_bot/internal/observability"
	"github.com/kiselevos/lingua_practice_bot/internal/session"
)

// Server - служебный HTTP API для операторов пула комнат.
type Server struct {
	coordinator *session.Coordinator
	metrics     *observability.Metrics
}

func New(coordinator *session.Coordinator, metrics *observability.Metrics) *Server {
	return &Server{
		coordinator: coordinator,
		metrics:     metrics,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/api/sessions", s.handleStartSession)
	r.Get("/api/sessions", s.handleListSessions)
	r.Get("/api/sessions/{groupID}", s.handleGetSession)
	r.Delete("/api/sessions/{groupID}", s.handleStopSession)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"active_sessions": len(s.coordinator.Sessions()),
	})
}

type startSessionRequest struct {
	GroupID         string `json:"group_id"`
	Topic           string `json:"topic"`
	DurationMinutes int    `json:"duration_minutes"`
}

type sessionResponse struct {
	GroupID          int64     `json:"group_id"`
	Topic            string    `json:"topic"`
	DurationMinutes  int       `json:"duration_minutes"`
	State            string    `json:"state"`
	InviteLink       string    `json:"invite_link"`
	CreatedAt        time.Time `json:"created_at"`
	VoiceChatStarted bool      `json:"voice_chat_started"`
	PendingTimers    []string  `json:"pending_timers"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	groupID, err := gateway.NormalizeGroupID(req.GroupID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_group_id", err.Error())
		return
	}

	res, err := s.coordinator.StartSession(r.Context(), groupID, req.Topic, req.DurationMinutes)
	if err != nil {
		s.respondCoordinatorError(w, err)
		return
	}

	snap, _ := s.coordinator.Session(res.GroupID)
	respondJSON(w, http.StatusCreated, toSessionResponse(snap))
}

func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	snaps := s.coordinator.Sessions()
	out := make([]sessionResponse, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, toSessionResponse(snap))
	}
	respondJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	groupID, err := gateway.NormalizeGroupID(chi.URLParam(r, "groupID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_group_id", err.Error())
		return
	}

	snap, ok := s.coordinator.Session(groupID)
	if !ok {
		respondError(w, http.StatusNotFound, "session_not_found", "no active session in this group")
		return
	}
	respondJSON(w, http.StatusOK, toSessionResponse(snap))
}

func (s *Server) handleStopSession(w http.ResponseWriter, r *http.Request) {
	groupID, err := gateway.NormalizeGroupID(chi.URLParam(r, "groupID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_group_id", err.Error())
		return
	}

	if err := s.coordinator.StopSession(groupID); err != nil {
		s.respondCoordinatorError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "stopping", "group_id": groupID})
}

func (s *Server) respondCoordinatorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidArgument):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, session.ErrNoSession):
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, session.ErrSessionActive):
		respondError(w, http.StatusConflict, "session_already_active", err.Error())
	case gateway.ReasonOf(err) == gateway.ReasonPermissionDenied:
		respondError(w, http.StatusForbidden, "bot_not_admin", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func toSessionResponse(snap session.Snapshot) sessionResponse {
	timers := make([]string, 0, len(snap.PendingTimers))
	for _, p := range snap.PendingTimers {
		timers = append(timers, string(p))
	}
	return sessionResponse{
		GroupID:          snap.GroupID,
		Topic:            snap.Topic,
		DurationMinutes:  snap.DurationMinutes,
		State:            string(snap.State),
		InviteLink:       snap.InviteLink,
		CreatedAt:        snap.CreatedAt,
		VoiceChatStarted: snap.VoiceChatStarted,
		PendingTimers:    timers,
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errors.New("empty body")
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
