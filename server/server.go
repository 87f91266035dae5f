// Package server exposes the turn pipeline over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nanxi-ai/smartcs/agent/agents/orchestrator"
	contractx "github.com/nanxi-ai/smartcs/agent/contract"
	statex "github.com/nanxi-ai/smartcs/agent/state"
)

// Handler wires HTTP routes to the orchestrator and the session store.
type Handler struct {
	orch      *orchestrator.Orchestrator
	store     *statex.SessionStore
	retrieval bool
}

// New creates the handler. retrieval reports whether a knowledge index is
// configured, for the health endpoint.
func New(orch *orchestrator.Orchestrator, store *statex.SessionStore, retrieval bool) *Handler {
	return &Handler{orch: orch, store: store, retrieval: retrieval}
}

// Router assembles the chi router with the standard middleware stack.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Post("/chat", h.handleChat)
	r.Get("/session/{sessionID}", h.handleGetSession)
	r.Delete("/session/{sessionID}", h.handleDeleteSession)
	r.Get("/stats", h.handleStats)
	r.Get("/health", h.handleHealth)

	return r
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

type chatResponse struct {
	orchestrator.TurnResult
	Timestamp string `json:"timestamp"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload chatRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Message == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	sessionID := payload.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	result, err := h.orch.HandleMessage(r.Context(), sessionID, payload.UserID, payload.Message)
	if err != nil {
		switch {
		case errors.Is(err, orchestrator.ErrInvalidMessage), errors.Is(err, orchestrator.ErrInvalidSession):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, contractx.ErrModelInvoke):
			log.Error().Err(err).Str("session_id", sessionID).Msg("turn failed on external service")
			respondError(w, http.StatusServiceUnavailable, "model service unavailable")
		default:
			log.Error().Err(err).Str("session_id", sessionID).Msg("turn failed")
			respondError(w, http.StatusInternalServerError, "failed to process message")
		}
		return
	}

	respondJSON(w, http.StatusOK, chatResponse{
		TurnResult: result,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}

type sessionSummary struct {
	SessionID      string           `json:"session_id"`
	UserID         string           `json:"user_id,omitempty"`
	MessageCount   int              `json:"message_count"`
	Intent         string           `json:"intent,omitempty"`
	Status         statex.Status    `json:"status"`
	RequiresHuman  bool             `json:"requires_human"`
	RecentMessages []statex.Message `json:"recent_messages"`
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	st, ok := h.store.Get(sessionID)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	respondJSON(w, http.StatusOK, sessionSummary{
		SessionID:      st.SessionID,
		UserID:         st.UserID,
		MessageCount:   len(st.Messages),
		Intent:         st.Intent,
		Status:         st.Status,
		RequiresHuman:  st.RequiresHuman,
		RecentMessages: st.RecentMessages(5),
	})
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if !h.store.Delete(sessionID) {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "session " + sessionID + " deleted"})
}

func (h *Handler) handleStats(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"active_sessions": h.store.Len(),
		"total_messages":  h.store.TotalMessages(),
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"services": map[string]bool{
			"orchestrator":   true,
			"knowledge_base": h.retrieval,
		},
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
