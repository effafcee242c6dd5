package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/simulation-suite/internal/worker"
	"github.com/jwebster45206/simulation-suite/pkg/chat"
	"github.com/jwebster45206/simulation-suite/pkg/queue"
	"github.com/jwebster45206/simulation-suite/pkg/state"
	"github.com/jwebster45206/simulation-suite/pkg/storage"
)

// DefaultPlayerName names the player persona of a new session.
const DefaultPlayerName = "Player"

type ErrorResponse struct {
	Error string `json:"error"`
}

// CreateSessionRequest defines the request body for creating a session.
type CreateSessionRequest struct {
	PlayerName        string `json:"player_name,omitempty"`
	PlayerDescription string `json:"player_description,omitempty"`
}

// RoundEnqueuer queues rounds for the worker.
type RoundEnqueuer interface {
	EnqueueRequest(ctx context.Context, req *queue.Request) error
}

// QueuedPublisher announces queued rounds.
type QueuedPublisher interface {
	PublishRoundQueued(ctx context.Context, sessionID uuid.UUID, requestID string) error
}

// SessionHandler serves the session api.
type SessionHandler struct {
	storage   storage.Storage
	processor *worker.RoundProcessor
	queue     RoundEnqueuer
	publisher QueuedPublisher
	logger    *slog.Logger
}

// NewSessionHandler creates a session handler. queue and publisher may be nil,
// in which case asynchronous rounds are rejected.
func NewSessionHandler(
	storage storage.Storage,
	processor *worker.RoundProcessor,
	queue RoundEnqueuer,
	publisher QueuedPublisher,
	logger *slog.Logger,
) *SessionHandler {
	return &SessionHandler{
		storage:   storage,
		processor: processor,
		queue:     queue,
		publisher: publisher,
		logger:    logger,
	}
}

// ServeHTTP handles HTTP requests for session operations
// Routes:
// POST   /v1/sessions                 - Create a session
// GET    /v1/sessions                 - List session ids
// GET    /v1/sessions/{id}            - Read a session
// DELETE /v1/sessions/{id}            - Delete a session
// POST   /v1/sessions/{id}/rounds     - Run or queue a round
// POST   /v1/sessions/{id}/stop       - Stop the simulation
// POST   /v1/sessions/{id}/resume     - Resume the simulation
// GET    /v1/sessions/{id}/transcript - Render the transcript as HTML
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions"), "/")
	var parts []string
	if path != "" {
		parts = strings.Split(path, "/")
	}

	if len(parts) == 0 {
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r)
		case http.MethodGet:
			h.handleList(w, r)
		default:
			h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST, GET")
		}
		return
	}

	if len(parts) > 2 {
		h.writeError(w, http.StatusNotFound, "Not found")
		return
	}

	sessionID, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid session ID", "id", parts[0], "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.handleRead(w, r, sessionID)
		case http.MethodDelete:
			h.handleDelete(w, r, sessionID)
		default:
			h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, DELETE")
		}
		return
	}

	action := parts[1]
	switch {
	case action == "rounds" && r.Method == http.MethodPost:
		h.handleRound(w, r, sessionID)
	case (action == "stop" || action == "resume") && r.Method == http.MethodPost:
		h.handleStopped(w, r, sessionID, action == "stop")
	case action == "transcript" && r.Method == http.MethodGet:
		h.handleTranscript(w, r, sessionID)
	case action == "rounds" || action == "stop" || action == "resume" || action == "transcript":
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	default:
		h.writeError(w, http.StatusNotFound, "Not found")
	}
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	name := strings.TrimSpace(req.PlayerName)
	if name == "" {
		name = DefaultPlayerName
	}

	s := state.NewSession(&state.Character{Name: name, Description: req.PlayerDescription})
	s.CaptureSnapshot()

	if err := h.storage.SaveSession(r.Context(), s); err != nil {
		h.logger.Error("Failed to save new session", "error", err, "session_id", s.ID.String())
		h.writeError(w, http.StatusInternalServerError, "Failed to save session")
		return
	}

	h.logger.Info("Session created", "session_id", s.ID.String(), "player", name)
	h.writeJSON(w, http.StatusCreated, s)
}

func (h *SessionHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ids, err := h.storage.ListSessions(r.Context())
	if err != nil {
		h.logger.Error("Failed to list sessions", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"sessions": ids})
}

func (h *SessionHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	s, ok := h.load(w, r, id)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, s)
}

func (h *SessionHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if _, ok := h.load(w, r, id); !ok {
		return
	}
	if err := h.storage.DeleteSession(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete session", "error", err, "session_id", id.String())
		h.writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	h.logger.Info("Session deleted", "session_id", id.String())
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) handleRound(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req chat.RoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("Invalid JSON in round request", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	req.SessionID = id
	if err := req.Validate(); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	qreq := queue.NewRoundRequest(id, req.Message)
	if req.Async {
		h.enqueueRound(w, r, qreq)
		return
	}

	resp, err := h.processor.ProcessRound(r.Context(), qreq)
	if err != nil {
		h.writeProcessError(w, id, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *SessionHandler) enqueueRound(w http.ResponseWriter, r *http.Request, req *queue.Request) {
	if h.queue == nil {
		h.writeError(w, http.StatusNotImplemented, "Asynchronous rounds are not available")
		return
	}
	if _, ok := h.load(w, r, req.SessionID); !ok {
		return
	}

	if err := h.queue.EnqueueRequest(r.Context(), req); err != nil {
		h.logger.Error("Failed to enqueue round", "error", err, "session_id", req.SessionID.String())
		h.writeError(w, http.StatusInternalServerError, "Failed to queue round")
		return
	}
	if h.publisher != nil {
		if err := h.publisher.PublishRoundQueued(r.Context(), req.SessionID, req.RequestID); err != nil {
			h.logger.Error("Failed to publish queued event", "error", err)
		}
	}

	h.logger.Info("Round queued", "session_id", req.SessionID.String(), "request_id", req.RequestID)
	h.writeJSON(w, http.StatusAccepted, chat.RoundResponse{
		SessionID: req.SessionID,
		RequestID: req.RequestID,
	})
}

func (h *SessionHandler) handleStopped(w http.ResponseWriter, r *http.Request, id uuid.UUID, stopped bool) {
	s, err := h.processor.SetStopped(r.Context(), id, stopped)
	if err != nil {
		h.writeProcessError(w, id, err)
		return
	}
	h.logger.Info("Simulation stopped flag changed", "session_id", id.String(), "stopped", stopped)
	h.writeJSON(w, http.StatusOK, s)
}

// load reads the session and writes the error response when it cannot.
func (h *SessionHandler) load(w http.ResponseWriter, r *http.Request, id uuid.UUID) (*state.Session, bool) {
	s, err := h.storage.LoadSession(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load session", "error", err, "session_id", id.String())
		h.writeError(w, http.StatusInternalServerError, "Failed to load session")
		return nil, false
	}
	if s == nil {
		h.writeError(w, http.StatusNotFound, "Session not found")
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) writeProcessError(w http.ResponseWriter, id uuid.UUID, err error) {
	switch {
	case errors.Is(err, worker.ErrSessionNotFound):
		h.writeError(w, http.StatusNotFound, "Session not found")
	case errors.Is(err, worker.ErrSessionLocked):
		h.writeError(w, http.StatusConflict, "Session is busy with another round")
	default:
		h.logger.Error("Failed to process session", "error", err, "session_id", id.String())
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *SessionHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

func (h *SessionHandler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, ErrorResponse{Error: msg})
}
