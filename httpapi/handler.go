package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carebridge-ai/symptom-core/conversation"
	"github.com/carebridge-ai/symptom-core/pipeline"
)

const DefaultMaxMessageLength = 4000

// MessageProcessor is the pipeline capability the handler depends on.
type MessageProcessor interface {
	ProcessMessage(ctx context.Context, req pipeline.MessageRequest) (*pipeline.MessageResponse, error)
}

type Handler struct {
	processor     MessageProcessor
	sessions      *conversation.Manager
	maxMessageLen int
}

func NewHandler(processor MessageProcessor, sessions *conversation.Manager, maxMessageLen int) *Handler {
	if maxMessageLen <= 0 {
		maxMessageLen = DefaultMaxMessageLength
	}
	return &Handler{processor: processor, sessions: sessions, maxMessageLen: maxMessageLen}
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/api/symptoms/start", h.StartSession)
	r.Post("/api/symptoms/message", h.SubmitMessage)
	r.Post("/api/symptoms/end/{session_id}", h.EndSession)
	r.Get("/api/history/{session_id}", h.GetHistory)
	r.Get("/api/history/{session_id}/export", h.ExportHistory)
}

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Age < 0 || req.Age > 130 {
		writeError(w, http.StatusBadRequest, "age out of range")
		return
	}

	session, err := h.sessions.StartSession(r.Context(), conversation.PatientProfile{
		Age:         req.Age,
		Sex:         req.Sex,
		History:     req.History,
		Medications: req.Medications,
		Allergies:   req.Allergies,
	})
	if err != nil {
		logger.Error("failed to start session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to start session")
		return
	}

	writeJSON(w, http.StatusCreated, StartSessionResponse{
		SessionID: session.ID.String(),
		CreatedAt: session.CreatedAt,
	})
}

func (h *Handler) SubmitMessage(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if len(req.Message) > h.maxMessageLen {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("message exceeds %d characters", h.maxMessageLen))
		return
	}

	severity := -1
	if req.Severity != nil {
		if *req.Severity < 0 || *req.Severity > 10 {
			writeError(w, http.StatusBadRequest, "severity must be between 0 and 10")
			return
		}
		severity = *req.Severity
	}

	resp, err := h.processor.ProcessMessage(r.Context(), pipeline.MessageRequest{
		SessionID: sessionID,
		Message:   req.Message,
		Severity:  severity,
		Duration:  req.Duration,
	})
	if err != nil {
		writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{
		SessionID:  req.SessionID,
		TurnNumber: resp.TurnNumber,
		Assessment: resp.Assessment,
		Timestamp:  resp.Timestamp,
	})
}

func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "session_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	if err := h.sessions.CloseSession(r.Context(), sessionID); err != nil {
		writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	session, turns, ok := h.loadHistory(w, r)
	if !ok {
		return
	}

	resp := HistoryResponse{
		SessionID: session.ID.String(),
		Status:    string(session.Status),
		Turns:     make([]TurnResponse, 0, len(turns)),
		Summary:   conversation.Summarize(session, turns),
	}
	for _, t := range turns {
		resp.Turns = append(resp.Turns, turnToResponse(t))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ExportHistory(w http.ResponseWriter, r *http.Request) {
	session, turns, ok := h.loadHistory(w, r)
	if !ok {
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		h.GetHistory(w, r)
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "Symptom analysis session %s (%s)\n\n", session.ID, session.Status)
		for _, t := range turns {
			fmt.Fprintf(w, "Turn %d [%s]\n", t.TurnNumber, t.Urgency)
			fmt.Fprintf(w, "Patient: %s\n", t.Message)
			if t.Assessment.Reasoning != "" {
				fmt.Fprintf(w, "Assessment: %s\n", t.Assessment.Reasoning)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, conversation.Summarize(session, turns))
	default:
		writeError(w, http.StatusBadRequest, "unsupported export format")
	}
}

func (h *Handler) loadHistory(w http.ResponseWriter, r *http.Request) (*conversation.Session, []conversation.Turn, bool) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "session_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return nil, nil, false
	}

	session, turns, err := h.sessions.History(r.Context(), sessionID)
	if err != nil {
		writeSessionError(w, err)
		return nil, nil, false
	}
	return session, turns, true
}

func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, conversation.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, conversation.ErrSessionClosed):
		writeError(w, http.StatusBadRequest, "session is closed")
	default:
		logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
