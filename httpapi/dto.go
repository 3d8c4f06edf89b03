package httpapi

import (
	"time"

	"github.com/carebridge-ai/symptom-core/conversation"
	"github.com/carebridge-ai/symptom-core/generation"
	"github.com/carebridge-ai/symptom-core/triage"
)

type StartSessionRequest struct {
	Age         int      `json:"age,omitempty"`
	Sex         string   `json:"sex,omitempty"`
	History     []string `json:"history,omitempty"`
	Medications []string `json:"medications,omitempty"`
	Allergies   []string `json:"allergies,omitempty"`
}

type StartSessionResponse struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

type MessageRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Severity  *int   `json:"severity,omitempty"`
	Duration  string `json:"duration,omitempty"`
}

type MessageResponse struct {
	SessionID  string                `json:"session_id"`
	TurnNumber int                   `json:"turn_number"`
	Assessment generation.Assessment `json:"assessment"`
	Timestamp  time.Time             `json:"timestamp"`
}

type TurnResponse struct {
	TurnNumber int                   `json:"turn_number"`
	Message    string                `json:"message"`
	Severity   *int                  `json:"severity,omitempty"`
	Urgency    triage.Urgency        `json:"urgency"`
	Assessment generation.Assessment `json:"assessment"`
	Timestamp  time.Time             `json:"timestamp"`
}

type HistoryResponse struct {
	SessionID string         `json:"session_id"`
	Status    string         `json:"status"`
	Turns     []TurnResponse `json:"turns"`
	Summary   string         `json:"summary"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func turnToResponse(t conversation.Turn) TurnResponse {
	var severity *int
	if t.Severity >= 0 {
		s := t.Severity
		severity = &s
	}

	return TurnResponse{
		TurnNumber: t.TurnNumber,
		Message:    t.Message,
		Severity:   severity,
		Urgency:    t.Urgency,
		Assessment: t.Assessment,
		Timestamp:  t.CreatedAt,
	}
}
