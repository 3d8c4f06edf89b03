package conversation

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge-ai/symptom-core/generation"
	"github.com/carebridge-ai/symptom-core/triage"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session is closed")
)

// Status is the session lifecycle state.
type Status string

const (
	StatusCreated Status = "created"
	StatusActive  Status = "active"
	StatusClosed  Status = "closed"
)

// PatientProfile is the demographic snapshot captured at intake.
// Immutable after session creation.
type PatientProfile struct {
	Age         int      `json:"age,omitempty"`
	Sex         string   `json:"sex,omitempty"`
	History     []string `json:"history,omitempty"`
	Medications []string `json:"medications,omitempty"`
	Allergies   []string `json:"allergies,omitempty"`
}

// Session is one patient interaction. TurnCount advances by exactly
// one per accepted message.
type Session struct {
	ID        uuid.UUID      `json:"id"`
	Patient   PatientProfile `json:"patient"`
	Status    Status         `json:"status"`
	TurnCount int            `json:"turn_count"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Turn is one message/assessment pair. Immutable once written; turn
// numbers within a session are contiguous starting at 1.
type Turn struct {
	SessionID  uuid.UUID             `json:"session_id"`
	TurnNumber int                   `json:"turn_number"`
	Message    string                `json:"message"`
	Severity   int                   `json:"severity"` // negative when unreported
	Urgency    triage.Urgency        `json:"urgency"`
	Assessment generation.Assessment `json:"assessment"`
	CreatedAt  time.Time             `json:"created_at"`
}
