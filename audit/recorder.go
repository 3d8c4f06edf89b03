package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge-ai/symptom-core/triage"
)

// EventType names what stage of the pipeline produced a record.
type EventType string

const (
	EventTriage     EventType = "triage"
	EventRetrieval  EventType = "retrieval"
	EventGeneration EventType = "generation"
	EventFallback   EventType = "fallback"
)

// Record is one append-only audit entry. Write-once; this trail is the
// only way to reconstruct afterwards why the system answered the way
// it did.
type Record struct {
	ID         uuid.UUID         `json:"id"`
	SessionID  uuid.UUID         `json:"session_id"`
	Event      EventType         `json:"event"`
	Urgency    triage.Urgency    `json:"urgency"`
	Signals    []triage.Signal   `json:"signals,omitempty"`
	Confidence float64           `json:"confidence"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Recorder appends records. Implementations must never update or
// delete what was written.
type Recorder interface {
	Record(ctx context.Context, record *Record) error
	List(ctx context.Context, sessionID uuid.UUID) ([]Record, error)
}

// NewRecord stamps id and timestamp on an entry.
func NewRecord(sessionID uuid.UUID, event EventType, urgency triage.Urgency) *Record {
	return &Record{
		ID:        uuid.New(),
		SessionID: sessionID,
		Event:     event,
		Urgency:   urgency,
		CreatedAt: time.Now().UTC(),
	}
}
