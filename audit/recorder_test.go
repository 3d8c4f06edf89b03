package audit

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge-ai/symptom-core/triage"
)

func TestMemoryRecorder_AppendOnly(t *testing.T) {
	rec := NewMemoryRecorder()
	ctx := context.Background()
	sessionID := uuid.New()

	first := NewRecord(sessionID, EventTriage, triage.UrgencyEmergency)
	first.Signals = []triage.Signal{{Category: "cardiac", Phrase: "chest pain"}}
	first.Confidence = 0.9
	require.NoError(t, rec.Record(ctx, first))

	second := NewRecord(sessionID, EventGeneration, triage.UrgencyRoutine)
	second.Metadata = map[string]string{"tier": "primary"}
	require.NoError(t, rec.Record(ctx, second))

	records, err := rec.List(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, EventTriage, records[0].Event)
	assert.Equal(t, []triage.Signal{{Category: "cardiac", Phrase: "chest pain"}}, records[0].Signals)
	assert.Equal(t, EventGeneration, records[1].Event)
	assert.Equal(t, "primary", records[1].Metadata["tier"])
}

func TestMemoryRecorder_IsolatesSessions(t *testing.T) {
	rec := NewMemoryRecorder()
	ctx := context.Background()

	a, b := uuid.New(), uuid.New()
	require.NoError(t, rec.Record(ctx, NewRecord(a, EventTriage, triage.UrgencyRoutine)))

	records, err := rec.List(ctx, b)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestNewRecord_Stamps(t *testing.T) {
	sessionID := uuid.New()
	record := NewRecord(sessionID, EventRetrieval, triage.UrgencyUrgent)

	assert.NotEqual(t, uuid.Nil, record.ID)
	assert.Equal(t, sessionID, record.SessionID)
	assert.False(t, record.CreatedAt.IsZero())
}
