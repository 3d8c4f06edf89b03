package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type postgresRecorder struct {
	db *sql.DB
}

func NewPostgresRecorder(db *sql.DB) Recorder {
	return &postgresRecorder{db: db}
}

func (r *postgresRecorder) Record(ctx context.Context, record *Record) error {
	signalsJSON, err := json.Marshal(record.Signals)
	if err != nil {
		return err
	}
	metadataJSON, err := json.Marshal(record.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO audit_records (id, session_id, event, urgency, signals, confidence, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.db.ExecContext(ctx, query,
		record.ID, record.SessionID, record.Event, record.Urgency,
		signalsJSON, record.Confidence, metadataJSON, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	return nil
}

func (r *postgresRecorder) List(ctx context.Context, sessionID uuid.UUID) ([]Record, error) {
	query := `
		SELECT id, session_id, event, urgency, signals, confidence, metadata, created_at
		FROM audit_records
		WHERE session_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var signalsJSON, metadataJSON []byte

		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Event, &rec.Urgency,
			&signalsJSON, &rec.Confidence, &metadataJSON, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if len(signalsJSON) > 0 {
			if err := json.Unmarshal(signalsJSON, &rec.Signals); err != nil {
				return nil, err
			}
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &rec.Metadata); err != nil {
				return nil, err
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
