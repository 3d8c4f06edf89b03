package conversation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type postgresRepo struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) CreateSession(ctx context.Context, s *Session) error {
	patientJSON, err := json.Marshal(s.Patient)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sessions (id, patient, status, turn_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.db.ExecContext(ctx, query,
		s.ID, patientJSON, s.Status, s.TurnCount, s.CreatedAt, s.UpdatedAt)
	return err
}

func (r *postgresRepo) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	query := `SELECT id, patient, status, turn_count, created_at, updated_at FROM sessions WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)

	var s Session
	var patientJSON []byte
	err := row.Scan(&s.ID, &patientJSON, &s.Status, &s.TurnCount, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if len(patientJSON) > 0 {
		if err := json.Unmarshal(patientJSON, &s.Patient); err != nil {
			return nil, fmt.Errorf("failed to unmarshal patient profile: %w", err)
		}
	}
	return &s, nil
}

func (r *postgresRepo) UpdateSessionStatus(ctx context.Context, id uuid.UUID, status Status) error {
	query := `UPDATE sessions SET status = $2, updated_at = now() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// AppendTurn writes the turn and the advanced session in one
// transaction. The unique (session_id, turn_number) constraint is the
// backstop against duplicate turn numbers.
func (r *postgresRepo) AppendTurn(ctx context.Context, s *Session, t *Turn) error {
	assessmentJSON, err := json.Marshal(t.Assessment)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var severity any
	if t.Severity >= 0 {
		severity = t.Severity
	}

	turnQuery := `
		INSERT INTO conversation_turns (session_id, turn_number, message, severity, urgency, assessment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := tx.ExecContext(ctx, turnQuery,
		t.SessionID, t.TurnNumber, t.Message, severity, t.Urgency, assessmentJSON, t.CreatedAt); err != nil {
		return err
	}

	sessionQuery := `UPDATE sessions SET status = $2, turn_count = $3, updated_at = $4 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, sessionQuery,
		s.ID, s.Status, s.TurnCount, s.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *postgresRepo) ListTurns(ctx context.Context, sessionID uuid.UUID) ([]Turn, error) {
	query := `
		SELECT session_id, turn_number, message, severity, urgency, assessment, created_at
		FROM conversation_turns
		WHERE session_id = $1
		ORDER BY turn_number
	`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var severity sql.NullInt64
		var assessmentJSON []byte

		if err := rows.Scan(&t.SessionID, &t.TurnNumber, &t.Message, &severity, &t.Urgency, &assessmentJSON, &t.CreatedAt); err != nil {
			return nil, err
		}

		t.Severity = -1
		if severity.Valid {
			t.Severity = int(severity.Int64)
		}
		if err := json.Unmarshal(assessmentJSON, &t.Assessment); err != nil {
			return nil, fmt.Errorf("failed to unmarshal assessment for turn %d: %w", t.TurnNumber, err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
