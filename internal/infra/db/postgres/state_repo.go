package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	domain "github.com/bryanwahyu/dspm-console/internal/domain/workflow"
)

const recordKey = "active"

// StateRepository is the PostgreSQL variant of the workflow state store.
// Implements workflow.StateStore and workflow.HistoryStore.
//
// Schema:
//
//	CREATE TABLE console_workflow_state (
//	  id         VARCHAR(32) PRIMARY KEY,
//	  payload    JSONB NOT NULL,
//	  updated_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE TABLE console_scan_history (
//	  id          VARCHAR(64) PRIMARY KEY,
//	  phase       VARCHAR(16) NOT NULL,
//	  summary     TEXT NULL,
//	  finished_at TIMESTAMPTZ NOT NULL
//	);
type StateRepository struct {
	db *sql.DB
}

func NewStateRepository(db *sql.DB) *StateRepository { return &StateRepository{db: db} }

func (r *StateRepository) Save(ctx context.Context, s *domain.ScanState) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO console_workflow_state (id, payload, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at;`
	_, err = r.db.ExecContext(ctx, q, recordKey, string(payload), time.Now().UTC())
	return err
}

func (r *StateRepository) Load(ctx context.Context) (*domain.ScanState, error) {
	const q = `SELECT payload FROM console_workflow_state WHERE id = $1;`
	var payload string
	err := r.db.QueryRowContext(ctx, q, recordKey).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s domain.ScanState
	if json.Unmarshal([]byte(payload), &s) != nil || !domain.KnownPhase(s.Phase) {
		return nil, nil
	}
	return &s, nil
}

func (r *StateRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM console_workflow_state WHERE id = $1;`, recordKey)
	return err
}

func (r *StateRepository) Append(ctx context.Context, rec *domain.RunRecord) error {
	const q = `
INSERT INTO console_scan_history (id, phase, summary, finished_at)
VALUES ($1, $2, $3, $4);`
	var summary sql.NullString
	if rec.Summary != "" {
		summary = sql.NullString{String: rec.Summary, Valid: true}
	}
	finished := rec.FinishedAt
	if finished.IsZero() {
		finished = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, q, rec.ID, string(rec.Phase), summary, finished)
	return err
}

func (r *StateRepository) Recent(ctx context.Context, limit int) ([]*domain.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, phase, summary, finished_at
FROM console_scan_history
ORDER BY finished_at DESC, id DESC
LIMIT $1;`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.RunRecord
	for rows.Next() {
		var rec domain.RunRecord
		var phase string
		var summary sql.NullString
		if err := rows.Scan(&rec.ID, &phase, &summary, &rec.FinishedAt); err != nil {
			return nil, err
		}
		rec.Phase = domain.Phase(phase)
		rec.Summary = summary.String
		out = append(out, &rec)
	}
	return out, rows.Err()
}
