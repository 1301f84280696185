package workflow

import "context"

// StateStore port (interface for the durable workflow record)
//
// Load returns (nil, nil) when no record exists or the stored record is
// unreadable; callers fall back to a fresh idle state. Save is idempotent and
// last-write-wins.
type StateStore interface {
	Save(ctx context.Context, s *ScanState) error
	Load(ctx context.Context) (*ScanState, error)
	Clear(ctx context.Context) error
}

// HistoryStore port (optional append-only record of finished runs)
type HistoryStore interface {
	Append(ctx context.Context, rec *RunRecord) error
	Recent(ctx context.Context, limit int) ([]*RunRecord, error)
}

// ScanGateway port (interface to the backend scan trigger)
//
// TriggerScan bundles the three probes into one request and blocks until the
// backend finishes all three phases; the call can take minutes.
type ScanGateway interface {
	TriggerScan(ctx context.Context, bearer string, def ScanDefinition) (string, error)
}
