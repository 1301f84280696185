package workflow

import (
	"strings"
	"time"
)

// Phase enum for the scan workflow lifecycle
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseConfiguring Phase = "configuring"
	PhaseRunning     Phase = "running"
	PhaseCompleted   Phase = "completed"
	PhaseFailed      Phase = "failed"
)

// KnownPhase reports whether p is one of the five lifecycle phases.
// Persisted records carrying anything else are treated as corrupt.
func KnownPhase(p Phase) bool {
	switch p {
	case PhaseIdle, PhaseConfiguring, PhaseRunning, PhaseCompleted, PhaseFailed:
		return true
	}
	return false
}

// ScanDefinition holds the three opaque probe request templates supplied by the
// operator. Each probe is logically a full HTTP request description; the console
// never interprets them, the backend executes them in order.
type ScanDefinition struct {
	BearerTokenProbe    string `json:"bearer_token_probe"`
	ScanTriggerProbe    string `json:"scan_trigger_probe"`
	InventoryFetchProbe string `json:"inventory_fetch_probe"`
}

// Complete reports whether all three probes are non-empty after trimming.
func (d ScanDefinition) Complete() bool {
	return strings.TrimSpace(d.BearerTokenProbe) != "" &&
		strings.TrimSpace(d.ScanTriggerProbe) != "" &&
		strings.TrimSpace(d.InventoryFetchProbe) != ""
}

// Probes returns the three probe templates in backend execution order.
func (d ScanDefinition) Probes() []string {
	return []string{d.BearerTokenProbe, d.ScanTriggerProbe, d.InventoryFetchProbe}
}

// ScanState is the authoritative workflow record. A single record exists per
// console session; it is persisted after every transition.
type ScanState struct {
	Phase         Phase          `json:"phase"`
	Definition    ScanDefinition `json:"definition"`
	ResultSummary *string        `json:"result_summary"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// NewIdleState returns a fresh workflow record.
func NewIdleState() *ScanState {
	return &ScanState{Phase: PhaseIdle}
}

// RunRecord is one finished scan as kept in the run history.
type RunRecord struct {
	ID         string    `json:"id"`
	Phase      Phase     `json:"phase"`
	Summary    string    `json:"summary,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}
