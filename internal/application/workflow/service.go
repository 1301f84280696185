package workflow

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/bryanwahyu/dspm-console/internal/application"
	domain "github.com/bryanwahyu/dspm-console/internal/domain/workflow"
)

// emptyResultFallback is stored when the backend answers 2xx with an empty body.
const emptyResultFallback = "scan completed (empty response body)"

// PhaseListener receives a read-only snapshot after every phase change.
type PhaseListener func(domain.ScanState)

// Service owns the single workflow record and is the only component allowed to
// mutate it. Every transition is persisted before the method returns, so the
// in-memory and durable copies never diverge by more than one action.
// Safe for concurrent use.
type Service struct {
	mu        sync.Mutex
	state     *domain.ScanState
	store     domain.StateStore
	gateway   domain.ScanGateway
	history   domain.HistoryStore // optional
	clock     application.Clock
	listeners []PhaseListener
}

// NewService restores the workflow from the store, falling back to a fresh
// idle record when nothing usable is persisted. A record restored in the
// running phase stays running: the original in-flight request cannot be
// re-attached after a restart, only a reset can leave the phase.
func NewService(ctx context.Context, store domain.StateStore, gateway domain.ScanGateway, history domain.HistoryStore, clock application.Clock) *Service {
	st, err := store.Load(ctx)
	if err != nil {
		log.Printf("workflow: state load failed, starting idle: %v", err)
		st = nil
	}
	if st == nil || !domain.KnownPhase(st.Phase) {
		st = domain.NewIdleState()
	}
	if st.Phase == domain.PhaseRunning {
		log.Printf("workflow: restored a running scan; the in-flight request is not resumable")
	}
	return &Service{
		state:   st,
		store:   store,
		gateway: gateway,
		history: history,
		clock:   clock,
	}
}

// SubscribePhaseChange registers a listener for phase transitions.
// Listeners are invoked synchronously, outside the service lock.
func (s *Service) SubscribePhaseChange(fn PhaseListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Snapshot returns a read-only copy of the workflow record.
func (s *Service) Snapshot() domain.ScanState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyState(s.state)
}

// Start moves idle -> configuring.
func (s *Service) Start(ctx context.Context) error {
	return s.transition(ctx, domain.PhaseIdle, domain.PhaseConfiguring, func(st *domain.ScanState) {})
}

// UpdateDefinition records a (possibly partial) probe edit and persists it
// immediately so a restart never loses typed input. Only legal while configuring.
func (s *Service) UpdateDefinition(ctx context.Context, def domain.ScanDefinition) error {
	s.mu.Lock()
	if s.state.Phase != domain.PhaseConfiguring {
		phase := s.state.Phase
		s.mu.Unlock()
		return fmt.Errorf("%w: edit in phase %s", domain.ErrInvalidTransition, phase)
	}
	s.state.Definition = def
	s.state.UpdatedAt = s.clock.Now()
	st := copyState(s.state)
	s.mu.Unlock()

	return s.persist(ctx, st)
}

// Run validates the definition and session credential, persists the running
// phase, then issues the scan request in the background. The three probes go
// out in a single request; there is no client-side timeout and no cancel.
func (s *Service) Run(ctx context.Context, bearer string) error {
	s.mu.Lock()
	if s.state.Phase != domain.PhaseConfiguring {
		phase := s.state.Phase
		s.mu.Unlock()
		return fmt.Errorf("%w: run in phase %s", domain.ErrInvalidTransition, phase)
	}
	if !s.state.Definition.Complete() {
		s.mu.Unlock()
		return domain.ErrIncompleteDefinition
	}
	if strings.TrimSpace(bearer) == "" {
		s.mu.Unlock()
		return domain.ErrNotAuthenticated
	}
	s.state.Phase = domain.PhaseRunning
	s.state.ResultSummary = nil
	s.state.UpdatedAt = s.clock.Now()
	st := copyState(s.state)
	def := s.state.Definition
	s.mu.Unlock()

	// persist running before the request goes out
	if err := s.persist(ctx, st); err != nil {
		return err
	}
	s.notify(st)

	go s.execute(bearer, def)
	return nil
}

// execute performs the blocking backend call and resolves the running phase.
// Runs detached from the request context: the scan may take minutes.
func (s *Service) execute(bearer string, def domain.ScanDefinition) {
	body, err := s.gateway.TriggerScan(context.Background(), bearer, def)

	s.mu.Lock()
	if s.state.Phase != domain.PhaseRunning {
		// a reset raced the callback; the record was already cleared
		s.mu.Unlock()
		log.Printf("workflow: dropping scan result, phase left running meanwhile")
		return
	}
	if err != nil {
		s.state.Phase = domain.PhaseFailed
		s.state.ResultSummary = nil
		log.Printf("workflow: scan failed: %v", err)
	} else {
		if strings.TrimSpace(body) == "" {
			body = emptyResultFallback
		}
		s.state.Phase = domain.PhaseCompleted
		s.state.ResultSummary = &body
	}
	s.state.UpdatedAt = s.clock.Now()
	st := copyState(s.state)
	s.mu.Unlock()

	if perr := s.persist(context.Background(), st); perr != nil {
		log.Printf("workflow: persist after scan: %v", perr)
	}
	s.appendHistory(st)
	s.notify(st)
}

// Retry moves failed -> configuring, keeping the typed probe definitions.
func (s *Service) Retry(ctx context.Context) error {
	return s.transition(ctx, domain.PhaseFailed, domain.PhaseConfiguring, func(st *domain.ScanState) {})
}

// Rerun moves completed -> configuring with the same definition, clearing the
// previous result summary.
func (s *Service) Rerun(ctx context.Context) error {
	return s.transition(ctx, domain.PhaseCompleted, domain.PhaseConfiguring, func(st *domain.ScanState) {
		st.ResultSummary = nil
	})
}

// Reset unconditionally clears every field, deletes the persisted record and
// returns to idle. Confirmation is the caller's concern.
func (s *Service) Reset(ctx context.Context) error {
	s.mu.Lock()
	if err := s.store.Clear(ctx); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("clear state: %w", err)
	}
	s.state = domain.NewIdleState()
	s.state.UpdatedAt = s.clock.Now()
	st := copyState(s.state)
	s.mu.Unlock()

	s.notify(st)
	return nil
}

// History returns the most recent finished runs, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]*domain.RunRecord, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.Recent(ctx, limit)
}

func (s *Service) transition(ctx context.Context, from, to domain.Phase, apply func(*domain.ScanState)) error {
	s.mu.Lock()
	if s.state.Phase != from {
		phase := s.state.Phase
		s.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s (currently %s)", domain.ErrInvalidTransition, from, to, phase)
	}
	s.state.Phase = to
	apply(s.state)
	s.state.UpdatedAt = s.clock.Now()
	st := copyState(s.state)
	s.mu.Unlock()

	if err := s.persist(ctx, st); err != nil {
		return err
	}
	s.notify(st)
	return nil
}

func (s *Service) persist(ctx context.Context, st domain.ScanState) error {
	if err := s.store.Save(ctx, &st); err != nil {
		return fmt.Errorf("persist workflow state: %w", err)
	}
	return nil
}

func (s *Service) appendHistory(st domain.ScanState) {
	if s.history == nil {
		return
	}
	rec := &domain.RunRecord{
		ID:         uuid.New().String(),
		Phase:      st.Phase,
		FinishedAt: s.clock.Now(),
	}
	if st.ResultSummary != nil {
		rec.Summary = *st.ResultSummary
	}
	if err := s.history.Append(context.Background(), rec); err != nil {
		log.Printf("workflow: append history: %v", err)
	}
}

func (s *Service) notify(st domain.ScanState) {
	s.mu.Lock()
	listeners := append([]PhaseListener(nil), s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(st)
	}
}

func copyState(st *domain.ScanState) domain.ScanState {
	out := *st
	if st.ResultSummary != nil {
		v := *st.ResultSummary
		out.ResultSummary = &v
	}
	return out
}
