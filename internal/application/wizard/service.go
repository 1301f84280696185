package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	domain "github.com/bryanwahyu/dspm-console/internal/domain/credentials"
)

// Step enum for the wizard's finite states
type Step string

const (
	StepSelectVendor    Step = "select_vendor"
	StepSelectDatastore Step = "select_datastore"
	StepEnterFields     Step = "enter_fields"
	StepSubmitting      Step = "submitting"
)

var (
	ErrSessionNotFound = errors.New("wizard session not found")
	ErrWrongStep       = errors.New("action not valid in current wizard step")
	ErrUnknownVendor   = errors.New("unknown vendor")
	ErrUnknownField    = errors.New("field not in active schema")
)

// Session is one in-progress wizard run. The bundle lives only while the
// session is in the field-entry step and is discarded on back/cancel.
type Session struct {
	ID        string
	Step      Step
	Vendor    domain.Vendor
	Datastore domain.DatastoreID
	Specs     []domain.FieldSpec
	Bundle    domain.Bundle
}

// Completion is the wizard's success signal: the selected datastore plus the
// raw credential bundle, handed to the caller exactly once.
type Completion struct {
	DatastoreID string        `json:"datastore_id"`
	Credentials domain.Bundle `json:"credentials"`
	FileURL     string        `json:"file_url,omitempty"`
}

// Service owns all wizard sessions and drives the selection/entry/submit flow.
// Safe for concurrent use.
type Service struct {
	mu       sync.Mutex
	sessions map[string]*Session
	uploader domain.Uploader
}

func NewService(uploader domain.Uploader) *Service {
	return &Service{
		sessions: make(map[string]*Session),
		uploader: uploader,
	}
}

// Open starts a new wizard session at vendor selection.
func (s *Service) Open() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := &Session{
		ID:   uuid.New().String(),
		Step: StepSelectVendor,
	}
	s.sessions[sess.ID] = sess
	return snapshot(sess)
}

// Get returns a copy of the session for display.
func (s *Service) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return snapshot(sess), nil
}

// SelectVendor moves the session from vendor selection to datastore selection.
func (s *Service) SelectVendor(id string, v domain.Vendor) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if sess.Step != StepSelectVendor {
		return nil, fmt.Errorf("%w: step=%s", ErrWrongStep, sess.Step)
	}
	if len(domain.Datastores(v)) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVendor, v)
	}
	sess.Vendor = v
	sess.Step = StepSelectDatastore
	return snapshot(sess), nil
}

// SelectDatastore moves to field entry. The bundle is reset to empty and the
// field specs for the pair are loaded; an unknown pair yields an empty spec
// list and the form is vacuously complete.
func (s *Service) SelectDatastore(id string, ds domain.DatastoreID) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if sess.Step != StepSelectDatastore {
		return nil, fmt.Errorf("%w: step=%s", ErrWrongStep, sess.Step)
	}
	sess.Datastore = ds
	sess.Specs = domain.Fields(sess.Vendor, ds)
	sess.Bundle = domain.Bundle{}
	sess.Step = StepEnterFields
	return snapshot(sess), nil
}

// SetField records one credential value while in field entry.
func (s *Service) SetField(id, key, value string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if sess.Step != StepEnterFields {
		return nil, fmt.Errorf("%w: step=%s", ErrWrongStep, sess.Step)
	}
	known := false
	for _, spec := range sess.Specs {
		if spec.Key == key {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, key)
	}
	sess.Bundle[key] = value
	return snapshot(sess), nil
}

// Back steps the wizard one state backwards, clearing anything accumulated in
// the step being left so partial data never carries across branch changes.
func (s *Service) Back(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	switch sess.Step {
	case StepEnterFields:
		sess.Bundle = nil
		sess.Specs = nil
		sess.Datastore = ""
		sess.Step = StepSelectDatastore
	case StepSelectDatastore:
		sess.Vendor = ""
		sess.Step = StepSelectVendor
	default:
		return nil, fmt.Errorf("%w: step=%s", ErrWrongStep, sess.Step)
	}
	return snapshot(sess), nil
}

// Cancel discards the session from any step.
func (s *Service) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

// Submit validates the bundle and hands it to the backend. Object-storage
// datastores pre-store the bucket name first; if that call fails the whole
// submission aborts and the wizard stays in field entry with input intact.
// Exactly one pre-store call (when applicable) and one upload call are issued.
func (s *Service) Submit(ctx context.Context, id string) (*Completion, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	if sess.Step != StepEnterFields {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: step=%s", ErrWrongStep, sess.Step)
	}
	if !sess.Bundle.Complete(sess.Specs) {
		// guard mirrors the disabled submit button; reject without side effects
		s.mu.Unlock()
		return nil, domain.ErrIncompleteBundle
	}
	sess.Step = StepSubmitting
	datastore := sess.Datastore
	bundle := sess.Bundle.Trimmed()
	s.mu.Unlock()

	fail := func(err error) (*Completion, error) {
		s.mu.Lock()
		if cur, ok := s.sessions[id]; ok && cur.Step == StepSubmitting {
			cur.Step = StepEnterFields
		}
		s.mu.Unlock()
		return nil, err
	}

	if field := domain.BucketField(datastore); field != "" {
		if err := s.uploader.StoreBucketName(ctx, bundle[field]); err != nil {
			return fail(fmt.Errorf("store bucket name: %w", err))
		}
	}

	fileURL, err := s.uploader.UploadBundle(ctx, string(datastore), bundle)
	if err != nil {
		return fail(fmt.Errorf("upload credentials: %w", err))
	}

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	return &Completion{
		DatastoreID: string(datastore),
		Credentials: bundle,
		FileURL:     fileURL,
	}, nil
}

// CanSubmit reports whether the session's bundle satisfies the active schema.
func (s *Service) CanSubmit(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false, ErrSessionNotFound
	}
	return sess.Step == StepEnterFields && sess.Bundle.Complete(sess.Specs), nil
}

func snapshot(sess *Session) *Session {
	out := *sess
	out.Specs = append([]domain.FieldSpec(nil), sess.Specs...)
	if sess.Bundle != nil {
		out.Bundle = make(domain.Bundle, len(sess.Bundle))
		for k, v := range sess.Bundle {
			out.Bundle[k] = v
		}
	}
	return &out
}
