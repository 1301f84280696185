package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	domain "github.com/bryanwahyu/dspm-console/internal/domain/workflow"
)

// FileStore keeps the single workflow record as a JSON file. Writes go through
// a temp file + rename so a crash mid-save never leaves a half-written record.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Save(_ context.Context, s *domain.ScanState) error {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode workflow state: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

// Load returns (nil, nil) when the file is absent or unreadable; a corrupt
// record is silently treated as no record.
func (f *FileStore) Load(_ context.Context) (*domain.ScanState, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, nil
	}
	var s domain.ScanState
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, nil
	}
	if !domain.KnownPhase(s.Phase) {
		return nil, nil
	}
	return &s, nil
}

func (f *FileStore) Clear(_ context.Context) error {
	err := os.Remove(f.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
