package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"crime-analytics/models"

	"github.com/vmihailenco/msgpack/v5"
)

// ModelStore persists one trained model artifact as a msgpack blob
type ModelStore struct {
	mu   sync.RWMutex
	path string
}

// NewModelStore creates a store backed by path
func NewModelStore(path string) *ModelStore {
	return &ModelStore{path: path}
}

// Path returns the artifact location
func (s *ModelStore) Path() string {
	return s.path
}

// Save writes the artifact atomically, replacing any previous one
func (s *ModelStore) Save(artifact *models.ModelArtifact) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}
	f, err := os.CreateTemp(dir, "model-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp model file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if err = msgpack.NewEncoder(f).Encode(artifact); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to close model file: %w", err)
	}
	if err = os.Rename(f.Name(), s.path); err != nil {
		return fmt.Errorf("failed to move model into place: %w", err)
	}
	return nil
}

// Load reads the artifact. A missing file is ErrModelNotFound; a corrupt one is a decode error.
func (s *ModelStore) Load() (*models.ModelArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", models.ErrModelNotFound, s.path)
		}
		return nil, fmt.Errorf("failed to open model: %w", err)
	}
	defer f.Close()

	var artifact models.ModelArtifact
	if err := msgpack.NewDecoder(f).Decode(&artifact); err != nil {
		return nil, fmt.Errorf("failed to decode model %s: %w", s.path, err)
	}
	if artifact.CrimeType == "" || len(artifact.Params.Coefficients) == 0 {
		return nil, fmt.Errorf("failed to decode model %s: incomplete artifact", s.path)
	}
	return &artifact, nil
}

// Exists reports whether an artifact file is present
func (s *ModelStore) Exists() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err := os.Stat(s.path)
	return err == nil
}
