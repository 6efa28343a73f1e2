package position

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"PairTrader/internal/model"
)

// FileStore keeps the position as a single scalar in a text file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a FileStore writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Name() string { return "file:" + s.path }

// Load reads the position file. A missing file means FLAT.
func (s *FileStore) Load(_ context.Context) (model.PositionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.PositionState{Side: model.Flat}, nil
		}
		return model.PositionState{}, &PersistenceError{Op: "load", Err: err}
	}
	state, err := Decode(string(data))
	if err != nil {
		return model.PositionState{}, &PersistenceError{Op: "load", Err: err}
	}
	return state, nil
}

// Save replaces the position file atomically: the value is written to a
// temporary file in the same directory, synced, then renamed over the target.
func (s *FileStore) Save(_ context.Context, state model.PositionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeAtomic([]byte(Encode(state))); err != nil {
		return &PersistenceError{Op: "save", Err: err}
	}
	return nil
}

func (s *FileStore) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return err
	}
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		d.Close()
	}
	return nil
}
