package decision

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hpungsan/cull/internal/errors"
)

// FileStore persists decisions as a single JSON object mapping handle to
// decision string. The whole file is read, modified, and rewritten on
// every Save/Delete. The mutex serializes writers within this process;
// concurrent writers in separate processes can still lose updates, which
// is accepted for a single-operator tool.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a FileStore backed by path. The file is created on
// first write; its absence is an empty store, not an error.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// LoadAll implements Store.
func (s *FileStore) LoadAll(ctx context.Context) (map[string]Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Save implements Store.
func (s *FileStore) Save(ctx context.Context, handle string, d Decision) error {
	if handle == "" {
		return errors.NewInvalidRequest("handle is required")
	}
	if !d.Valid() {
		return errors.NewInvalidRequest(fmt.Sprintf("decision must be %q or %q", Keep, Delete))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	decisions, err := s.read()
	if err != nil {
		return err
	}
	decisions[handle] = d
	return s.write(decisions)
}

// Get implements Store.
func (s *FileStore) Get(ctx context.Context, handle string) (Decision, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	decisions, err := s.read()
	if err != nil {
		return "", false, err
	}
	d, ok := decisions[handle]
	return d, ok, nil
}

// Delete implements Store.
func (s *FileStore) Delete(ctx context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	decisions, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := decisions[handle]; !ok {
		return nil
	}
	delete(decisions, handle)
	return s.write(decisions)
}

// Close implements Store. The file store holds no open resources.
func (s *FileStore) Close() error {
	return nil
}

// read loads the full mapping from disk. Caller holds the mutex.
func (s *FileStore) read() (map[string]Decision, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Decision{}, nil
		}
		return nil, errors.NewStore(fmt.Errorf("read %s: %w", s.path, err))
	}

	decisions := map[string]Decision{}
	if err := json.Unmarshal(data, &decisions); err != nil {
		return nil, errors.NewStore(fmt.Errorf("parse %s: %w", s.path, err))
	}
	return decisions, nil
}

// write rewrites the whole mapping via temp file, fsync, and atomic
// rename, so a crash mid-write preserves the previous file. Caller holds
// the mutex.
func (s *FileStore) write(decisions map[string]Decision) error {
	data, err := json.MarshalIndent(decisions, "", "  ")
	if err != nil {
		return errors.NewInternal(err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return errors.NewStore(fmt.Errorf("create %s: %w", dir, err))
		}
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("generate temp file name: %w", err))
	}
	tempPath := s.path + "." + hex.EncodeToString(randBytes) + ".tmp"

	f, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return errors.NewStore(fmt.Errorf("create temp file: %w", err))
	}

	success := false
	defer func() {
		if !success {
			f.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return errors.NewStore(fmt.Errorf("write %s: %w", tempPath, err))
	}
	if err := f.Sync(); err != nil {
		return errors.NewStore(fmt.Errorf("sync %s: %w", tempPath, err))
	}
	if err := f.Close(); err != nil {
		return errors.NewStore(fmt.Errorf("close %s: %w", tempPath, err))
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		return errors.NewStore(fmt.Errorf("finalize %s: %w", s.path, err))
	}

	success = true
	return nil
}
