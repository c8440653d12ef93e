package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"
)

// BoolSetStore persists a string→bool set as a JSON file. The whole
// file is replaced on every write via a temp-file rename.
type BoolSetStore struct {
	mu   sync.Mutex
	path string
}

// NewBoolSetStore creates a store at the given file path. Parent
// directories are created on first write.
func NewBoolSetStore(path string) *BoolSetStore {
	return &BoolSetStore{path: path}
}

// Load reads the current set. A missing file is an empty set.
func (s *BoolSetStore) Load() (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	set := map[string]bool{}
	if err := sonic.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	return set, nil
}

// Replace atomically overwrites the set with the given contents.
func (s *BoolSetStore) Replace(set map[string]bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if set == nil {
		set = map[string]bool{}
	}

	data, err := sonic.Marshal(set)
	if err != nil {
		return fmt.Errorf("failed to marshal set: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create pref dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}
