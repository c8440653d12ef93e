package sync

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	gosync "sync"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/gzip"
	"github.com/tabmirror/backend/internal/domain/session"
)

// SnapshotCache persists the last good session snapshot as a
// gzip-compressed JSON file, rewritten whole on every store.
type SnapshotCache struct {
	mu   gosync.Mutex
	path string
}

// NewSnapshotCache creates a cache at the given file path.
func NewSnapshotCache(path string) *SnapshotCache {
	return &SnapshotCache{path: path}
}

// Store replaces the cached snapshot.
func (c *SnapshotCache) Store(sessions []*session.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := sonic.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return fmt.Errorf("failed to compress snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// Available reports whether a snapshot exists on disk, without
// decoding it.
func (c *SnapshotCache) Available() bool {
	info, err := os.Stat(c.path)
	return err == nil && info.Size() > 0
}

// Load reads the cached snapshot. A missing file is an empty snapshot.
func (c *SnapshotCache) Load() ([]*session.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.Open(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot header: %w", err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress snapshot: %w", err)
	}

	var sessions []*session.Session
	if err := sonic.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return sessions, nil
}
