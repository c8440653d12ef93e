package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bytedance/sonic"
)

// Package is an installed item with its manifest and metadata.
type Package struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Version     string                 `json:"version"`
	Description string                 `json:"description"`
	Permissions []string               `json:"permissions"`
	Extra       map[string]interface{} `json:"extra,omitempty"`
	InstalledAt time.Time              `json:"installed_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// Stats summarizes registry contents.
type Stats struct {
	TotalPackages int `json:"total_packages"`
}

// Manager handles package persistence with an in-memory cache.
type Manager struct {
	packages    sync.Map
	storagePath string
}

// NewManager creates a registry manager rooted at storagePath.
func NewManager(storagePath string) *Manager {
	return &Manager{storagePath: storagePath}
}

// Save persists a package and caches it.
func (m *Manager) Save(pkg *Package) error {
	if pkg.ID == "" {
		return fmt.Errorf("package ID is required")
	}

	now := time.Now()
	pkg.UpdatedAt = now
	if pkg.InstalledAt.IsZero() {
		pkg.InstalledAt = now
	}

	data, err := sonic.Marshal(pkg)
	if err != nil {
		return fmt.Errorf("failed to marshal package: %w", err)
	}

	path := m.packagePath(pkg.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create package dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write package: %w", err)
	}

	m.packages.Store(pkg.ID, pkg)
	return nil
}

// Load returns a package from cache or disk.
func (m *Manager) Load(id string) (*Package, error) {
	if cached, ok := m.packages.Load(id); ok {
		return cached.(*Package), nil
	}

	data, err := os.ReadFile(m.packagePath(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read package: %w", err)
	}

	var pkg Package
	if err := sonic.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal package %s: %w", id, err)
	}
	if pkg.ID == "" {
		return nil, fmt.Errorf("package %s has empty ID field", id)
	}

	m.packages.Store(id, &pkg)
	return &pkg, nil
}

// List returns all cached and persisted packages sorted by ID.
func (m *Manager) List() ([]*Package, error) {
	if err := m.warmCache(); err != nil {
		return nil, err
	}

	var out []*Package
	m.packages.Range(func(_, value interface{}) bool {
		out = append(out, value.(*Package))
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Delete removes a package from disk and cache.
func (m *Manager) Delete(id string) error {
	if err := os.Remove(m.packagePath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete package: %w", err)
	}
	m.packages.Delete(id)
	return nil
}

// Stats returns registry statistics.
func (m *Manager) Stats() Stats {
	var total int
	m.packages.Range(func(_, _ interface{}) bool {
		total++
		return true
	})
	return Stats{TotalPackages: total}
}

// warmCache loads any persisted packages not yet in memory.
func (m *Manager) warmCache() error {
	dir := filepath.Join(m.storagePath, "packages")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read package dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		id := entry.Name()[:len(entry.Name())-len(".json")]
		if _, ok := m.packages.Load(id); ok {
			continue
		}
		if _, err := m.Load(id); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) packagePath(id string) string {
	return filepath.Join(m.storagePath, "packages", id+".json")
}
