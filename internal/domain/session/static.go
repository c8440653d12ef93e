package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
)

// StaticSource is an in-memory Source backed by fixture data. Used in
// development mode and in tests; it is always active.
type StaticSource struct {
	mu       sync.RWMutex
	sessions []*Session
}

// NewStaticSource creates a source over the given sessions.
func NewStaticSource(sessions []*Session) *StaticSource {
	return &StaticSource{sessions: sessions}
}

// LoadFixtures reads every .yaml/.yml file in dir as one Session and
// returns a StaticSource over them, ordered by file name.
func LoadFixtures(dir string) (*StaticSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture dir: %w", err)
	}

	var sessions []*Session
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read fixture %s: %w", entry.Name(), err)
		}

		var s Session
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to parse fixture %s: %w", entry.Name(), err)
		}
		if s.Tag == "" {
			return nil, fmt.Errorf("fixture %s has empty session tag", entry.Name())
		}
		sessions = append(sessions, &s)
	}

	return NewStaticSource(sessions), nil
}

// Sessions implements Source.
func (s *StaticSource) Sessions(ctx context.Context) ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Session, len(s.sessions))
	copy(out, s.sessions)
	return out, nil
}

// SessionTabs implements Source. Tabs are returned most recent first.
func (s *StaticSource) SessionTabs(ctx context.Context, tag string) ([]*Tab, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess := s.find(tag)
	if sess == nil {
		return nil, fmt.Errorf("no session with tag %q", tag)
	}

	var tabs []*Tab
	for _, w := range sess.Windows {
		tabs = append(tabs, w.Tabs...)
	}
	sort.SliceStable(tabs, func(i, j int) bool {
		return tabs[i].Timestamp.After(tabs[j].Timestamp)
	})
	return tabs, nil
}

// Tab implements Source.
func (s *StaticSource) Tab(ctx context.Context, tag string, tabID int) (*Tab, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess := s.find(tag)
	if sess == nil {
		return nil, fmt.Errorf("no session with tag %q", tag)
	}
	for _, w := range sess.Windows {
		for _, t := range w.Tabs {
			if t.ID == tabID {
				return t, nil
			}
		}
	}
	return nil, fmt.Errorf("no tab %d in session %q", tabID, tag)
}

// Delete implements Source.
func (s *StaticSource) Delete(ctx context.Context, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sess := range s.sessions {
		if sess.Tag == tag {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("no session with tag %q", tag)
}

// Refresh implements Source. Fixture data has nothing to refresh.
func (s *StaticSource) Refresh(ctx context.Context) error {
	return nil
}

// Active implements Source.
func (s *StaticSource) Active() bool {
	return true
}

func (s *StaticSource) find(tag string) *Session {
	for _, sess := range s.sessions {
		if sess.Tag == tag {
			return sess
		}
	}
	return nil
}
