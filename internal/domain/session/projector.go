package session

import (
	"context"
	"fmt"
	"time"

	"github.com/tabmirror/backend/internal/infrastructure/logging"
	"go.uber.org/zap"
)

// Sink receives ordered display events during a projection pass.
// Events arrive strictly nested: StartSession, then StartWindow, then
// PushTab for each tab of that window.
type Sink interface {
	StartSession(tag, name string, deviceType DeviceType, modifiedTime time.Time)
	StartWindow(timestamp time.Time, windowID int)
	PushTab(url, title string, timestamp time.Time, tabID int)
}

// Source supplies read-only foreign-session snapshots on demand.
type Source interface {
	// Sessions returns the current snapshot of all foreign sessions.
	Sessions(ctx context.Context) ([]*Session, error)
	// SessionTabs returns every tab of one session ordered by recency,
	// most recent first. The source owns the ordering.
	SessionTabs(ctx context.Context, tag string) ([]*Tab, error)
	// Tab looks up a single tab by session tag and tab id.
	Tab(ctx context.Context, tag string, tabID int) (*Tab, error)
	// Delete removes a foreign session from the sync engine.
	Delete(ctx context.Context, tag string) error
	// Refresh asks the sync engine to re-sync sessions.
	Refresh(ctx context.Context) error
	// Active reports whether the source is connected and syncing sessions.
	Active() bool
}

// CollapsedStore persists the set of session tags the user collapsed in
// the UI. The projector reads it and fully rewrites it on every pass.
type CollapsedStore interface {
	Load() (map[string]bool, error)
	Replace(map[string]bool) error
}

// Options controls a projection pass.
type Options struct {
	// GroupByRecency collapses each session into one synthetic window
	// (id 0) with tabs ordered by last use across all real windows.
	GroupByRecency bool
}

// Projector walks a source snapshot and emits display events for the
// sessions, windows, and tabs that pass the skip filters.
type Projector struct {
	source    Source
	collapsed CollapsedStore
	log       *logging.Logger
}

// NewProjector creates a projector over the given source.
func NewProjector(source Source, collapsed CollapsedStore, log *logging.Logger) *Projector {
	return &Projector{
		source:    source,
		collapsed: collapsed,
		log:       log,
	}
}

// Project emits display events for every displayable session into sink.
// It fails only if the snapshot retrieval itself fails; zero displayable
// sessions is success with an empty emission.
//
// As a side channel it rebuilds the collapsed-sessions set: the set is
// cleared and only tags that were collapsed before and are emitted in
// this pass are added back, so stale tags are dropped.
func (p *Projector) Project(ctx context.Context, sink Sink, opts Options) error {
	sessions, err := p.source.Sessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list foreign sessions: %w", err)
	}

	collapsed, err := p.collapsed.Load()
	if err != nil {
		// Collapsed state is housekeeping; losing it must not block display.
		p.log.Warn("failed to load collapsed sessions, starting empty", zap.Error(err))
		collapsed = nil
	}
	kept := make(map[string]bool)

	for _, s := range sessions {
		if ShouldSkipSession(s) {
			continue
		}

		if collapsed[s.Tag] {
			kept[s.Tag] = true
		}

		sink.StartSession(s.Tag, s.Name, s.DeviceType, s.ModifiedTime)

		if opts.GroupByRecency {
			p.projectByRecency(ctx, sink, s)
		} else {
			projectVisual(sink, s)
		}
	}

	if err := p.collapsed.Replace(kept); err != nil {
		p.log.Warn("failed to rewrite collapsed sessions", zap.Error(err))
	}

	return nil
}

// projectVisual emits the session's windows and tabs in stored order.
func projectVisual(sink Sink, s *Session) {
	for _, w := range s.Windows {
		if ShouldSkipWindow(w) {
			continue
		}
		sink.StartWindow(w.Timestamp, w.ID)
		for _, t := range w.Tabs {
			if ShouldSkipTab(t) {
				continue
			}
			pushTab(sink, t)
		}
	}
}

// projectByRecency emits one synthetic window holding the session's tabs
// in the order the source's recency query returned them. No re-sort
// happens here; the source owns the ordering.
func (p *Projector) projectByRecency(ctx context.Context, sink Sink, s *Session) {
	tabs, err := p.source.SessionTabs(ctx, s.Tag)
	if err != nil {
		p.log.Warn("failed to fetch recency-ordered tabs",
			zap.String("tag", s.Tag), zap.Error(err))
		tabs = nil
	}
	sink.StartWindow(s.ModifiedTime, 0)
	for _, t := range tabs {
		if ShouldSkipTab(t) {
			continue
		}
		pushTab(sink, t)
	}
}

func pushTab(sink Sink, t *Tab) {
	nav, ok := t.CurrentNavigation()
	if !ok {
		return
	}
	sink.PushTab(nav.URL, nav.Title, t.Timestamp, t.ID)
}
