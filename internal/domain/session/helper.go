package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/tabmirror/backend/internal/infrastructure/logging"
	"go.uber.org/zap"
)

// Helper is the stateful facade over the sync source. It owns the
// projector, the change-callback slot, and the tab lookup used by the
// restore flow.
type Helper struct {
	source    Source
	projector *Projector
	log       *logging.Logger

	mu       sync.Mutex
	onChange func()
}

// NewHelper creates a helper over the given source and collapsed store.
func NewHelper(source Source, collapsed CollapsedStore, log *logging.Logger) *Helper {
	return &Helper{
		source:    source,
		projector: NewProjector(source, collapsed, log),
		log:       log,
	}
}

// TabSyncEnabled reports whether the sync source is active.
func (h *Helper) TabSyncEnabled() bool {
	return h.source.Active()
}

// SetOnChange registers the single change subscriber. Registering a new
// callback silently replaces any previous one; nil clears the slot.
func (h *Helper) SetOnChange(fn func()) {
	h.mu.Lock()
	h.onChange = fn
	h.mu.Unlock()
}

// NotifyChanged fires the registered change callback, if any. Called
// when the session source or sync configuration changes. The signal
// carries no payload; consumers re-query.
func (h *Helper) NotifyChanged() {
	h.mu.Lock()
	fn := h.onChange
	h.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// ForeignSessions projects the current snapshot into sink. Returns
// ErrSyncUnavailable when the source is not active.
func (h *Helper) ForeignSessions(ctx context.Context, sink Sink, opts Options) error {
	if !h.source.Active() {
		return ErrSyncUnavailable
	}
	return h.projector.Project(ctx, sink, opts)
}

// OpenTab resolves a foreign tab for restoring in a local window.
func (h *Helper) OpenTab(ctx context.Context, tag string, tabID int) (*Tab, error) {
	if !h.source.Active() {
		return nil, ErrSyncUnavailable
	}

	tab, err := h.source.Tab(ctx, tag, tabID)
	if err != nil {
		h.log.Error("failed to load foreign tab",
			zap.String("tag", tag), zap.Int("tab_id", tabID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrTabNotFound, err)
	}

	if len(tab.Navigations) == 0 {
		return nil, ErrTabStale
	}

	return tab, nil
}

// Delete removes a foreign session from the sync engine.
func (h *Helper) Delete(ctx context.Context, tag string) error {
	if !h.source.Active() {
		return ErrSyncUnavailable
	}
	if err := h.source.Delete(ctx, tag); err != nil {
		return fmt.Errorf("failed to delete foreign session: %w", err)
	}
	h.NotifyChanged()
	return nil
}

// TriggerSync asks the sync engine to refresh sessions.
func (h *Helper) TriggerSync(ctx context.Context) error {
	if !h.source.Active() {
		return ErrSyncUnavailable
	}
	return h.source.Refresh(ctx)
}
