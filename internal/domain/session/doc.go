// Package session provides foreign-session visibility for TabMirror.
//
// A foreign session is a browsing session captured on one of the user's
// other devices and delivered by the sync engine. This package decides
// which of those sessions are worth showing and projects them into an
// ordered event stream for a display sink.
//
// Components:
//   - Filter predicates: skip empty tabs, windows, and sessions
//   - Projector: ordered emission of session/window/tab display events
//   - Helper: stateful facade over the sync source with a change callback
//   - Builder: a Sink that assembles JSON-ready views
//   - StaticSource: fixture-backed source for development and tests
//
// Projection Modes:
//   - Visual order: windows and tabs in the order the source stored them
//   - Recency: one synthetic window per session, tabs ordered by last use
//
// The projector also maintains the persisted collapsed-sessions set: the
// set is rebuilt on every pass so stale tags never accumulate.
//
// Example Usage:
//
//	helper := session.NewHelper(source, store, logger)
//	builder := session.NewBuilder()
//	err := helper.ForeignSessions(ctx, builder, session.Options{})
//	views := builder.Sessions()
package session
