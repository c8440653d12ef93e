package session

import "errors"

var (
	// ErrSyncUnavailable indicates the sync source is absent or not yet
	// syncing sessions. No partial results accompany it.
	ErrSyncUnavailable = errors.New("session sync is not active")

	// ErrTabNotFound indicates the requested foreign tab does not exist.
	ErrTabNotFound = errors.New("foreign tab not found")

	// ErrTabStale indicates the tab exists but no longer has valid
	// navigations and cannot be restored.
	ErrTabStale = errors.New("foreign tab no longer has valid navigations")
)
