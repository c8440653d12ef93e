package session

// ShouldSkipTab reports whether a tab has nothing worth displaying:
// either no navigations at all, or the selected entry has an empty URL.
func ShouldSkipTab(tab *Tab) bool {
	nav, ok := tab.CurrentNavigation()
	if !ok {
		return true
	}
	return nav.URL == ""
}

// ShouldSkipWindow reports whether every tab in the window is
// skip-worthy. A window with no tabs is vacuously skip-worthy.
func ShouldSkipWindow(window *Window) bool {
	for _, tab := range window.Tabs {
		if !ShouldSkipTab(tab) {
			return false
		}
	}
	return true
}

// ShouldSkipSession reports whether every window in the session is
// skip-worthy.
func ShouldSkipSession(session *Session) bool {
	for _, window := range session.Windows {
		if !ShouldSkipWindow(window) {
			return false
		}
	}
	return true
}
