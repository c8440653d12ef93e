package session

import "time"

// DeviceType classifies the device a foreign session was captured on.
type DeviceType string

const (
	DeviceUnknown  DeviceType = "unknown"
	DeviceWindows  DeviceType = "win"
	DeviceMac      DeviceType = "macosx"
	DeviceLinux    DeviceType = "linux"
	DeviceChromeOS DeviceType = "chromeos"
	DevicePhone    DeviceType = "phone"
	DeviceTablet   DeviceType = "tablet"
)

// Navigation is a single history entry within a tab.
type Navigation struct {
	URL   string `json:"url" yaml:"url"`
	Title string `json:"title" yaml:"title"`
}

// Tab is a synced tab snapshot. Navigations are in history order and
// SelectedIndex points at the entry the tab was showing on its device.
type Tab struct {
	ID            int          `json:"id" yaml:"id"`
	Timestamp     time.Time    `json:"timestamp" yaml:"timestamp"`
	SelectedIndex int          `json:"selected_index" yaml:"selected_index"`
	Navigations   []Navigation `json:"navigations" yaml:"navigations"`
}

// NormalizedSelectedIndex clamps the selected index into the valid range.
// Returns -1 for a tab with no navigations.
func (t *Tab) NormalizedSelectedIndex() int {
	if len(t.Navigations) == 0 {
		return -1
	}
	idx := t.SelectedIndex
	if idx < 0 {
		return 0
	}
	if idx >= len(t.Navigations) {
		return len(t.Navigations) - 1
	}
	return idx
}

// CurrentNavigation returns the entry at the normalized selected index.
func (t *Tab) CurrentNavigation() (Navigation, bool) {
	idx := t.NormalizedSelectedIndex()
	if idx < 0 {
		return Navigation{}, false
	}
	return t.Navigations[idx], true
}

// Window is an ordered group of tabs in their visual order.
type Window struct {
	ID        int       `json:"id" yaml:"id"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Tabs      []*Tab    `json:"tabs" yaml:"tabs"`
}

// Session is a foreign browsing session. Owned by the sync engine;
// read-only to this package.
type Session struct {
	Tag          string     `json:"tag" yaml:"tag"`
	Name         string     `json:"name" yaml:"name"`
	DeviceType   DeviceType `json:"device_type" yaml:"device_type"`
	ModifiedTime time.Time  `json:"modified_time" yaml:"modified_time"`
	Windows      []*Window  `json:"windows" yaml:"windows"`
}
