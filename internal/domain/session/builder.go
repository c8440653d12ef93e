package session

import "time"

// TabView is a display-ready tab entry.
type TabView struct {
	ID        int       `json:"id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
}

// WindowView is a display-ready window with its surviving tabs.
type WindowView struct {
	ID        int       `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Tabs      []TabView `json:"tabs"`
}

// SessionView is a display-ready session with its surviving windows.
type SessionView struct {
	Tag          string       `json:"tag"`
	Name         string       `json:"name"`
	DeviceType   DeviceType   `json:"device_type"`
	ModifiedTime time.Time    `json:"modified_time"`
	Windows      []WindowView `json:"windows"`
}

// Builder is a Sink that assembles the emitted events into a JSON-ready
// view tree.
type Builder struct {
	sessions []*SessionView
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// StartSession implements Sink.
func (b *Builder) StartSession(tag, name string, deviceType DeviceType, modifiedTime time.Time) {
	b.sessions = append(b.sessions, &SessionView{
		Tag:          tag,
		Name:         name,
		DeviceType:   deviceType,
		ModifiedTime: modifiedTime,
	})
}

// StartWindow implements Sink.
func (b *Builder) StartWindow(timestamp time.Time, windowID int) {
	s := b.current()
	if s == nil {
		return
	}
	s.Windows = append(s.Windows, WindowView{ID: windowID, Timestamp: timestamp})
}

// PushTab implements Sink.
func (b *Builder) PushTab(url, title string, timestamp time.Time, tabID int) {
	s := b.current()
	if s == nil || len(s.Windows) == 0 {
		return
	}
	w := &s.Windows[len(s.Windows)-1]
	w.Tabs = append(w.Tabs, TabView{
		ID:        tabID,
		URL:       url,
		Title:     title,
		Timestamp: timestamp,
	})
}

// Sessions returns the assembled views in emission order.
func (b *Builder) Sessions() []*SessionView {
	return b.sessions
}

func (b *Builder) current() *SessionView {
	if len(b.sessions) == 0 {
		return nil
	}
	return b.sessions[len(b.sessions)-1]
}
