package entities

import (
	"time"
)

// Event kinds captured by the tracker.
const (
	EventClick  = "click"
	EventMove   = "move"
	EventScroll = "scroll"
)

// Device classes derived from viewport width at session start.
const (
	DeviceMobile  = "mobile"
	DeviceDesktop = "desktop"
)

// MaxTargetLength bounds the human-readable target label on captured events.
const MaxTargetLength = 100

// InputEvent is one normalized user input. For click and move events X and Y
// are viewport fractions in [0,1]. Scroll events store the scroll position as
// a fraction of the maximum scrollable distance in Y, with X fixed at the
// viewport midpoint.
type InputEvent struct {
	Type      string  `json:"type"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Target    string  `json:"target,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

// ScreenVisit is one contiguous (or re-entered) period of a session spent on
// a single named screen. TimeSpent only grows while the visit is open.
type ScreenVisit struct {
	ScreenName string       `json:"screenName"`
	Timestamp  int64        `json:"timestamp"`
	TimeSpent  int64        `json:"timeSpent"`
	Events     []InputEvent `json:"events"`
}

// ClickCount returns the number of click events in the visit.
func (v *ScreenVisit) ClickCount() int {
	n := 0
	for _, e := range v.Events {
		if e.Type == EventClick {
			n++
		}
	}
	return n
}

// Session is one browser-tab lifetime of tracked activity for one anonymous
// user. UserID, StartTime and Device are immutable once assigned. ID and
// CreatedAt are read-side fields assigned by the store at write time.
type Session struct {
	ID         string        `json:"id,omitempty"`
	UserID     string        `json:"userId"`
	StartTime  int64         `json:"startTime"`
	Device     string        `json:"device"`
	ScreenFlow []ScreenVisit `json:"screenFlow"`
	CreatedAt  time.Time     `json:"createdAt,omitempty"`
}

// TotalDwell returns the summed dwell across all visits in milliseconds.
func (s *Session) TotalDwell() int64 {
	var total int64
	for i := range s.ScreenFlow {
		total += s.ScreenFlow[i].TimeSpent
	}
	return total
}

// TotalClicks returns the summed click count across all visits.
func (s *Session) TotalClicks() int {
	n := 0
	for i := range s.ScreenFlow {
		n += s.ScreenFlow[i].ClickCount()
	}
	return n
}

// VisitedScreen reports whether any visit in the session matches name.
func (s *Session) VisitedScreen(name string) bool {
	for i := range s.ScreenFlow {
		if s.ScreenFlow[i].ScreenName == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the session, safe to hand to a concurrent
// writer while the original keeps mutating.
func (s *Session) Clone() *Session {
	cloned := &Session{
		ID:        s.ID,
		UserID:    s.UserID,
		StartTime: s.StartTime,
		Device:    s.Device,
		CreatedAt: s.CreatedAt,
	}
	cloned.ScreenFlow = make([]ScreenVisit, len(s.ScreenFlow))
	for i, visit := range s.ScreenFlow {
		copied := visit
		copied.Events = make([]InputEvent, len(visit.Events))
		copy(copied.Events, visit.Events)
		cloned.ScreenFlow[i] = copied
	}
	return cloned
}

// SessionEventType labels live feed events.
type SessionEventType string

const (
	// SessionEventIngested is published whenever a snapshot is appended.
	SessionEventIngested SessionEventType = "session_ingested"
)

// SessionEvent is the live feed record published to the event bus when the
// collector ingests a snapshot.
type SessionEvent struct {
	ID          string           `json:"id"`
	EventType   SessionEventType `json:"eventType"`
	UserID      string           `json:"userId"`
	Device      string           `json:"device"`
	ScreenCount int              `json:"screenCount"`
	EventCount  int              `json:"eventCount"`
	CreatedAt   time.Time        `json:"createdAt"`
}
