package tracker

import "time"

// State is the derived presence state pushed to the display surface.
type State string

const (
	StateActive State = "active"
	StateIdle   State = "idle"
)

// EventType defines the type of tracker event.
type EventType string

const (
	EventStateChange    EventType = "state_change"
	EventCaptureSaved   EventType = "capture_saved"
	EventSessionStarted EventType = "session_started"
	EventSessionEnded   EventType = "session_ended"
)

// Event represents a tracker update for observers.
type Event struct {
	Type      EventType
	State     State
	SessionID string
	Path      string
	At        time.Time
}

// Note tags written to activity records. The vocabulary is fixed; reports
// group on these values.
const (
	NoteIdleBreakStart   = "idle_break_start"
	NoteIdleBreakStop    = "idle_break_stop"
	NoteManualBreakStart = "manual_break_start"
	NoteManualBreakStop  = "manual_break_stop"
	NoteAutoScreenshot   = "auto_screenshot"
)

// Record is one append-only activity fact: at Timestamp, for this session,
// the tracked state was as flagged.
type Record struct {
	UserID         string
	SessionID      string
	Timestamp      time.Time
	IsIdle         bool
	IsBreak        bool
	ScreenshotPath string
	Note           string
}

// BreakResult reports the outcome of a user-initiated break toggle.
// Expected misuse (already active, nothing to stop) is a Reason, never an
// error.
type BreakResult struct {
	Started bool
	Stopped bool
	At      time.Time
	Reason  string
}

// Reasons returned by break toggles.
const (
	ReasonNotLoggedIn   = "Not logged in"
	ReasonBreakActive   = "Break already active"
	ReasonNoManualBreak = "No manual break active"
)

// Status is a point-in-time snapshot of the tracking state.
type Status struct {
	TrackingActive    bool
	UserID            string
	UserName          string
	IsAdmin           bool
	SessionID         string
	LoginTime         time.Time
	ManualBreakActive bool
	ManualBreakStart  time.Time
	IdleBreakActive   bool
	IdleBreakStart    time.Time
}
