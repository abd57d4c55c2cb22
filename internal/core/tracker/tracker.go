package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"timetracker/internal/core/model"
)

// ErrIdleUnsupported indicates idle detection is not available on this system.
var ErrIdleUnsupported = errors.New("idle detection unsupported")

// ErrSessionOpen indicates a login was attempted while a session is active.
var ErrSessionOpen = errors.New("a session is already open")

// IdleChecker reports the duration of user inactivity.
type IdleChecker interface {
	IdleDuration() (time.Duration, error)
}

// Capturer acquires one screenshot and persists it under the session's
// folder, returning the stored path.
type Capturer interface {
	Capture(sessionID string, now time.Time) (string, error)
}

// Store is the persistence collaborator. Append failures are logged and
// swallowed at the tick boundary; they never stop the loops.
type Store interface {
	CreateSession(ctx context.Context, userID string, loginTime time.Time) (string, error)
	CloseSession(ctx context.Context, sessionID string, logoutTime time.Time) error
	AppendActivity(ctx context.Context, record Record) error
}

// User identifies an authenticated account.
type User struct {
	ID       string
	FullName string
	Email    string
	IsAdmin  bool
	IsActive bool
}

// Authenticator validates credentials against the user store.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (User, error)
}

// Exporter runs the optional end-of-session report side effect.
type Exporter interface {
	ExportSessionActivity(ctx context.Context, userID, sessionID string) (string, error)
}

// LogoutResult reports the outcome of Logout.
type LogoutResult struct {
	SessionID  string
	LogoutTime time.Time
	Message    string
}

// Tracker owns the session state and runs the idle/break state machine and
// the background capture scheduler. All state mutation happens under one
// mutex so a tick or action is a single non-preemptible step.
type Tracker struct {
	mu       sync.Mutex
	config   model.TrackerConfig
	store    Store
	auth     Authenticator
	idle     IdleChecker
	capturer Capturer
	exporter Exporter
	log      logrus.FieldLogger
	now      func() time.Time

	trackingActive    bool
	userID            string
	userName          string
	isAdmin           bool
	sessionID         string
	loginTime         time.Time
	manualBreakActive bool
	manualBreakStart  time.Time
	idleBreakActive   bool
	idleBreakStart    time.Time

	events []chan Event
	stopCh chan struct{}
	closed bool
}

// New creates a Tracker. The idle checker, capturer and exporter are
// injected separately so the transition logic stays testable.
func New(config model.TrackerConfig, store Store, auth Authenticator) *Tracker {
	return &Tracker{
		config: config.Normalized(),
		store:  store,
		auth:   auth,
		log:    logrus.StandardLogger(),
		now:    time.Now,
	}
}

// SetIdleChecker injects an idle source.
func (tracker *Tracker) SetIdleChecker(checker IdleChecker) {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	tracker.idle = checker
}

// SetCapturer injects the screenshot collaborator.
func (tracker *Tracker) SetCapturer(capturer Capturer) {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	tracker.capturer = capturer
}

// SetExporter injects the logout-time report collaborator.
func (tracker *Tracker) SetExporter(exporter Exporter) {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	tracker.exporter = exporter
}

// SetLogger replaces the default logger.
func (tracker *Tracker) SetLogger(logger logrus.FieldLogger) {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	tracker.log = logger
}

// Config returns the runtime configuration.
func (tracker *Tracker) Config() model.TrackerConfig {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	return tracker.config
}

// UpdateConfig replaces the cadence configuration. A running session
// keeps its current tickers until the next login.
func (tracker *Tracker) UpdateConfig(config model.TrackerConfig) {
	tracker.mu.Lock()
	tracker.config = config.Normalized()
	tracker.mu.Unlock()
}

// Subscribe registers a new observer channel.
func (tracker *Tracker) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	tracker.mu.Lock()
	tracker.events = append(tracker.events, ch)
	tracker.mu.Unlock()
	return ch
}

// Status returns a snapshot of the tracking state.
func (tracker *Tracker) Status() Status {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	return Status{
		TrackingActive:    tracker.trackingActive,
		UserID:            tracker.userID,
		UserName:          tracker.userName,
		IsAdmin:           tracker.isAdmin,
		SessionID:         tracker.sessionID,
		LoginTime:         tracker.loginTime,
		ManualBreakActive: tracker.manualBreakActive,
		ManualBreakStart:  tracker.manualBreakStart,
		IdleBreakActive:   tracker.idleBreakActive,
		IdleBreakStart:    tracker.idleBreakStart,
	}
}

// Login authenticates the user, opens a session and starts both loops.
// On failure the tracking state is left untouched.
func (tracker *Tracker) Login(ctx context.Context, email, password string) (Status, error) {
	user, err := tracker.auth.Authenticate(ctx, email, password)
	if err != nil {
		return Status{}, err
	}

	tracker.mu.Lock()
	if tracker.trackingActive {
		tracker.mu.Unlock()
		return Status{}, ErrSessionOpen
	}
	loginTime := tracker.now()
	sessionID, err := tracker.store.CreateSession(ctx, user.ID, loginTime)
	if err != nil {
		tracker.mu.Unlock()
		return Status{}, fmt.Errorf("creating session: %w", err)
	}

	tracker.trackingActive = true
	tracker.userID = user.ID
	tracker.userName = user.FullName
	tracker.isAdmin = user.IsAdmin
	tracker.sessionID = sessionID
	tracker.loginTime = loginTime
	tracker.manualBreakActive = false
	tracker.manualBreakStart = time.Time{}
	tracker.idleBreakActive = false
	tracker.idleBreakStart = time.Time{}
	stopCh := make(chan struct{})
	tracker.stopCh = stopCh
	tracker.mu.Unlock()

	tracker.emit(Event{Type: EventSessionStarted, State: StateActive, SessionID: sessionID, At: loginTime})
	go tracker.run(stopCh)

	return tracker.Status(), nil
}

// Logout closes the session, stops both loops and clears the tracking
// state. It is a no-op with an informational message when no session is
// open. Export failures never block logout.
func (tracker *Tracker) Logout(ctx context.Context) LogoutResult {
	tracker.mu.Lock()
	if !tracker.trackingActive || tracker.sessionID == "" {
		tracker.mu.Unlock()
		return LogoutResult{Message: "Not logged in"}
	}

	logoutTime := tracker.now()
	if tracker.idleBreakActive {
		tracker.stopIdleBreakLocked(logoutTime)
	}
	sessionID := tracker.sessionID
	userID := tracker.userID
	isAdmin := tracker.isAdmin
	exporter := tracker.exporter

	if err := tracker.store.CloseSession(ctx, sessionID, logoutTime); err != nil {
		tracker.log.WithError(err).WithField("session_id", sessionID).Error("closing session")
	}

	if tracker.stopCh != nil {
		close(tracker.stopCh)
		tracker.stopCh = nil
	}
	tracker.trackingActive = false
	tracker.userID = ""
	tracker.userName = ""
	tracker.isAdmin = false
	tracker.sessionID = ""
	tracker.loginTime = time.Time{}
	tracker.manualBreakActive = false
	tracker.manualBreakStart = time.Time{}
	tracker.idleBreakActive = false
	tracker.idleBreakStart = time.Time{}
	tracker.mu.Unlock()

	if exporter != nil && !isAdmin {
		if _, err := exporter.ExportSessionActivity(ctx, userID, sessionID); err != nil {
			tracker.log.WithError(err).WithField("session_id", sessionID).Error("exporting session activity")
		}
	}

	tracker.emit(Event{Type: EventSessionEnded, State: StateActive, SessionID: sessionID, At: logoutTime})
	return LogoutResult{SessionID: sessionID, LogoutTime: logoutTime}
}

// StartBreak begins a manual break.
func (tracker *Tracker) StartBreak() BreakResult {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()

	if !tracker.trackingActive || tracker.sessionID == "" {
		return BreakResult{Reason: ReasonNotLoggedIn}
	}
	if tracker.manualBreakActive {
		return BreakResult{Reason: ReasonBreakActive}
	}

	startedAt := tracker.now()
	tracker.manualBreakActive = true
	tracker.manualBreakStart = startedAt
	tracker.appendLocked(Record{
		UserID:    tracker.userID,
		SessionID: tracker.sessionID,
		Timestamp: startedAt,
		IsBreak:   true,
		Note:      NoteManualBreakStart,
	})
	return BreakResult{Started: true, At: startedAt}
}

// StopBreak ends a manual break.
func (tracker *Tracker) StopBreak() BreakResult {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()

	if !tracker.trackingActive || tracker.sessionID == "" {
		return BreakResult{Reason: ReasonNotLoggedIn}
	}
	if !tracker.manualBreakActive {
		return BreakResult{Reason: ReasonNoManualBreak}
	}

	stoppedAt := tracker.now()
	tracker.appendLocked(Record{
		UserID:    tracker.userID,
		SessionID: tracker.sessionID,
		Timestamp: stoppedAt,
		IsBreak:   true,
		Note:      NoteManualBreakStop,
	})
	tracker.manualBreakActive = false
	tracker.manualBreakStart = time.Time{}
	return BreakResult{Stopped: true, At: stoppedAt}
}

// CaptureNow runs one capture step outside the background cadence. The
// dashboard's foreground loop calls this; the same skip rules apply.
func (tracker *Tracker) CaptureNow() {
	tracker.captureTick(tracker.now())
}

// Close releases observer channels and stops a running loop. The tracker
// is unusable afterwards.
func (tracker *Tracker) Close() {
	tracker.mu.Lock()
	if tracker.closed {
		tracker.mu.Unlock()
		return
	}
	tracker.closed = true
	if tracker.stopCh != nil {
		close(tracker.stopCh)
		tracker.stopCh = nil
	}
	events := tracker.events
	tracker.events = nil
	tracker.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

func (tracker *Tracker) run(stopCh chan struct{}) {
	tracker.captureTick(tracker.now())

	config := tracker.Config()
	idleTicker := time.NewTicker(config.IdleTickInterval)
	defer idleTicker.Stop()
	captureTicker := time.NewTicker(config.CaptureInterval)
	defer captureTicker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case tickTime := <-idleTicker.C:
			tracker.tick(tickTime)
		case tickTime := <-captureTicker.C:
			tracker.captureTick(tickTime)
		}
	}
}

// tick is one step of the idle/break state machine. Exactly one activity
// record is written per transition edge; steady state writes nothing.
func (tracker *Tracker) tick(now time.Time) {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()

	if !tracker.trackingActive || tracker.userID == "" || tracker.sessionID == "" {
		// Recovery: never leave an idle break dangling once tracking stops.
		if tracker.idleBreakActive {
			tracker.stopIdleBreakLocked(now)
		}
		return
	}

	if tracker.idle == nil {
		return
	}
	idleFor, err := tracker.idle.IdleDuration()
	if err != nil {
		if errors.Is(err, ErrIdleUnsupported) {
			return
		}
		tracker.log.WithError(err).Warn("reading idle duration")
		return
	}

	switch {
	case idleFor >= tracker.config.IdleThreshold && !tracker.idleBreakActive:
		tracker.idleBreakActive = true
		tracker.idleBreakStart = now
		tracker.appendLocked(Record{
			UserID:    tracker.userID,
			SessionID: tracker.sessionID,
			Timestamp: now,
			IsIdle:    true,
			IsBreak:   true,
			Note:      NoteIdleBreakStart,
		})
		tracker.emitLocked(Event{Type: EventStateChange, State: StateIdle, SessionID: tracker.sessionID, At: now})

	case idleFor < tracker.config.IdleThreshold && tracker.idleBreakActive:
		tracker.stopIdleBreakLocked(now)
	}
}

// captureTick is one step of the capture scheduler. A manual break
// suppresses capture; an idle break alone does not.
func (tracker *Tracker) captureTick(now time.Time) {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()

	if !tracker.trackingActive || tracker.userID == "" || tracker.sessionID == "" {
		return
	}
	if tracker.manualBreakActive {
		return
	}
	if tracker.capturer == nil {
		return
	}

	path, err := tracker.capturer.Capture(tracker.sessionID, now)
	if err != nil {
		tracker.log.WithError(err).WithField("session_id", tracker.sessionID).Warn("screenshot capture failed")
		return
	}

	tracker.appendLocked(Record{
		UserID:         tracker.userID,
		SessionID:      tracker.sessionID,
		Timestamp:      now,
		ScreenshotPath: path,
		Note:           NoteAutoScreenshot,
	})
	tracker.emitLocked(Event{Type: EventCaptureSaved, State: StateActive, SessionID: tracker.sessionID, Path: path, At: now})
}

// stopIdleBreakLocked closes an open idle break: one record, flags cleared,
// display notified.
func (tracker *Tracker) stopIdleBreakLocked(now time.Time) {
	tracker.appendLocked(Record{
		UserID:    tracker.userID,
		SessionID: tracker.sessionID,
		Timestamp: now,
		IsBreak:   true,
		Note:      NoteIdleBreakStop,
	})
	tracker.idleBreakActive = false
	tracker.idleBreakStart = time.Time{}
	tracker.emitLocked(Event{Type: EventStateChange, State: StateActive, SessionID: tracker.sessionID, At: now})
}

// appendLocked writes one activity record. A missed record is acceptable
// data loss; the failure is logged and the loop continues.
func (tracker *Tracker) appendLocked(record Record) {
	if err := tracker.store.AppendActivity(context.Background(), record); err != nil {
		tracker.log.WithError(err).WithField("note", record.Note).Error("appending activity record")
	}
}

func (tracker *Tracker) emit(event Event) {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	tracker.emitLocked(event)
}

func (tracker *Tracker) emitLocked(event Event) {
	for _, ch := range tracker.events {
		select {
		case ch <- event:
		default:
		}
	}
}
