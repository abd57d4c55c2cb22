package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timetracker/internal/core/model"
)

type fakeStore struct {
	mu       sync.Mutex
	records  []Record
	failNext bool
	closed   map[string]time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{closed: map[string]time.Time{}}
}

func (s *fakeStore) CreateSession(_ context.Context, userID string, _ time.Time) (string, error) {
	return "session-" + userID, nil
}

func (s *fakeStore) CloseSession(_ context.Context, sessionID string, logoutTime time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed[sessionID] = logoutTime
	return nil
}

func (s *fakeStore) AppendActivity(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext {
		s.failNext = false
		return errors.New("sink unavailable")
	}
	s.records = append(s.records, record)
	return nil
}

func (s *fakeStore) notes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	notes := make([]string, len(s.records))
	for i, record := range s.records {
		notes[i] = record.Note
	}
	return notes
}

func (s *fakeStore) countNote(note string) int {
	count := 0
	for _, n := range s.notes() {
		if n == note {
			count++
		}
	}
	return count
}

type stubIdle struct {
	mu      sync.Mutex
	idleFor time.Duration
	err     error
}

func (s *stubIdle) set(idleFor time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idleFor = idleFor
}

func (s *stubIdle) IdleDuration() (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idleFor, s.err
}

type stubAuth struct {
	user User
	err  error
}

func (s *stubAuth) Authenticate(context.Context, string, string) (User, error) {
	if s.err != nil {
		return User{}, s.err
	}
	return s.user, nil
}

type stubCapturer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubCapturer) Capture(sessionID string, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.calls++
	return "/shots/" + sessionID + "/" + now.Format("15-04-05") + ".png", nil
}

func (s *stubCapturer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubExporter struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubExporter) ExportSessionActivity(_ context.Context, _, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return "/reports/" + sessionID + ".xlsx", s.err
}

func testConfig() model.TrackerConfig {
	// Long cadences keep the background loop quiet so tests drive
	// tick/captureTick directly.
	return model.TrackerConfig{
		IdleThreshold:    10 * time.Second,
		IdleTickInterval: time.Hour,
		CaptureInterval:  time.Hour,
	}
}

func newTestTracker(store *fakeStore, idle *stubIdle) *Tracker {
	tr := New(testConfig(), store, &stubAuth{user: User{ID: "u1", FullName: "Jess Doe", IsActive: true}})
	tr.SetIdleChecker(idle)
	return tr
}

// startTracked puts the tracker into an active session without running
// the background loop, so transition tests are fully deterministic.
func startTracked(tr *Tracker) {
	tr.mu.Lock()
	tr.trackingActive = true
	tr.userID = "u1"
	tr.userName = "Jess Doe"
	tr.sessionID = "s1"
	tr.loginTime = time.Now()
	tr.mu.Unlock()
}

func TestTickIdleThresholdBoundary(t *testing.T) {
	store := newFakeStore()
	idle := &stubIdle{}
	tr := newTestTracker(store, idle)
	startTracked(tr)

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	idle.set(9 * time.Second)
	for i := 0; i < 5; i++ {
		tr.tick(now.Add(time.Duration(i) * time.Second))
	}
	assert.Empty(t, store.records, "idle below threshold must never start a break")

	idle.set(10 * time.Second)
	tr.tick(now.Add(5 * time.Second))
	tr.tick(now.Add(6 * time.Second))

	require.Equal(t, 1, store.countNote(NoteIdleBreakStart), "inclusive threshold crossing logs exactly once")
	status := tr.Status()
	assert.True(t, status.IdleBreakActive)
	assert.Equal(t, now.Add(5*time.Second), status.IdleBreakStart)
}

func TestTickNoDuplicateTransitions(t *testing.T) {
	store := newFakeStore()
	idle := &stubIdle{}
	tr := newTestTracker(store, idle)
	startTracked(tr)

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	samples := []time.Duration{
		0, 5 * time.Second, 12 * time.Second, 13 * time.Second, 2 * time.Second,
		1 * time.Second, 30 * time.Second, 31 * time.Second, 0, 15 * time.Second, 3 * time.Second,
	}
	for i, sample := range samples {
		idle.set(sample)
		tr.tick(now.Add(time.Duration(i) * time.Second))
	}

	assert.Equal(t, 3, store.countNote(NoteIdleBreakStart))
	assert.Equal(t, 3, store.countNote(NoteIdleBreakStop))

	previous := ""
	for _, note := range store.notes() {
		assert.NotEqual(t, previous, note, "transition notes must alternate")
		previous = note
	}
}

func TestTickRecoveryClosesDanglingIdleBreak(t *testing.T) {
	store := newFakeStore()
	idle := &stubIdle{}
	tr := newTestTracker(store, idle)
	startTracked(tr)

	idle.set(20 * time.Second)
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	tr.tick(now)
	require.True(t, tr.Status().IdleBreakActive)

	tr.mu.Lock()
	tr.trackingActive = false
	tr.mu.Unlock()

	tr.tick(now.Add(time.Second))
	tr.tick(now.Add(2 * time.Second))

	assert.Equal(t, 1, store.countNote(NoteIdleBreakStop), "recovery emits exactly one stop record")
	assert.False(t, tr.Status().IdleBreakActive)
}

func TestStartBreakMutualExclusion(t *testing.T) {
	store := newFakeStore()
	tr := newTestTracker(store, &stubIdle{})
	startTracked(tr)

	first := tr.StartBreak()
	second := tr.StartBreak()

	assert.True(t, first.Started)
	assert.False(t, second.Started)
	assert.Equal(t, ReasonBreakActive, second.Reason)
	assert.Equal(t, 1, store.countNote(NoteManualBreakStart))
}

func TestBreakToggleReasons(t *testing.T) {
	store := newFakeStore()
	tr := newTestTracker(store, &stubIdle{})

	result := tr.StartBreak()
	assert.Equal(t, ReasonNotLoggedIn, result.Reason)

	startTracked(tr)
	result = tr.StopBreak()
	assert.Equal(t, ReasonNoManualBreak, result.Reason)

	require.True(t, tr.StartBreak().Started)
	result = tr.StopBreak()
	assert.True(t, result.Stopped)
	assert.Equal(t, []string{NoteManualBreakStart, NoteManualBreakStop}, store.notes())
}

func TestCaptureSuppressedDuringManualBreak(t *testing.T) {
	store := newFakeStore()
	tr := newTestTracker(store, &stubIdle{})
	capturer := &stubCapturer{}
	tr.SetCapturer(capturer)
	startTracked(tr)

	require.True(t, tr.StartBreak().Started)
	store.mu.Lock()
	store.records = nil
	store.mu.Unlock()

	now := time.Now()
	for i := 0; i < 10; i++ {
		tr.captureTick(now.Add(time.Duration(i) * time.Minute))
	}

	assert.Zero(t, capturer.callCount(), "no capture attempt during a manual break")
	assert.Empty(t, store.records)
}

func TestCaptureRunsDuringIdleBreak(t *testing.T) {
	store := newFakeStore()
	idle := &stubIdle{}
	tr := newTestTracker(store, idle)
	capturer := &stubCapturer{}
	tr.SetCapturer(capturer)
	startTracked(tr)

	idle.set(time.Minute)
	now := time.Now()
	tr.tick(now)
	require.True(t, tr.Status().IdleBreakActive)

	tr.captureTick(now.Add(time.Second))

	assert.Equal(t, 1, capturer.callCount(), "idle break alone does not suppress the background capture")
	assert.Equal(t, 1, store.countNote(NoteAutoScreenshot))
}

func TestCaptureRecordCarriesPath(t *testing.T) {
	store := newFakeStore()
	tr := newTestTracker(store, &stubIdle{})
	tr.SetCapturer(&stubCapturer{})
	startTracked(tr)

	now := time.Date(2025, 3, 10, 14, 30, 5, 0, time.UTC)
	tr.captureTick(now)

	require.Len(t, store.records, 1)
	record := store.records[0]
	assert.Equal(t, NoteAutoScreenshot, record.Note)
	assert.False(t, record.IsIdle)
	assert.False(t, record.IsBreak)
	assert.Equal(t, "/shots/s1/14-30-05.png", record.ScreenshotPath)
}

func TestCaptureFailureDoesNotStopScheduler(t *testing.T) {
	store := newFakeStore()
	tr := newTestTracker(store, &stubIdle{})
	capturer := &stubCapturer{err: errors.New("display unavailable")}
	tr.SetCapturer(capturer)
	startTracked(tr)

	now := time.Now()
	tr.captureTick(now)
	assert.Empty(t, store.records)

	capturer.mu.Lock()
	capturer.err = nil
	capturer.mu.Unlock()

	tr.captureTick(now.Add(time.Minute))
	assert.Equal(t, 1, store.countNote(NoteAutoScreenshot), "next tick proceeds normally after a failure")
}

func TestIdleDetectionContinuesDuringManualBreak(t *testing.T) {
	store := newFakeStore()
	idle := &stubIdle{}
	tr := newTestTracker(store, idle)
	startTracked(tr)

	require.True(t, tr.StartBreak().Started)

	idle.set(time.Minute)
	tr.tick(time.Now())

	status := tr.Status()
	assert.True(t, status.ManualBreakActive)
	assert.True(t, status.IdleBreakActive, "manual break does not pause idle detection")
	assert.Equal(t, 1, store.countNote(NoteIdleBreakStart))
}

func TestAppendFailureSwallowedAtTickBoundary(t *testing.T) {
	store := newFakeStore()
	idle := &stubIdle{}
	tr := newTestTracker(store, idle)
	startTracked(tr)

	store.mu.Lock()
	store.failNext = true
	store.mu.Unlock()

	idle.set(time.Minute)
	now := time.Now()
	tr.tick(now)
	assert.True(t, tr.Status().IdleBreakActive, "state still advances when the sink write fails")

	idle.set(0)
	tr.tick(now.Add(time.Second))
	assert.Equal(t, 1, store.countNote(NoteIdleBreakStop), "loop keeps running after a failed write")
}

func TestLoginLogoutCleanBoundary(t *testing.T) {
	store := newFakeStore()
	tr := newTestTracker(store, &stubIdle{})

	status, err := tr.Login(context.Background(), "jess@example.com", "secret")
	require.NoError(t, err)
	assert.True(t, status.TrackingActive)
	assert.Equal(t, "u1", status.UserID)
	assert.Equal(t, "session-u1", status.SessionID)
	assert.False(t, status.ManualBreakActive)
	assert.False(t, status.IdleBreakActive)

	result := tr.Logout(context.Background())
	assert.Equal(t, "session-u1", result.SessionID)
	assert.False(t, result.LogoutTime.IsZero())
	assert.Contains(t, store.closed, "session-u1")

	status = tr.Status()
	assert.False(t, status.TrackingActive)
	assert.Empty(t, status.UserID)
	assert.Empty(t, status.SessionID)

	again := tr.Logout(context.Background())
	assert.Equal(t, "Not logged in", again.Message)
}

func TestLoginFailureLeavesStateUntouched(t *testing.T) {
	store := newFakeStore()
	authErr := errors.New("invalid email or password")
	tr := New(testConfig(), store, &stubAuth{err: authErr})

	_, err := tr.Login(context.Background(), "jess@example.com", "wrong")
	require.ErrorIs(t, err, authErr)

	status := tr.Status()
	assert.False(t, status.TrackingActive)
	assert.Empty(t, status.UserID)
}

func TestSecondLoginRejectedWhileSessionOpen(t *testing.T) {
	store := newFakeStore()
	tr := newTestTracker(store, &stubIdle{})

	_, err := tr.Login(context.Background(), "jess@example.com", "secret")
	require.NoError(t, err)

	_, err = tr.Login(context.Background(), "jess@example.com", "secret")
	assert.ErrorIs(t, err, ErrSessionOpen)
}

func TestLogoutClosesDanglingIdleBreak(t *testing.T) {
	store := newFakeStore()
	idle := &stubIdle{}
	tr := newTestTracker(store, idle)

	_, err := tr.Login(context.Background(), "jess@example.com", "secret")
	require.NoError(t, err)

	idle.set(time.Minute)
	tr.tick(time.Now())
	require.True(t, tr.Status().IdleBreakActive)

	tr.Logout(context.Background())

	assert.Equal(t, 1, store.countNote(NoteIdleBreakStop))
	assert.False(t, tr.Status().IdleBreakActive)
}

func TestLogoutExportsForNonAdminOnly(t *testing.T) {
	for _, tc := range []struct {
		name        string
		isAdmin     bool
		wantExports int
	}{
		{name: "non-admin exports", isAdmin: false, wantExports: 1},
		{name: "admin skips export", isAdmin: true, wantExports: 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeStore()
			auth := &stubAuth{user: User{ID: "u1", FullName: "Jess Doe", IsAdmin: tc.isAdmin, IsActive: true}}
			tr := New(testConfig(), store, auth)
			exporter := &stubExporter{}
			tr.SetExporter(exporter)

			_, err := tr.Login(context.Background(), "jess@example.com", "secret")
			require.NoError(t, err)
			tr.Logout(context.Background())

			assert.Equal(t, tc.wantExports, exporter.calls)
		})
	}
}

func TestLogoutToleratesExportFailure(t *testing.T) {
	store := newFakeStore()
	tr := newTestTracker(store, &stubIdle{})
	tr.SetExporter(&stubExporter{err: errors.New("disk full")})

	_, err := tr.Login(context.Background(), "jess@example.com", "secret")
	require.NoError(t, err)

	result := tr.Logout(context.Background())
	assert.Equal(t, "session-u1", result.SessionID)
	assert.False(t, tr.Status().TrackingActive)
}

func TestFirstCaptureFiresImmediately(t *testing.T) {
	store := newFakeStore()
	tr := newTestTracker(store, &stubIdle{})
	capturer := &stubCapturer{}
	tr.SetCapturer(capturer)

	_, err := tr.Login(context.Background(), "jess@example.com", "secret")
	require.NoError(t, err)
	defer tr.Logout(context.Background())

	// The capture cadence is an hour in testConfig; only the immediate
	// first capture can satisfy this.
	require.Eventually(t, func() bool {
		return capturer.callCount() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestSubscribeReceivesTransitions(t *testing.T) {
	store := newFakeStore()
	idle := &stubIdle{}
	tr := newTestTracker(store, idle)
	events := tr.Subscribe(8)
	startTracked(tr)

	now := time.Now()
	idle.set(time.Minute)
	tr.tick(now)
	idle.set(0)
	tr.tick(now.Add(time.Second))

	first := <-events
	assert.Equal(t, EventStateChange, first.Type)
	assert.Equal(t, StateIdle, first.State)

	second := <-events
	assert.Equal(t, EventStateChange, second.Type)
	assert.Equal(t, StateActive, second.State)
}
