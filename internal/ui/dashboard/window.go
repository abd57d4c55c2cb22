// Package dashboard provides the main window shown while a session is
// running.
package dashboard

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// Callbacks defines the dashboard action handlers.
type Callbacks struct {
	OnToggleBreak func()
	OnLogout      func()
	OnCaptureNow  func()
}

// Window handles the session dashboard UI. While it is visible it runs a
// foreground capture loop on top of the background one, skipped during
// idle periods.
type Window struct {
	window       fyne.Window
	callbacks    Callbacks
	userLabel    *widget.Label
	stateLabel   *widget.Label
	captureLabel *widget.Label
	breakButton  *widget.Button

	captureEvery time.Duration

	mu      sync.Mutex
	idle    bool
	onBreak bool
	stopCh  chan struct{}
}

// New creates the dashboard window. captureEvery sets the foreground
// capture cadence.
func New(app fyne.App, captureEvery time.Duration, callbacks Callbacks) *Window {
	window := app.NewWindow("TimeTracker")

	dash := &Window{
		window:       window,
		callbacks:    callbacks,
		userLabel:    widget.NewLabel("Not signed in"),
		stateLabel:   widget.NewLabel("State: active"),
		captureLabel: widget.NewLabel("Last capture: none"),
		captureEvery: captureEvery,
	}

	dash.breakButton = widget.NewButton("Start break", func() {
		if dash.callbacks.OnToggleBreak != nil {
			dash.callbacks.OnToggleBreak()
		}
	})

	logoutButton := widget.NewButton("Log Out", func() {
		if dash.callbacks.OnLogout != nil {
			dash.callbacks.OnLogout()
		}
	})

	content := container.NewVBox(
		widget.NewLabelWithStyle("Session", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		dash.userLabel,
		dash.stateLabel,
		dash.captureLabel,
		dash.breakButton,
		logoutButton,
	)

	window.SetContent(container.NewPadded(content))
	window.Resize(fyne.NewSize(380, 300))
	window.SetCloseIntercept(dash.Hide)
	return dash
}

// Show displays the dashboard and starts the foreground capture loop.
func (dash *Window) Show() {
	dash.window.Show()
	dash.window.RequestFocus()
	dash.startForegroundLoop()
}

// Hide hides the dashboard and stops the foreground capture loop.
func (dash *Window) Hide() {
	dash.stopForegroundLoop()
	dash.window.Hide()
}

// SetUser updates the signed-in user line.
func (dash *Window) SetUser(fullName string) {
	if fullName == "" {
		dash.userLabel.SetText("Not signed in")
		return
	}
	dash.userLabel.SetText(fmt.Sprintf("Signed in as %s", fullName))
}

// SetIdle updates the activity state line. The foreground loop pauses
// while idle.
func (dash *Window) SetIdle(idle bool) {
	dash.mu.Lock()
	dash.idle = idle
	dash.mu.Unlock()
	if idle {
		dash.stateLabel.SetText("State: idle")
	} else {
		dash.stateLabel.SetText("State: active")
	}
}

// SetOnBreak updates the break toggle.
func (dash *Window) SetOnBreak(onBreak bool) {
	dash.mu.Lock()
	dash.onBreak = onBreak
	dash.mu.Unlock()
	if onBreak {
		dash.breakButton.SetText("End break")
	} else {
		dash.breakButton.SetText("Start break")
	}
}

// SetLastCapture shows the most recent screenshot file.
func (dash *Window) SetLastCapture(path string, at time.Time) {
	dash.captureLabel.SetText(fmt.Sprintf("Last capture: %s at %s",
		filepath.Base(path), at.Format("15:04:05")))
}

func (dash *Window) startForegroundLoop() {
	dash.mu.Lock()
	defer dash.mu.Unlock()
	if dash.stopCh != nil || dash.captureEvery <= 0 || dash.callbacks.OnCaptureNow == nil {
		return
	}
	stopCh := make(chan struct{})
	dash.stopCh = stopCh

	go func() {
		ticker := time.NewTicker(dash.captureEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				dash.mu.Lock()
				skip := dash.idle
				dash.mu.Unlock()
				if !skip {
					dash.callbacks.OnCaptureNow()
				}
			case <-stopCh:
				return
			}
		}
	}()
}

func (dash *Window) stopForegroundLoop() {
	dash.mu.Lock()
	defer dash.mu.Unlock()
	if dash.stopCh != nil {
		close(dash.stopCh)
		dash.stopCh = nil
	}
}
