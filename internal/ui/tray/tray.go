package tray

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnOpenDashboard func()
	OnPreferences   func()
	OnToggleBreak   func()
	OnLogout        func()
	OnQuit          func()
}

// Manager handles system tray state.
type Manager struct {
	app         desktop.App
	statusItem  *fyne.MenuItem
	breakItem   *fyne.MenuItem
	logoutItem  *fyne.MenuItem
	callbacks   Callbacks
	loggedIn    bool
	onBreak     bool
	statusLabel string
}

// New creates a tray manager with the provided callbacks.
func New(app desktop.App, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:       app,
		callbacks: callbacks,
	}

	manager.statusItem = fyne.NewMenuItem("Status: logged out", nil)
	manager.statusItem.Disabled = true

	manager.breakItem = fyne.NewMenuItem("Start break", func() {
		if manager.callbacks.OnToggleBreak != nil {
			manager.callbacks.OnToggleBreak()
		}
	})
	manager.breakItem.Disabled = true

	manager.logoutItem = fyne.NewMenuItem("Log out", func() {
		if manager.callbacks.OnLogout != nil {
			manager.callbacks.OnLogout()
		}
	})
	manager.logoutItem.Disabled = true

	manager.refreshMenu()
	return manager
}

// SetStatus updates the status label.
func (manager *Manager) SetStatus(status string) {
	manager.statusLabel = status
	manager.statusItem.Label = fmt.Sprintf("Status: %s", status)
	manager.refreshMenu()
}

// SetLoggedIn toggles the session-bound menu items.
func (manager *Manager) SetLoggedIn(loggedIn bool) {
	manager.loggedIn = loggedIn
	manager.breakItem.Disabled = !loggedIn
	manager.logoutItem.Disabled = !loggedIn
	if !loggedIn {
		manager.SetOnBreak(false)
		manager.SetStatus("logged out")
		return
	}
	manager.refreshMenu()
}

// SetOnBreak updates the break toggle label.
func (manager *Manager) SetOnBreak(onBreak bool) {
	manager.onBreak = onBreak
	if onBreak {
		manager.breakItem.Label = "End break"
	} else {
		manager.breakItem.Label = "Start break"
	}
	manager.refreshMenu()
}

func (manager *Manager) refreshMenu() {
	if manager.app == nil {
		return
	}
	manager.app.SetSystemTrayMenu(fyne.NewMenu("TimeTracker",
		manager.statusItem,
		fyne.NewMenuItem("Dashboard", func() {
			if manager.callbacks.OnOpenDashboard != nil {
				manager.callbacks.OnOpenDashboard()
			}
		}),
		fyne.NewMenuItem("Preferences", func() {
			if manager.callbacks.OnPreferences != nil {
				manager.callbacks.OnPreferences()
			}
		}),
		manager.breakItem,
		manager.logoutItem,
		fyne.NewMenuItem("Quit", func() {
			if manager.callbacks.OnQuit != nil {
				manager.callbacks.OnQuit()
			}
		}),
	))
}
