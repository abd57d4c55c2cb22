// Package adminpanel provides the administrator window with usage
// statistics, user management and report exports.
package adminpanel

import (
	"fmt"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"timetracker/internal/admin"
	"timetracker/internal/storage"
)

// Callbacks defines the data operations the panel drives.
type Callbacks struct {
	LoadStats        func() (admin.Stats, error)
	LoadUsers        func(page int, search string) (admin.UserPage, error)
	SetUserActive    func(id string, active bool) error
	DeleteUser       func(id string) error
	ExportAttendance func(from, to time.Time) (string, error)
	ExportActivities func(from, to time.Time) (string, error)
}

// Window handles the admin panel UI.
type Window struct {
	window      fyne.Window
	callbacks   Callbacks
	statsLabel  *widget.Label
	searchEntry *widget.Entry
	userList    *widget.List
	statusLine  *widget.Label
	users       []storage.User
	page        int
}

// New creates the admin panel window.
func New(app fyne.App, callbacks Callbacks) *Window {
	window := app.NewWindow("TimeTracker Admin")

	panel := &Window{
		window:     window,
		callbacks:  callbacks,
		statsLabel: widget.NewLabel(""),
		statusLine: widget.NewLabel(""),
		page:       1,
	}

	panel.searchEntry = widget.NewEntry()
	panel.searchEntry.SetPlaceHolder("Search users by name or email")
	panel.searchEntry.OnSubmitted = func(string) { panel.Refresh() }

	panel.userList = widget.NewList(
		func() int { return len(panel.users) },
		func() fyne.CanvasObject {
			return container.NewHBox(
				widget.NewLabel("user"),
				widget.NewButton("Deactivate", nil),
				widget.NewButton("Delete", nil),
			)
		},
		func(id widget.ListItemID, item fyne.CanvasObject) {
			if id >= len(panel.users) {
				return
			}
			user := panel.users[id]
			row := item.(*fyne.Container)
			label := row.Objects[0].(*widget.Label)
			toggle := row.Objects[1].(*widget.Button)
			remove := row.Objects[2].(*widget.Button)

			label.SetText(describeUser(user))
			if user.IsActive {
				toggle.SetText("Deactivate")
			} else {
				toggle.SetText("Activate")
			}
			toggle.OnTapped = func() { panel.toggleActive(user) }
			remove.OnTapped = func() { panel.deleteUser(user) }
		},
	)

	refresh := widget.NewButton("Refresh", panel.Refresh)
	attendance := widget.NewButton("Export attendance (7 days)", func() {
		panel.export(panel.callbacks.ExportAttendance)
	})
	activities := widget.NewButton("Export activities (7 days)", func() {
		panel.export(panel.callbacks.ExportActivities)
	})

	top := container.NewVBox(
		widget.NewLabelWithStyle("Overview", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		panel.statsLabel,
		container.NewHBox(refresh, attendance, activities),
		panel.searchEntry,
	)

	window.SetContent(container.NewBorder(top, panel.statusLine, nil, nil, panel.userList))
	window.Resize(fyne.NewSize(560, 480))
	window.SetCloseIntercept(window.Hide)
	return panel
}

// Show displays the panel with freshly loaded data.
func (panel *Window) Show() {
	panel.Refresh()
	panel.window.Show()
	panel.window.RequestFocus()
}

// Hide hides the panel.
func (panel *Window) Hide() {
	panel.window.Hide()
}

// Refresh reloads the stats line and the user list.
func (panel *Window) Refresh() {
	if panel.callbacks.LoadStats != nil {
		stats, err := panel.callbacks.LoadStats()
		if err != nil {
			panel.setStatus(fmt.Sprintf("Loading stats failed: %v", err))
		} else {
			panel.statsLabel.SetText(fmt.Sprintf(
				"Users: %d (%d active)   Open sessions: %d   Activities today: %d",
				stats.TotalUsers, stats.ActiveUsers, stats.OpenSessions, stats.TodayActivities))
		}
	}

	if panel.callbacks.LoadUsers == nil {
		return
	}
	page, err := panel.callbacks.LoadUsers(panel.page, strings.TrimSpace(panel.searchEntry.Text))
	if err != nil {
		panel.setStatus(fmt.Sprintf("Loading users failed: %v", err))
		return
	}
	panel.users = page.Users
	panel.userList.Refresh()
	panel.setStatus(fmt.Sprintf("%d users", page.Total))
}

func (panel *Window) toggleActive(user storage.User) {
	if panel.callbacks.SetUserActive == nil {
		return
	}
	if err := panel.callbacks.SetUserActive(user.ID, !user.IsActive); err != nil {
		panel.setStatus(fmt.Sprintf("Updating %s failed: %v", user.Email, err))
		return
	}
	panel.Refresh()
}

func (panel *Window) deleteUser(user storage.User) {
	if panel.callbacks.DeleteUser == nil {
		return
	}
	if err := panel.callbacks.DeleteUser(user.ID); err != nil {
		panel.setStatus(fmt.Sprintf("Deleting %s failed: %v", user.Email, err))
		return
	}
	panel.Refresh()
}

func (panel *Window) export(exportFn func(from, to time.Time) (string, error)) {
	if exportFn == nil {
		return
	}
	to := time.Now()
	path, err := exportFn(to.AddDate(0, 0, -7), to)
	if err != nil {
		panel.setStatus(fmt.Sprintf("Export failed: %v", err))
		return
	}
	panel.setStatus(fmt.Sprintf("Exported %s", path))
}

func (panel *Window) setStatus(message string) {
	panel.statusLine.SetText(message)
}

func describeUser(user storage.User) string {
	flags := make([]string, 0, 2)
	if user.IsAdmin {
		flags = append(flags, "admin")
	}
	if !user.IsActive {
		flags = append(flags, "inactive")
	}
	suffix := ""
	if len(flags) > 0 {
		suffix = " [" + strings.Join(flags, ", ") + "]"
	}
	return fmt.Sprintf("%s <%s>%s", user.FullName, user.Email, suffix)
}
