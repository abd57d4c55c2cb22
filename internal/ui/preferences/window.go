package preferences

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

// Window handles the preferences UI.
type Window struct {
	window       fyne.Window
	settings     Settings
	onSave       func(Settings)
	idleEntry    *widget.Entry
	captureEntry *widget.Entry
	fgEntry      *widget.Entry
	rootEntry    *widget.Entry
	autostart    *widget.Check
}

// New creates a preferences window.
func New(app fyne.App, settings Settings, onSave func(Settings)) *Window {
	window := app.NewWindow("TimeTracker Settings")

	idleEntry := widget.NewEntry()
	captureEntry := widget.NewEntry()
	fgEntry := widget.NewEntry()
	rootEntry := widget.NewEntry()

	idleEntry.SetText(fmt.Sprintf("%d", int(settings.IdleThreshold.Seconds())))
	captureEntry.SetText(fmt.Sprintf("%d", int(settings.CaptureInterval.Seconds())))
	fgEntry.SetText(fmt.Sprintf("%d", int(settings.ForegroundCaptureInterval.Seconds())))
	rootEntry.SetText(settings.ScreenshotRoot)

	autostart := widget.NewCheck("Start with the system", nil)
	autostart.SetChecked(settings.Autostart)

	form := container.NewVBox(
		widget.NewLabelWithStyle("Tracking", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(widget.NewLabel("Idle threshold"), idleEntry, widget.NewLabel("sec")),
		container.NewHBox(widget.NewLabel("Capture every"), captureEntry, widget.NewLabel("sec")),
		container.NewHBox(widget.NewLabel("Foreground capture every"), fgEntry, widget.NewLabel("sec")),
		widget.NewLabel("Screenshot folder"),
		rootEntry,
		autostart,
	)

	saveButton := widget.NewButton("Save", nil)
	cancelButton := widget.NewButton("Cancel", nil)
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	content := container.NewBorder(nil, buttons, nil, nil, form)
	window.SetContent(content)
	window.Resize(fyne.NewSize(420, 360))

	prefs := &Window{
		window:       window,
		settings:     settings,
		onSave:       onSave,
		idleEntry:    idleEntry,
		captureEntry: captureEntry,
		fgEntry:      fgEntry,
		rootEntry:    rootEntry,
		autostart:    autostart,
	}

	saveButton.OnTapped = prefs.handleSave
	cancelButton.OnTapped = window.Hide

	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// UpdateSettings replaces window values.
func (prefs *Window) UpdateSettings(settings Settings) {
	prefs.settings = settings
	prefs.idleEntry.SetText(fmt.Sprintf("%d", int(settings.IdleThreshold.Seconds())))
	prefs.captureEntry.SetText(fmt.Sprintf("%d", int(settings.CaptureInterval.Seconds())))
	prefs.fgEntry.SetText(fmt.Sprintf("%d", int(settings.ForegroundCaptureInterval.Seconds())))
	prefs.rootEntry.SetText(settings.ScreenshotRoot)
	prefs.autostart.SetChecked(settings.Autostart)
}

func (prefs *Window) handleSave() {
	settings := prefs.settings

	if seconds, ok := parsePositiveInt(prefs.idleEntry.Text); ok {
		settings.IdleThreshold = time.Duration(seconds) * time.Second
	}
	if seconds, ok := parsePositiveInt(prefs.captureEntry.Text); ok {
		settings.CaptureInterval = time.Duration(seconds) * time.Second
	}
	if seconds, ok := parsePositiveInt(prefs.fgEntry.Text); ok {
		settings.ForegroundCaptureInterval = time.Duration(seconds) * time.Second
	}
	if prefs.rootEntry.Text != "" {
		settings.ScreenshotRoot = prefs.rootEntry.Text
	}
	settings.Autostart = prefs.autostart.Checked

	prefs.settings = settings
	if prefs.onSave != nil {
		prefs.onSave(settings)
	}
	prefs.window.Hide()
}

func parsePositiveInt(value string) (int, bool) {
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}
