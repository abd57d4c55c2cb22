package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"timetracker/internal/admin"
	"timetracker/internal/capture"
	"timetracker/internal/core/tracker"
	"timetracker/internal/platform"
	"timetracker/internal/report"
	"timetracker/internal/storage"
	"timetracker/internal/ui/adminpanel"
	"timetracker/internal/ui/dashboard"
	"timetracker/internal/ui/login"
	"timetracker/internal/ui/preferences"
	"timetracker/internal/ui/tray"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"
)

const appName = "TimeTracker"

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	guard, err := platform.AcquireSingleInstance(appName)
	if err != nil {
		logger.WithError(err).Warn("another instance is already running")
		return
	}
	defer func() {
		_ = guard.Release()
	}()

	platformService := platform.NewService()
	configDir, err := platformService.GetConfigDir()
	if err != nil {
		logger.WithError(err).Error("resolving config directory")
		return
	}
	appDir := filepath.Join(configDir, appName)

	db, err := storage.Open(filepath.Join(appDir, "timetracker.db"))
	if err != nil {
		logger.WithError(err).Error("opening database")
		return
	}
	defer db.Close()

	settings, err := storage.LoadSettings(appName)
	if err != nil {
		logger.WithError(err).Warn("loading settings, using defaults")
		settings = preferences.DefaultSettings()
	}

	users := storage.NewUserRepo(db)
	reports := report.NewService(db, filepath.Join(appDir, "exports"))
	adminService := admin.NewService(db)

	core := tracker.New(settings.TrackerConfig(), storage.NewTrackerStore(db), users)
	core.SetLogger(logger)
	core.SetIdleChecker(platform.NewIdleProvider())
	core.SetCapturer(capture.NewDesktop(settings.ScreenshotRoot))
	core.SetExporter(reports)

	fyneApp := app.NewWithID("com.timetracker.app")
	desktopApp, ok := fyneApp.(desktop.App)
	if !ok {
		logger.Warn("system tray unsupported on this platform")
		return
	}

	trayWindow := fyneApp.NewWindow(appName)
	trayWindow.SetContent(widget.NewLabel("TimeTracker is running in the system tray."))
	trayWindow.SetCloseIntercept(trayWindow.Hide)
	trayWindow.Hide()
	desktopApp.SetSystemTrayWindow(trayWindow)

	ctx := context.Background()

	var (
		trayManager *tray.Manager
		dash        *dashboard.Window
		loginWindow *login.Window
		adminWindow *adminpanel.Window
	)

	prefsWindow := preferences.New(fyneApp, settings, func(updated preferences.Settings) {
		previousRoot := settings.ScreenshotRoot
		settings = updated
		if err := storage.SaveSettings(appName, settings); err != nil {
			logger.WithError(err).Error("saving settings")
		}
		core.UpdateConfig(settings.TrackerConfig())
		if settings.ScreenshotRoot != previousRoot {
			core.SetCapturer(capture.NewDesktop(settings.ScreenshotRoot))
		}
		applyAutostart(logger, platformService, settings.Autostart)
	})

	toggleBreak := func() {
		var result tracker.BreakResult
		if core.Status().ManualBreakActive {
			result = core.StopBreak()
		} else {
			result = core.StartBreak()
		}
		if !result.Started && !result.Stopped {
			logger.WithField("reason", result.Reason).Info("break toggle rejected")
			return
		}
		onBreak := result.Started
		dash.SetOnBreak(onBreak)
		trayManager.SetOnBreak(onBreak)
	}

	doLogout := func() {
		result := core.Logout(ctx)
		if result.Message != "" {
			logger.Info(result.Message)
		}
		dash.Hide()
		adminWindow.Hide()
		trayManager.SetLoggedIn(false)
		loginWindow.Show()
	}

	dash = dashboard.New(fyneApp, settings.ForegroundCaptureInterval, dashboard.Callbacks{
		OnToggleBreak: func() { toggleBreak() },
		OnLogout:      func() { doLogout() },
		OnCaptureNow:  core.CaptureNow,
	})

	loginWindow = login.New(fyneApp, login.Callbacks{
		OnLogin: func(email, password string) error {
			status, err := core.Login(ctx, email, password)
			if err != nil {
				return friendlyLoginError(err)
			}
			dash.SetUser(status.UserName)
			dash.SetIdle(false)
			dash.SetOnBreak(false)
			trayManager.SetLoggedIn(true)
			trayManager.SetStatus("tracking " + status.UserName)
			dash.Show()
			if status.IsAdmin {
				adminWindow.Show()
			}
			return nil
		},
		OnRegister: func(fullName, email, password string) error {
			_, err := users.Register(ctx, fullName, email, password)
			if errors.Is(err, storage.ErrEmailTaken) {
				return errors.New("email is already registered")
			}
			return err
		},
	})

	adminWindow = adminpanel.New(fyneApp, adminpanel.Callbacks{
		LoadStats: func() (admin.Stats, error) {
			return adminService.Stats(ctx)
		},
		LoadUsers: func(page int, search string) (admin.UserPage, error) {
			return adminService.ListUsers(ctx, page, 20, search)
		},
		SetUserActive: func(id string, active bool) error {
			return adminService.SetUserActive(ctx, id, active)
		},
		DeleteUser: func(id string) error {
			return adminService.DeleteUser(ctx, id)
		},
		ExportAttendance: func(from, to time.Time) (string, error) {
			return reports.ExportAttendance(ctx, "", from, to)
		},
		ExportActivities: func(from, to time.Time) (string, error) {
			return reports.ExportActivities(ctx, "", from, to)
		},
	})

	trayManager = tray.New(desktopApp, tray.Callbacks{
		OnOpenDashboard: func() { dash.Show() },
		OnPreferences:   prefsWindow.Show,
		OnToggleBreak:   func() { toggleBreak() },
		OnLogout:        func() { doLogout() },
		OnQuit: func() {
			core.Logout(ctx)
			core.Close()
			fyneApp.Quit()
		},
	})

	events := core.Subscribe(8)
	go func() {
		for event := range events {
			switch event.Type {
			case tracker.EventStateChange:
				fyne.Do(func() {
					idle := event.State == tracker.StateIdle
					dash.SetIdle(idle)
					if idle {
						trayManager.SetStatus("idle")
					} else {
						trayManager.SetStatus("tracking")
					}
				})
			case tracker.EventCaptureSaved:
				fyne.Do(func() {
					dash.SetLastCapture(event.Path, event.At)
				})
			case tracker.EventSessionEnded:
				fyne.Do(func() {
					dash.SetUser("")
					dash.SetIdle(false)
					dash.SetOnBreak(false)
				})
			}
		}
	}()

	applyAutostart(logger, platformService, settings.Autostart)

	loginWindow.Show()
	fyneApp.Run()
}

func friendlyLoginError(err error) error {
	switch {
	case errors.Is(err, storage.ErrInvalidCredentials):
		return errors.New("invalid email or password")
	case errors.Is(err, storage.ErrAccountInactive):
		return errors.New("account is deactivated")
	case errors.Is(err, tracker.ErrSessionOpen):
		return errors.New("a session is already open")
	default:
		return err
	}
}

func applyAutostart(logger logrus.FieldLogger, service platform.Service, enabled bool) {
	execPath, err := os.Executable()
	if err != nil {
		logger.WithError(err).Warn("resolving executable for autostart")
		return
	}
	if enabled {
		err = service.EnableAutostart(appName, execPath)
	} else {
		err = service.DisableAutostart(appName)
	}
	if err != nil {
		logger.WithError(err).Warn("updating autostart")
	}
}
