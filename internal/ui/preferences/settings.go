package preferences

import (
	"os"
	"path/filepath"
	"time"

	"timetracker/internal/core/model"
)

// Settings defines editable user preferences.
type Settings struct {
	IdleThreshold             time.Duration
	CaptureInterval           time.Duration
	ForegroundCaptureInterval time.Duration
	ScreenshotRoot            string
	Autostart                 bool
}

// DefaultSettings returns default settings for TimeTracker.
func DefaultSettings() Settings {
	return Settings{
		IdleThreshold:             10 * time.Second,
		CaptureInterval:           time.Minute,
		ForegroundCaptureInterval: 20 * time.Second,
		ScreenshotRoot:            defaultScreenshotRoot(),
		Autostart:                 false,
	}
}

// TrackerConfig converts settings to the core's runtime configuration.
func (settings Settings) TrackerConfig() model.TrackerConfig {
	return model.TrackerConfig{
		IdleThreshold:             settings.IdleThreshold,
		IdleTickInterval:          time.Second,
		CaptureInterval:           settings.CaptureInterval,
		ForegroundCaptureInterval: settings.ForegroundCaptureInterval,
		ScreenshotRoot:            settings.ScreenshotRoot,
	}
}

func defaultScreenshotRoot() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "TimeTrackerScreenshots"
	}
	return filepath.Join(homeDir, "Pictures", "TimeTrackerScreenshots")
}
