package model

import "time"

// TrackerConfig contains runtime settings for the tracking core.
type TrackerConfig struct {
	// IdleThreshold is the inactivity duration after which an idle break
	// starts. The comparison is inclusive.
	IdleThreshold time.Duration

	// IdleTickInterval is the cadence of the idle/break state machine.
	IdleTickInterval time.Duration

	// CaptureInterval is the cadence of the background screenshot loop.
	CaptureInterval time.Duration

	// ForegroundCaptureInterval is the cadence of the dashboard-driven
	// capture loop. The core does not run this loop itself.
	ForegroundCaptureInterval time.Duration

	// ScreenshotRoot is the base folder screenshots are stored under.
	ScreenshotRoot string
}

// Normalized returns a copy with zero or negative fields replaced by defaults.
func (config TrackerConfig) Normalized() TrackerConfig {
	if config.IdleThreshold <= 0 {
		config.IdleThreshold = 10 * time.Second
	}
	if config.IdleTickInterval <= 0 {
		config.IdleTickInterval = time.Second
	}
	if config.CaptureInterval <= 0 {
		config.CaptureInterval = time.Minute
	}
	if config.ForegroundCaptureInterval <= 0 {
		config.ForegroundCaptureInterval = 20 * time.Second
	}
	return config
}
