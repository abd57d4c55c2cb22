package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"timetracker/internal/ui/preferences"
)

const settingsFileName = "settings.yaml"

type yamlSettings struct {
	IdleThresholdSeconds     int    `yaml:"idle_threshold_seconds"`
	CaptureIntervalSeconds   int    `yaml:"capture_interval_seconds"`
	ForegroundCaptureSeconds int    `yaml:"foreground_capture_seconds"`
	ScreenshotRoot           string `yaml:"screenshot_root"`
	Autostart                bool   `yaml:"autostart"`
}

// LoadSettings reads user preferences from YAML.
// If the config file does not exist, default settings are returned.
func LoadSettings(appName string) (preferences.Settings, error) {
	configPath, err := resolveConfigPath(appName)
	if err != nil {
		return preferences.DefaultSettings(), err
	}
	return loadSettingsFile(configPath)
}

// SaveSettings writes user preferences to YAML.
func SaveSettings(appName string, settings preferences.Settings) error {
	configPath, err := resolveConfigPath(appName)
	if err != nil {
		return err
	}
	return saveSettingsFile(configPath, settings)
}

func loadSettingsFile(configPath string) (preferences.Settings, error) {
	settings := preferences.DefaultSettings()

	rawData, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYamlSettings(&settings, fileData)
	return settings, nil
}

func saveSettingsFile(configPath string, settings preferences.Settings) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	fileData := yamlSettings{
		IdleThresholdSeconds:     int(settings.IdleThreshold / time.Second),
		CaptureIntervalSeconds:   int(settings.CaptureInterval / time.Second),
		ForegroundCaptureSeconds: int(settings.ForegroundCaptureInterval / time.Second),
		ScreenshotRoot:           settings.ScreenshotRoot,
		Autostart:                settings.Autostart,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := os.WriteFile(configPath, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

func resolveConfigPath(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, settingsFileName), nil
}

func applyYamlSettings(settings *preferences.Settings, fileData yamlSettings) {
	if fileData.IdleThresholdSeconds > 0 {
		settings.IdleThreshold = time.Duration(fileData.IdleThresholdSeconds) * time.Second
	}
	if fileData.CaptureIntervalSeconds > 0 {
		settings.CaptureInterval = time.Duration(fileData.CaptureIntervalSeconds) * time.Second
	}
	if fileData.ForegroundCaptureSeconds > 0 {
		settings.ForegroundCaptureInterval = time.Duration(fileData.ForegroundCaptureSeconds) * time.Second
	}
	if fileData.ScreenshotRoot != "" {
		settings.ScreenshotRoot = fileData.ScreenshotRoot
	}
	settings.Autostart = fileData.Autostart
}
