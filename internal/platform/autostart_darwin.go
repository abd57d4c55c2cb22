//go:build darwin

package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (service *platformService) EnableAutostart(appName, execPath string) error {
	if appName == "" {
		return fmt.Errorf("enable autostart: app name is empty")
	}
	if execPath == "" {
		return fmt.Errorf("enable autostart: exec path is empty")
	}

	agentsDir, err := launchAgentsDir()
	if err != nil {
		return fmt.Errorf("enable autostart: %w", err)
	}
	if err := os.MkdirAll(agentsDir, 0o755); err != nil {
		return fmt.Errorf("enable autostart: create launch agents dir: %w", err)
	}

	plistPath := filepath.Join(agentsDir, agentFileName(appName))
	if err := os.WriteFile(plistPath, []byte(buildAgentPlist(appName, execPath)), 0o644); err != nil {
		return fmt.Errorf("enable autostart: write launch agent: %w", err)
	}

	return nil
}

func (service *platformService) DisableAutostart(appName string) error {
	if appName == "" {
		return fmt.Errorf("disable autostart: app name is empty")
	}

	agentsDir, err := launchAgentsDir()
	if err != nil {
		return fmt.Errorf("disable autostart: %w", err)
	}

	plistPath := filepath.Join(agentsDir, agentFileName(appName))
	if err := os.Remove(plistPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("disable autostart: remove launch agent: %w", err)
	}

	return nil
}

func fallbackConfigDir(homeDir string) string {
	return filepath.Join(homeDir, "Library", "Application Support")
}

func launchAgentsDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(homeDir, "Library", "LaunchAgents"), nil
}

func agentFileName(appName string) string {
	name := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(appName), " ", "-"))
	if name == "" {
		name = "timetracker"
	}
	return "com." + name + ".autostart.plist"
}

func buildAgentPlist(appName, execPath string) string {
	return fmt.Sprintf(
		`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>%s</string>
	<key>ProgramArguments</key>
	<array>
		<string>%s</string>
	</array>
	<key>RunAtLoad</key>
	<true/>
</dict>
</plist>
`,
		appName,
		execPath,
	)
}
