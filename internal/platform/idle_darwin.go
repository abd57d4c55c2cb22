package platform

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// HIDIdleTime from ioreg is reported in nanoseconds.
type idleProvider struct{}

func newIdleProvider() IdleProvider {
	return &idleProvider{}
}

func (provider *idleProvider) IdleDuration() (time.Duration, error) {
	output, err := exec.Command("ioreg", "-c", "IOHIDSystem", "-d", "4").Output()
	if err != nil {
		return 0, fmt.Errorf("ioreg: %w", err)
	}
	for _, line := range strings.Split(string(output), "\n") {
		if !strings.Contains(line, "HIDIdleTime") {
			continue
		}
		parts := strings.Split(line, "=")
		if len(parts) != 2 {
			continue
		}
		idleNanos, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse idle nanoseconds: %w", err)
		}
		if idleNanos < 0 {
			idleNanos = 0
		}
		return time.Duration(idleNanos), nil
	}
	return 0, fmt.Errorf("ioreg: HIDIdleTime not present")
}
