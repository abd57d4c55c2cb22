package platform

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"timetracker/internal/core/tracker"
)

type idleProvider struct {
	xprintidlePath string
}

type unsupportedIdleProvider struct{}

func newIdleProvider() IdleProvider {
	path, err := exec.LookPath("xprintidle")
	if err != nil {
		return unsupportedIdleProvider{}
	}
	return &idleProvider{xprintidlePath: path}
}

func (provider *idleProvider) IdleDuration() (time.Duration, error) {
	if strings.EqualFold(os.Getenv("XDG_SESSION_TYPE"), "wayland") {
		return 0, tracker.ErrIdleUnsupported
	}
	output, err := exec.Command(provider.xprintidlePath).Output()
	if err != nil {
		return 0, fmt.Errorf("xprintidle: %w", err)
	}
	idleMillis, err := strconv.ParseInt(strings.TrimSpace(string(output)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse idle milliseconds: %w", err)
	}
	if idleMillis < 0 {
		idleMillis = 0
	}
	return time.Duration(idleMillis) * time.Millisecond, nil
}

func (unsupportedIdleProvider) IdleDuration() (time.Duration, error) {
	return 0, tracker.ErrIdleUnsupported
}
