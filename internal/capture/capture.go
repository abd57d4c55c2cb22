// Package capture acquires screenshots of the primary display and stores
// them under a folder namespaced by date and session.
package capture

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/kbinani/screenshot"
)

// Desktop captures the primary display.
type Desktop struct {
	root string
	grab func() (image.Image, error)
}

// NewDesktop creates a capturer storing images under root.
func NewDesktop(root string) *Desktop {
	return &Desktop{root: root, grab: grabPrimaryDisplay}
}

// Capture acquires one image and writes it to
// <root>/<YYYY-MM-DD>/<sessionID>/<HH-mm-ss>.png, returning the path.
func (desktop *Desktop) Capture(sessionID string, now time.Time) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("capture: session id is empty")
	}

	img, err := desktop.grab()
	if err != nil {
		return "", fmt.Errorf("capture display: %w", err)
	}

	dir := filepath.Join(desktop.root, now.Format("2006-01-02"), sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create screenshot dir: %w", err)
	}

	path := filepath.Join(dir, now.Format("15-04-05")+".png")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create screenshot file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return "", fmt.Errorf("encode screenshot: %w", err)
	}

	return path, nil
}

func grabPrimaryDisplay() (image.Image, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return nil, fmt.Errorf("no active displays")
	}
	img, err := screenshot.CaptureDisplay(0)
	if err != nil {
		return nil, err
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("empty image")
	}
	return img, nil
}
