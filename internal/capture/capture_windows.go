//go:build windows

package capture

import (
	"log/slog"
	"os"
)

type windowsBackend struct{ tempDir string }

func (w *windowsBackend) captureRaw() []byte {
	// TODO: Implement using Windows GDI or DXGI
	slog.Warn("Windows screen capture not yet implemented")
	return nil
}

func (w *windowsBackend) format() string { return "png" }

func (w *windowsBackend) cleanup() {}

// New creates a platform-specific capturer.
func New(windowTitle string) Capturer {
	_ = windowTitle
	tmpDir, err := os.MkdirTemp("", "screenlens-capture-*")
	if err != nil {
		slog.Error("failed to create temp dir", "error", err)
		tmpDir = os.TempDir()
	}
	return newBase(&windowsBackend{tempDir: tmpDir}, tmpDir)
}
