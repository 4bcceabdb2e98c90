//go:build linux

package capture

import (
	"bytes"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

type linuxBackend struct {
	tempDir     string
	windowTitle string
}

func (l *linuxBackend) captureRaw() []byte {
	tmpFile := filepath.Join(l.tempDir, "screenshot.png")

	var cmd *exec.Cmd
	if l.windowTitle != "" {
		if id := l.findWindow(); id != "" {
			if _, err := exec.LookPath("import"); err == nil {
				cmd = exec.Command("import", "-window", id, tmpFile)
			}
		}
	}
	if cmd == nil {
		// Full-screen fallback: gnome-screenshot first, then scrot
		if _, err := exec.LookPath("gnome-screenshot"); err == nil {
			cmd = exec.Command("gnome-screenshot", "-f", tmpFile)
		} else if _, err := exec.LookPath("scrot"); err == nil {
			cmd = exec.Command("scrot", "-o", tmpFile)
		} else {
			slog.Error("no screenshot tool found (install gnome-screenshot or scrot)")
			return nil
		}
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		slog.Error("screenshot failed", "error", err, "stderr", stderr.String())
		return nil
	}
	data, err := os.ReadFile(tmpFile)
	if err != nil {
		slog.Error("failed to read screenshot", "error", err)
		return nil
	}
	os.Remove(tmpFile)
	return data
}

// findWindow resolves a window ID by title via xdotool, empty when absent.
func (l *linuxBackend) findWindow() string {
	out, err := exec.Command("xdotool", "search", "--name", l.windowTitle).Output()
	if err != nil {
		slog.Debug("window lookup failed", "title", l.windowTitle, "error", err)
		return ""
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return ""
	}
	return lines[0]
}

func (l *linuxBackend) format() string { return "png" }

func (l *linuxBackend) cleanup() {}

// New creates a platform-specific capturer. windowTitle narrows capture to
// a matching window when the platform supports it; empty captures the
// full screen.
func New(windowTitle string) Capturer {
	tmpDir, err := os.MkdirTemp("", "screenlens-capture-*")
	if err != nil {
		slog.Error("failed to create temp dir", "error", err)
		tmpDir = os.TempDir()
	}
	return newBase(&linuxBackend{tempDir: tmpDir, windowTitle: windowTitle}, tmpDir)
}
