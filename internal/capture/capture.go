// Package capture provides platform-agnostic screenshot acquisition
package capture

import (
	"crypto/md5"
	"os"
	"time"
)

// Frame is one captured screenshot. Immutable once produced; the pipeline
// owns it for a single cycle only.
type Frame struct {
	Data   []byte
	Format string
	At     time.Time
}

// Capturer acquires frames with change detection
type Capturer interface {
	// Capture returns the next frame, or (nil, false) when no frame is
	// available or the screen content has not changed since the last call.
	Capture() (*Frame, bool)
	// CaptureAlways returns a frame even if unchanged, or nil on failure.
	CaptureAlways() *Frame
	Close()
}

// backend implements platform-specific raw capture
type backend interface {
	captureRaw() []byte
	format() string
	cleanup()
}

// baseCapturer provides shared hash-based change detection
type baseCapturer struct {
	backend
	lastHash [16]byte
	tempDir  string
}

func newBase(b backend, tempDir string) *baseCapturer {
	return &baseCapturer{backend: b, tempDir: tempDir}
}

func (c *baseCapturer) Capture() (*Frame, bool) {
	data := c.captureRaw()
	if data == nil {
		return nil, false
	}
	hash := md5.Sum(data[:min(len(data), 4096)])
	if hash == c.lastHash {
		return nil, false
	}
	c.lastHash = hash
	return &Frame{Data: data, Format: c.format(), At: time.Now()}, true
}

func (c *baseCapturer) CaptureAlways() *Frame {
	data := c.captureRaw()
	if data == nil {
		return nil
	}
	c.lastHash = md5.Sum(data[:min(len(data), 4096)])
	return &Frame{Data: data, Format: c.format(), At: time.Now()}
}

func (c *baseCapturer) Close() {
	c.cleanup()
	if c.tempDir != "" {
		os.RemoveAll(c.tempDir)
	}
}
