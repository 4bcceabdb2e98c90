// Package engine defines the extraction engine variants and selects
// between them based on observed system load.
package engine

import (
	"context"
	"strings"
)

// Recognizer turns an image into text. Implementations live in the recog
// package; engines own preprocessing and result cleanup around them.
type Recognizer interface {
	ExtractText(ctx context.Context, image []byte, format string) (string, error)
}

// ID names an engine variant.
type ID string

const (
	Primary     ID = "primary"
	Fast        ID = "fast"
	Specialized ID = "specialized"
)

// Engine is one preprocessing-plus-recognition variant. Implementations
// are stateless and safe for concurrent use when their Recognizer is.
type Engine interface {
	ID() ID
	// DeadlineScale multiplies the controller deadline for this variant.
	DeadlineScale() float64
	Extract(ctx context.Context, data []byte, format string) (string, error)
}

// primaryEngine trades latency for accuracy: denoise, binarize, and
// upscale before recognition.
type primaryEngine struct {
	rec Recognizer
}

// NewPrimary returns the accuracy-first engine.
func NewPrimary(rec Recognizer) Engine { return &primaryEngine{rec: rec} }

func (e *primaryEngine) ID() ID                 { return Primary }
func (e *primaryEngine) DeadlineScale() float64 { return PrimaryDeadlineScale }

func (e *primaryEngine) Extract(ctx context.Context, data []byte, format string) (string, error) {
	img, err := decode(data)
	if err != nil {
		return "", err
	}
	g := upscale2x(otsuThreshold(medianDenoise(grayscale(img))))
	prepped, err := encodePNG(g)
	if err != nil {
		return "", err
	}
	text, err := e.rec.ExtractText(ctx, prepped, "png")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// fastEngine keeps preprocessing to a grayscale pass for low latency
// under load.
type fastEngine struct {
	rec Recognizer
}

// NewFast returns the latency-first engine.
func NewFast(rec Recognizer) Engine { return &fastEngine{rec: rec} }

func (e *fastEngine) ID() ID                 { return Fast }
func (e *fastEngine) DeadlineScale() float64 { return FastDeadlineScale }

func (e *fastEngine) Extract(ctx context.Context, data []byte, format string) (string, error) {
	img, err := decode(data)
	if err != nil {
		return "", err
	}
	prepped, err := encodePNG(grayscale(img))
	if err != nil {
		return "", err
	}
	text, err := e.rec.ExtractText(ctx, prepped, "png")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// specializedEngine targets chat-style overlays: binarized input, short
// fragments dropped, blank lines collapsed.
type specializedEngine struct {
	rec Recognizer
}

// NewSpecialized returns the overlay-tuned engine.
func NewSpecialized(rec Recognizer) Engine { return &specializedEngine{rec: rec} }

func (e *specializedEngine) ID() ID                 { return Specialized }
func (e *specializedEngine) DeadlineScale() float64 { return SpecializedDeadlineScale }

func (e *specializedEngine) Extract(ctx context.Context, data []byte, format string) (string, error) {
	img, err := decode(data)
	if err != nil {
		return "", err
	}
	prepped, err := encodePNG(otsuThreshold(grayscale(img)))
	if err != nil {
		return "", err
	}
	text, err := e.rec.ExtractText(ctx, prepped, "png")
	if err != nil {
		return "", err
	}
	return cleanOverlayText(text), nil
}

func cleanOverlayText(text string) string {
	text = strings.TrimSpace(text)
	if len(text) < MinTextLength {
		return ""
	}
	for strings.Contains(text, "\n\n") {
		text = strings.ReplaceAll(text, "\n\n", "\n")
	}
	return text
}
