// Package recog provides text recognition backends: an in-process
// Tesseract client and a remote gRPC service.
package recog

import (
	"context"
	"strings"

	"github.com/otiai10/gosseract/v2"

	apperrors "github.com/screenlens/screenlens/internal/errors"
)

// Tesseract recognizes text with a local Tesseract installation. Each
// call uses a fresh gosseract client; the client type is not safe for
// concurrent use and setup cost is negligible next to recognition.
type Tesseract struct {
	language      string
	clientFactory func() *gosseract.Client
}

// NewTesseract probes the local installation and returns a recognizer
// for the given language ("eng" when empty).
func NewTesseract(language string) (*Tesseract, error) {
	if language == "" {
		language = "eng"
	}
	langs, err := gosseract.GetAvailableLanguages()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.BackendUnavailable, "tesseract not installed")
	}
	found := false
	for _, l := range langs {
		if l == language {
			found = true
			break
		}
	}
	if !found {
		return nil, apperrors.Newf(apperrors.BackendUnavailable, "tesseract language %q not available", language)
	}
	return &Tesseract{language: language, clientFactory: gosseract.NewClient}, nil
}

// ExtractText runs recognition on the image bytes. The format argument
// is ignored; Tesseract sniffs the encoding itself.
func (t *Tesseract) ExtractText(ctx context.Context, image []byte, format string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	c := t.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(t.language); err != nil {
		return "", apperrors.Wrap(err, apperrors.EngineError, "set language")
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return "", apperrors.Wrap(err, apperrors.InvalidImage, "set image")
	}
	text, err := c.Text()
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.EngineError, "recognize text")
	}
	return strings.TrimSpace(text), nil
}
