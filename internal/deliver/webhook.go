// Package deliver pushes extracted text to external consumers.
package deliver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/screenlens/screenlens/internal/errors"
	"github.com/screenlens/screenlens/internal/ocr/pipeline"
	"github.com/screenlens/screenlens/internal/resilience"
)

const (
	webhookTimeout  = 5 * time.Second
	webhookUsername = "ScreenLens"
)

// WebhookSink posts extraction results to a chat webhook. A circuit
// breaker fails deliveries fast while the endpoint is down so the
// pipeline never queues behind it.
type WebhookSink struct {
	url     string
	client  *http.Client
	breaker *resilience.Breaker
}

// NewWebhook creates a sink posting to url.
func NewWebhook(url string) *WebhookSink {
	return &WebhookSink{
		url:     url,
		client:  &http.Client{Timeout: webhookTimeout},
		breaker: resilience.NewBreaker(resilience.DeliveryBreakerConfig()),
	}
}

func (s *WebhookSink) Name() string { return "webhook" }

type webhookPayload struct {
	Content  string `json:"content"`
	Username string `json:"username"`
}

// Deliver posts the text as a fenced code block.
func (s *WebhookSink) Deliver(ctx context.Context, text string, meta pipeline.Metadata) error {
	return s.breaker.Execute(func() error {
		return s.post(ctx, text)
	})
}

func (s *WebhookSink) post(ctx context.Context, text string) error {
	payload := webhookPayload{
		Content:  fmt.Sprintf("**OCR Results:**\n```\n%s\n```", text),
		Username: webhookUsername,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Wrap(err, apperrors.DeliveryFailed, "encode webhook payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return apperrors.Wrap(err, apperrors.DeliveryFailed, "build webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return apperrors.Wrap(err, apperrors.DeliveryFailed, "post webhook")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.Newf(apperrors.DeliveryFailed, "webhook returned %d", resp.StatusCode)
	}
	return nil
}
