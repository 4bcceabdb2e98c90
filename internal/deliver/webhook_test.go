package deliver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/screenlens/screenlens/internal/ocr/pipeline"
	"github.com/screenlens/screenlens/internal/resilience"
)

func TestDeliverPostsPayload(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewWebhook(srv.URL)
	if err := sink.Deliver(context.Background(), "captured text", pipeline.Metadata{}); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	if !strings.Contains(got.Content, "captured text") {
		t.Errorf("content = %q, want embedded text", got.Content)
	}
	if !strings.Contains(got.Content, "```") {
		t.Errorf("content = %q, want code fence", got.Content)
	}
	if got.Username != webhookUsername {
		t.Errorf("username = %q", got.Username)
	}
}

func TestDeliverRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sink := NewWebhook(srv.URL)
	if err := sink.Deliver(context.Background(), "x", pipeline.Metadata{}); err == nil {
		t.Error("want error for 500 response")
	}
}

func TestBreakerTripsOnRepeatedFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	sink := NewWebhook(srv.URL)
	for i := 0; i < resilience.DeliveryThreshold; i++ {
		sink.Deliver(context.Background(), "x", pipeline.Metadata{})
	}

	err := sink.Deliver(context.Background(), "x", pipeline.Metadata{})
	if !errors.Is(err, resilience.ErrOpen) {
		t.Errorf("err = %v, want breaker open", err)
	}
}

func TestSinkName(t *testing.T) {
	if NewWebhook("http://example.invalid").Name() != "webhook" {
		t.Error("unexpected sink name")
	}
}
