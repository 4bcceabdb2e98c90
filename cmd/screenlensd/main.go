// ScreenLens daemon: periodic screen text extraction under bounded latency
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/screenlens/screenlens/internal/capture"
	"github.com/screenlens/screenlens/internal/config"
	"github.com/screenlens/screenlens/internal/deliver"
	"github.com/screenlens/screenlens/internal/history"
	"github.com/screenlens/screenlens/internal/ocr/adaptive"
	"github.com/screenlens/screenlens/internal/ocr/cache"
	"github.com/screenlens/screenlens/internal/ocr/engine"
	"github.com/screenlens/screenlens/internal/ocr/metrics"
	"github.com/screenlens/screenlens/internal/ocr/pipeline"
	"github.com/screenlens/screenlens/internal/recog"
	"github.com/screenlens/screenlens/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	rec, cleanup, err := buildRecognizer(cfg)
	if err != nil {
		slog.Error("no recognition backend available", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	sel := engine.NewSelector(
		engine.NewPrimary(rec),
		engine.NewFast(rec),
		engine.NewSpecialized(rec),
	)

	var sinks []pipeline.Sink
	if cfg.WebhookURL != "" {
		sinks = append(sinks, deliver.NewWebhook(cfg.WebhookURL))
		slog.Info("webhook delivery enabled")
	}
	var store *history.Store
	if cfg.HistoryPath != "" {
		store, err = history.Open(cfg.HistoryPath)
		if err != nil {
			slog.Error("failed to open history", "path", cfg.HistoryPath, "error", err)
			os.Exit(1)
		}
		defer func() { _ = store.Close() }()
		sinks = append(sinks, store)
		slog.Info("history enabled", "path", cfg.HistoryPath)
	}

	capturer := capture.New(cfg.WindowTitle)
	defer capturer.Close()

	loop := pipeline.New(pipeline.Config{
		Capturer: capturer,
		Selector: sel,
		Cache:    cache.New(cfg.CacheSize),
		Tracker:  metrics.New(),
		Controller: adaptive.New(adaptive.Config{
			InitialInterval: cfg.OCRInterval,
			MinInterval:     cfg.MinInterval,
			MaxInterval:     cfg.MaxInterval,
			CPUHigh:         cfg.CPUHighThreshold,
			CPULow:          cfg.CPULowThreshold,
			BaseDeadline:    cfg.OCRTimeout,
		}),
		Sinks: sinks,
	})

	srv := server.New(loop, store, sel, cfg.BatchConcurrency)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go loop.Run(ctx)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("screenlens daemon starting", "http", cfg.HTTPAddr, "interval", cfg.OCRInterval)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down...")
	cancel()
	loop.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}

// buildRecognizer constructs the configured backend, falling back to the
// other one when construction fails. Remote construction is lazy and only
// fails on bad addresses, so tesseract is the more reliable fallback.
func buildRecognizer(cfg *config.Config) (engine.Recognizer, func(), error) {
	noop := func() {}

	switch cfg.Engine {
	case "remote":
		remote, err := recog.NewRemote(cfg.BackendAddr)
		if err == nil {
			return remote, func() { _ = remote.Close() }, nil
		}
		slog.Warn("remote backend unavailable, trying tesseract", "error", err)
		tess, terr := recog.NewTesseract("eng")
		if terr != nil {
			return nil, noop, err
		}
		return tess, noop, nil
	default:
		tess, err := recog.NewTesseract("eng")
		if err == nil {
			return tess, noop, nil
		}
		slog.Warn("tesseract unavailable, trying remote backend", "error", err)
		remote, rerr := recog.NewRemote(cfg.BackendAddr)
		if rerr != nil {
			return nil, noop, err
		}
		return remote, func() { _ = remote.Close() }, nil
	}
}
