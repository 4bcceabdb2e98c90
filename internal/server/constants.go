// Package server provides HTTP and WebSocket handlers
package server

import "time"

// Server configuration constants
const (
	// Text truncation limit for API responses
	TextPreviewLimit = 500

	// Per-connection WebSocket message rate limiting
	RateLimitMessages = 10
	RateLimitWindow   = time.Second

	// Batch extraction bounds
	MaxBatchImages = 16

	DefaultHistoryLimit = 50
)
