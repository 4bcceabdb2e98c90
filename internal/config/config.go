// Package config handles daemon configuration
package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	HTTPAddr         string
	BackendAddr      string  // remote recognizer gRPC address
	Engine           string  // preferred backend: "tesseract" or "remote"
	OCRInterval      float64 // seconds between capture cycles
	OCRTimeout       float64 // per-call extraction deadline, seconds
	MinInterval      float64 // adaptive interval lower bound, seconds
	MaxInterval      float64 // adaptive interval upper bound, seconds
	CacheSize        int
	CPUHighThreshold float64 // percent; back off above this
	CPULowThreshold  float64 // percent; speed up below this
	BatchConcurrency int
	WebhookURL       string
	HistoryPath      string // sqlite result log; empty disables
	WindowTitle      string // capture target; empty captures full screen
}

func Load() *Config {
	return &Config{
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		BackendAddr:      getEnv("BACKEND_ADDR", "localhost:50051"),
		Engine:           getEnv("OCR_ENGINE", "tesseract"),
		OCRInterval:      getEnvFloat("OCR_INTERVAL", 2.0),
		OCRTimeout:       getEnvFloat("OCR_TIMEOUT", 3.0),
		MinInterval:      getEnvFloat("MIN_INTERVAL", 0.5),
		MaxInterval:      getEnvFloat("MAX_INTERVAL", 10.0),
		CacheSize:        getEnvInt("CACHE_SIZE", 50),
		CPUHighThreshold: getEnvFloat("CPU_HIGH_THRESHOLD", 80.0),
		CPULowThreshold:  getEnvFloat("CPU_LOW_THRESHOLD", 40.0),
		BatchConcurrency: getEnvInt("BATCH_CONCURRENCY", 3),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),
		HistoryPath:      getEnv("HISTORY_PATH", ""),
		WindowTitle:      getEnv("WINDOW_TITLE", ""),
	}
}

// Validate rejects out-of-range timing and threshold settings.
// The daemon must not start with an invalid configuration.
func (c *Config) Validate() error {
	if c.MinInterval <= 0 {
		return fmt.Errorf("MIN_INTERVAL must be positive, got %v", c.MinInterval)
	}
	if c.MaxInterval <= c.MinInterval {
		return fmt.Errorf("MAX_INTERVAL (%v) must exceed MIN_INTERVAL (%v)", c.MaxInterval, c.MinInterval)
	}
	if c.OCRInterval < c.MinInterval || c.OCRInterval > c.MaxInterval {
		return fmt.Errorf("OCR_INTERVAL %v outside [%v, %v]", c.OCRInterval, c.MinInterval, c.MaxInterval)
	}
	if c.OCRTimeout <= 0 {
		return fmt.Errorf("OCR_TIMEOUT must be positive, got %v", c.OCRTimeout)
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("CACHE_SIZE must be positive, got %d", c.CacheSize)
	}
	if c.CPUHighThreshold <= 0 || c.CPUHighThreshold > 100 {
		return fmt.Errorf("CPU_HIGH_THRESHOLD %v outside (0, 100]", c.CPUHighThreshold)
	}
	if c.CPULowThreshold <= 0 || c.CPULowThreshold >= c.CPUHighThreshold {
		return fmt.Errorf("CPU_LOW_THRESHOLD %v must be in (0, CPU_HIGH_THRESHOLD)", c.CPULowThreshold)
	}
	if c.BatchConcurrency < 1 {
		return fmt.Errorf("BATCH_CONCURRENCY must be at least 1, got %d", c.BatchConcurrency)
	}
	switch c.Engine {
	case "tesseract", "remote":
	default:
		return fmt.Errorf("OCR_ENGINE must be \"tesseract\" or \"remote\", got %q", c.Engine)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
