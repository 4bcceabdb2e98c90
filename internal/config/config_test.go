package config

import (
	"os"
	"testing"
)

var envVars = []string{
	"HTTP_ADDR", "BACKEND_ADDR", "OCR_ENGINE", "OCR_INTERVAL", "OCR_TIMEOUT",
	"MIN_INTERVAL", "MAX_INTERVAL", "CACHE_SIZE", "CPU_HIGH_THRESHOLD",
	"CPU_LOW_THRESHOLD", "BATCH_CONCURRENCY", "WEBHOOK_URL", "HISTORY_PATH",
	"WINDOW_TITLE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.BackendAddr != "localhost:50051" {
		t.Errorf("BackendAddr = %q, want %q", cfg.BackendAddr, "localhost:50051")
	}
	if cfg.Engine != "tesseract" {
		t.Errorf("Engine = %q, want %q", cfg.Engine, "tesseract")
	}
	if cfg.OCRInterval != 2.0 {
		t.Errorf("OCRInterval = %f, want %f", cfg.OCRInterval, 2.0)
	}
	if cfg.OCRTimeout != 3.0 {
		t.Errorf("OCRTimeout = %f, want %f", cfg.OCRTimeout, 3.0)
	}
	if cfg.CacheSize != 50 {
		t.Errorf("CacheSize = %d, want %d", cfg.CacheSize, 50)
	}
	if cfg.CPUHighThreshold != 80.0 {
		t.Errorf("CPUHighThreshold = %f, want %f", cfg.CPUHighThreshold, 80.0)
	}
	if cfg.CPULowThreshold != 40.0 {
		t.Errorf("CPULowThreshold = %f, want %f", cfg.CPULowThreshold, 40.0)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestLoadWithEnv(t *testing.T) {
	clearEnv(t)
	os.Setenv("HTTP_ADDR", ":9000")
	os.Setenv("OCR_ENGINE", "remote")
	os.Setenv("OCR_INTERVAL", "1.5")
	os.Setenv("CACHE_SIZE", "100")
	os.Setenv("CPU_HIGH_THRESHOLD", "75")
	defer clearEnv(t)

	cfg := Load()

	if cfg.HTTPAddr != ":9000" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9000")
	}
	if cfg.Engine != "remote" {
		t.Errorf("Engine = %q, want %q", cfg.Engine, "remote")
	}
	if cfg.OCRInterval != 1.5 {
		t.Errorf("OCRInterval = %f, want %f", cfg.OCRInterval, 1.5)
	}
	if cfg.CacheSize != 100 {
		t.Errorf("CacheSize = %d, want %d", cfg.CacheSize, 100)
	}
	if cfg.CPUHighThreshold != 75.0 {
		t.Errorf("CPUHighThreshold = %f, want %f", cfg.CPUHighThreshold, 75.0)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		clearEnv(t)
		return Load()
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults ok", func(c *Config) {}, false},
		{"zero min interval", func(c *Config) { c.MinInterval = 0 }, true},
		{"max below min", func(c *Config) { c.MaxInterval = 0.1 }, true},
		{"interval below min", func(c *Config) { c.OCRInterval = 0.2 }, true},
		{"interval above max", func(c *Config) { c.OCRInterval = 20 }, true},
		{"zero timeout", func(c *Config) { c.OCRTimeout = 0 }, true},
		{"negative cache", func(c *Config) { c.CacheSize = -1 }, true},
		{"cpu high over 100", func(c *Config) { c.CPUHighThreshold = 150 }, true},
		{"cpu low above high", func(c *Config) { c.CPULowThreshold = 90 }, true},
		{"zero batch workers", func(c *Config) { c.BatchConcurrency = 0 }, true},
		{"unknown engine", func(c *Config) { c.Engine = "easyocr" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	os.Setenv("TEST_STRING", "hello")
	os.Setenv("TEST_INT", "42")
	os.Setenv("TEST_INT_INVALID", "not-a-number")
	os.Setenv("TEST_FLOAT", "3.14")
	defer func() {
		os.Unsetenv("TEST_STRING")
		os.Unsetenv("TEST_INT")
		os.Unsetenv("TEST_INT_INVALID")
		os.Unsetenv("TEST_FLOAT")
	}()

	if v := getEnv("TEST_STRING", "default"); v != "hello" {
		t.Errorf("getEnv = %q, want %q", v, "hello")
	}
	if v := getEnv("NONEXISTENT", "default"); v != "default" {
		t.Errorf("getEnv = %q, want %q", v, "default")
	}
	if v := getEnvInt("TEST_INT", 0); v != 42 {
		t.Errorf("getEnvInt = %d, want %d", v, 42)
	}
	if v := getEnvInt("TEST_INT_INVALID", 100); v != 100 {
		t.Errorf("getEnvInt with invalid = %d, want %d", v, 100)
	}
	if v := getEnvFloat("TEST_FLOAT", 0.0); v != 3.14 {
		t.Errorf("getEnvFloat = %f, want %f", v, 3.14)
	}
	if v := getEnvFloat("NONEXISTENT", 2.71); v != 2.71 {
		t.Errorf("getEnvFloat = %f, want %f", v, 2.71)
	}
}
