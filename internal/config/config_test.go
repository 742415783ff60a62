package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GOOGLE_CLOUD_PROJECT", "test-project")
	// Clear anything the host environment may carry.
	for _, key := range []string{
		"PORT", "HEADLESS", "BROWSER_DRIVER", "CHROME_PATH",
		"SESSION_FILE", "SNAPSHOT_DIR", "NAV_TIMEOUT", "LOGIN_TIMEOUT",
		"POST_SETTLE_DELAY", "POST_SCAN_DELAY", "MAX_LOAD_MORE_CLICKS",
		"GEMINI_MODEL", "MAX_STORED_RUN_RECORDS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.ProjectID != "test-project" {
		t.Errorf("ProjectID = %q, want test-project", cfg.ProjectID)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if !cfg.Headless {
		t.Error("Headless = false, want true by default")
	}
	if cfg.BrowserDriver != "playwright" {
		t.Errorf("BrowserDriver = %q, want playwright", cfg.BrowserDriver)
	}
	if cfg.SessionFile != ".linkedin_session.json" {
		t.Errorf("SessionFile = %q", cfg.SessionFile)
	}
	if cfg.SnapshotDir != "snapshots" {
		t.Errorf("SnapshotDir = %q", cfg.SnapshotDir)
	}
	if cfg.NavTimeout != 30*time.Second {
		t.Errorf("NavTimeout = %v, want 30s", cfg.NavTimeout)
	}
	if cfg.LoginTimeout != 2*time.Minute {
		t.Errorf("LoginTimeout = %v, want 2m", cfg.LoginTimeout)
	}
	if cfg.PostSettleDelay != 5*time.Second {
		t.Errorf("PostSettleDelay = %v, want 5s", cfg.PostSettleDelay)
	}
	if cfg.PostScanDelay != 4*time.Second {
		t.Errorf("PostScanDelay = %v, want 4s", cfg.PostScanDelay)
	}
	if cfg.MaxLoadMoreClicks != 10 {
		t.Errorf("MaxLoadMoreClicks = %d, want 10", cfg.MaxLoadMoreClicks)
	}
	if cfg.GeminiModel != "gemini-2.5-flash" {
		t.Errorf("GeminiModel = %q", cfg.GeminiModel)
	}
	if cfg.MaxStoredRunRecords != 500 {
		t.Errorf("MaxStoredRunRecords = %d, want 500", cfg.MaxStoredRunRecords)
	}
}

func TestLoad_MissingProject(t *testing.T) {
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() returned nil error without GOOGLE_CLOUD_PROJECT")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("HEADLESS", "false")
	t.Setenv("BROWSER_DRIVER", "chromedp")
	t.Setenv("CHROME_PATH", "/usr/bin/chromium")
	t.Setenv("NAV_TIMEOUT", "45s")
	t.Setenv("MAX_LOAD_MORE_CLICKS", "25")
	t.Setenv("MAX_STORED_RUN_RECORDS", "100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.Headless {
		t.Error("Headless = true, want false")
	}
	if cfg.BrowserDriver != "chromedp" || cfg.ChromePath != "/usr/bin/chromium" {
		t.Errorf("driver = (%q, %q)", cfg.BrowserDriver, cfg.ChromePath)
	}
	if cfg.NavTimeout != 45*time.Second {
		t.Errorf("NavTimeout = %v, want 45s", cfg.NavTimeout)
	}
	if cfg.MaxLoadMoreClicks != 25 {
		t.Errorf("MaxLoadMoreClicks = %d, want 25", cfg.MaxLoadMoreClicks)
	}
	if cfg.MaxStoredRunRecords != 100 {
		t.Errorf("MaxStoredRunRecords = %d, want 100", cfg.MaxStoredRunRecords)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad headless", "HEADLESS", "not-a-bool"},
		{"unknown driver", "BROWSER_DRIVER", "selenium"},
		{"bad duration", "NAV_TIMEOUT", "fast"},
		{"bad load more", "MAX_LOAD_MORE_CLICKS", "many"},
		{"bad run records", "MAX_STORED_RUN_RECORDS", "lots"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Fatalf("Load() returned nil error with %s=%q", tt.key, tt.value)
			}
		})
	}
}
