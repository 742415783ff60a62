package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ProjectID string
	Port      string

	// Browser
	Headless      bool
	BrowserDriver string // "playwright" or "chromedp"
	ChromePath    string
	UserAgent     string

	// Session persistence
	SessionFile string
	SnapshotDir string

	// Surfaced as a log hint to the human completing the interactive
	// login when running non-headless. The scraper never types
	// credentials itself.
	LinkedInEmail string

	// Timing
	NavTimeout        time.Duration
	LoginTimeout      time.Duration
	PostSettleDelay   time.Duration
	PostScanDelay     time.Duration
	MaxLoadMoreClicks int

	// Integrations
	GeminiAPIKey      string
	GeminiModel       string
	DiscordWebhookURL string

	MaxStoredRunRecords int
}

func Load() (*Config, error) {
	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if projectID == "" {
		return nil, fmt.Errorf("GOOGLE_CLOUD_PROJECT environment variable is required but not set")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
		slog.Info("Defaulting to port", "port", port)
	}

	headless := true
	if v := os.Getenv("HEADLESS"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid HEADLESS %q: %w", v, err)
		}
		headless = parsed
	}

	driver := os.Getenv("BROWSER_DRIVER")
	if driver == "" {
		driver = "playwright"
	}
	if driver != "playwright" && driver != "chromedp" {
		return nil, fmt.Errorf("invalid BROWSER_DRIVER %q: must be playwright or chromedp", driver)
	}

	chromePath := os.Getenv("CHROME_PATH")
	if driver == "chromedp" && chromePath == "" {
		slog.Warn("BROWSER_DRIVER=chromedp without CHROME_PATH, relying on PATH lookup")
	}

	userAgent := os.Getenv("SCRAPER_USER_AGENT")
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	}

	sessionFile := os.Getenv("SESSION_FILE")
	if sessionFile == "" {
		sessionFile = ".linkedin_session.json"
	}

	snapshotDir := os.Getenv("SNAPSHOT_DIR")
	if snapshotDir == "" {
		snapshotDir = "snapshots"
	}

	if os.Getenv("LINKEDIN_EMAIL") == "" {
		slog.Warn("LINKEDIN_EMAIL not set, interactive login will show no credential hint")
	}

	navTimeout, err := durationEnv("NAV_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	loginTimeout, err := durationEnv("LOGIN_TIMEOUT", 2*time.Minute)
	if err != nil {
		return nil, err
	}
	settleDelay, err := durationEnv("POST_SETTLE_DELAY", 5*time.Second)
	if err != nil {
		return nil, err
	}
	scanDelay, err := durationEnv("POST_SCAN_DELAY", 4*time.Second)
	if err != nil {
		return nil, err
	}

	maxLoadMore := 10
	if v := os.Getenv("MAX_LOAD_MORE_CLICKS"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_LOAD_MORE_CLICKS %q: %w", v, err)
		}
		maxLoadMore = parsed
	}

	geminiModel := os.Getenv("GEMINI_MODEL")
	if geminiModel == "" {
		geminiModel = "gemini-2.5-flash"
	}

	maxRunRecords := 500
	if v := os.Getenv("MAX_STORED_RUN_RECORDS"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_STORED_RUN_RECORDS %q: %w", v, err)
		}
		maxRunRecords = parsed
	}

	if os.Getenv("DISCORD_WEBHOOK_URL") == "" {
		slog.Warn("DISCORD_WEBHOOK_URL not set, run summaries will not be sent")
	}

	return &Config{
		ProjectID:           projectID,
		Port:                port,
		Headless:            headless,
		BrowserDriver:       driver,
		ChromePath:          chromePath,
		UserAgent:           userAgent,
		SessionFile:         sessionFile,
		SnapshotDir:         snapshotDir,
		LinkedInEmail:       os.Getenv("LINKEDIN_EMAIL"),
		NavTimeout:          navTimeout,
		LoginTimeout:        loginTimeout,
		PostSettleDelay:     settleDelay,
		PostScanDelay:       scanDelay,
		MaxLoadMoreClicks:   maxLoadMore,
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		GeminiModel:         geminiModel,
		DiscordWebhookURL:   os.Getenv("DISCORD_WEBHOOK_URL"),
		MaxStoredRunRecords: maxRunRecords,
	}, nil
}

func durationEnv(name string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	return parsed, nil
}
