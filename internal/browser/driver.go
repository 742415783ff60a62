// Package browser isolates the automation runtime behind a minimal page
// driver so the extraction engine stays pure and fixture-testable.
//
// Two implementations exist: playwright, the default, whose Install step
// also provisions a pinned Chromium build, and chromedp for environments that
// ship their own Chrome binary, such as prebuilt containers.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/rbarros/linkedin-engage-bot/internal/config"
	"github.com/rbarros/linkedin-engage-bot/internal/models"
)

// Driver is the minimal surface the scraper needs from a live browser.
// One driver owns one browser process, one context, and one page, all
// scoped to a single run.
type Driver interface {
	Goto(ctx context.Context, url string) error
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error
	Click(ctx context.Context, selector string) error
	Text(ctx context.Context, selector string) (string, error)
	HTML(ctx context.Context) (string, error)
	Cookies(ctx context.Context) ([]models.Cookie, error)
	SetCookies(ctx context.Context, cookies []models.Cookie) error
	Close() error
}

// New provisions (if needed) and launches the configured driver.
func New(ctx context.Context, cfg *config.Config) (Driver, error) {
	switch cfg.BrowserDriver {
	case "chromedp":
		return NewChromedp(ctx, cfg)
	case "playwright":
		if err := Provision(); err != nil {
			return nil, fmt.Errorf("browser provisioning failed: %w", err)
		}
		return NewPlaywright(cfg)
	default:
		return nil, fmt.Errorf("unknown browser driver %q", cfg.BrowserDriver)
	}
}
