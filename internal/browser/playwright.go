package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/rbarros/linkedin-engage-bot/internal/config"
	"github.com/rbarros/linkedin-engage-bot/internal/models"
)

// Provision ensures the playwright driver and its pinned Chromium build
// are installed locally. Idempotent: a second call with everything in
// place is a fast no-op.
func Provision() error {
	return playwright.Install(&playwright.RunOptions{
		Browsers: []string{"chromium"},
	})
}

// PlaywrightDriver drives a playwright-managed Chromium instance.
type PlaywrightDriver struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
}

func NewPlaywright(cfg *config.Config) (*PlaywrightDriver, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		// Keeps navigator.webdriver from advertising the automation.
		Args: []string{"--disable-blink-features=AutomationControlled"},
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch chromium: %w", err)
	}

	browserContext, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(cfg.UserAgent),
		Viewport:  &playwright.Size{Width: 1366, Height: 900},
		Locale:    playwright.String("en-US"),
	})
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := browserContext.NewPage()
	if err != nil {
		_ = browserContext.Close()
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	return &PlaywrightDriver{
		pw:      pw,
		browser: browser,
		context: browserContext,
		page:    page,
	}, nil
}

func (d *PlaywrightDriver) Goto(_ context.Context, url string) error {
	_, err := d.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (d *PlaywrightDriver) WaitForSelector(_ context.Context, selector string, timeout time.Duration) error {
	return d.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

func (d *PlaywrightDriver) Click(_ context.Context, selector string) error {
	return d.page.Locator(selector).First().Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(5000),
	})
}

func (d *PlaywrightDriver) Text(_ context.Context, selector string) (string, error) {
	return d.page.Locator(selector).First().TextContent(playwright.LocatorTextContentOptions{
		Timeout: playwright.Float(5000),
	})
}

func (d *PlaywrightDriver) HTML(_ context.Context) (string, error) {
	return d.page.Content()
}

func (d *PlaywrightDriver) Cookies(_ context.Context) ([]models.Cookie, error) {
	raw, err := d.context.Cookies()
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}

	cookies := make([]models.Cookie, 0, len(raw))
	for _, c := range raw {
		cookie := models.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HttpOnly,
			Secure:   c.Secure,
		}
		if c.SameSite != nil {
			cookie.SameSite = string(*c.SameSite)
		}
		cookies = append(cookies, cookie)
	}
	return cookies, nil
}

func (d *PlaywrightDriver) SetCookies(_ context.Context, cookies []models.Cookie) error {
	converted := make([]playwright.OptionalCookie, 0, len(cookies))
	for _, c := range cookies {
		cookie := playwright.OptionalCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   playwright.String(c.Domain),
			Path:     playwright.String(c.Path),
			HttpOnly: playwright.Bool(c.HTTPOnly),
			Secure:   playwright.Bool(c.Secure),
		}
		if c.Expires != 0 {
			cookie.Expires = playwright.Float(c.Expires)
		}
		if attr := sameSiteAttribute(c.SameSite); attr != nil {
			cookie.SameSite = attr
		}
		converted = append(converted, cookie)
	}
	return d.context.AddCookies(converted)
}

func sameSiteAttribute(value string) *playwright.SameSiteAttribute {
	switch value {
	case "Strict":
		return playwright.SameSiteAttributeStrict
	case "Lax":
		return playwright.SameSiteAttributeLax
	case "None":
		return playwright.SameSiteAttributeNone
	}
	return nil
}

// Close tears the whole browser stack down. Always safe to call, even
// after a partial failure.
func (d *PlaywrightDriver) Close() error {
	if err := d.context.Close(); err != nil {
		slog.Warn("Failed to close browser context", "error", err)
	}
	if err := d.browser.Close(); err != nil {
		slog.Warn("Failed to close browser", "error", err)
	}
	return d.pw.Stop()
}
