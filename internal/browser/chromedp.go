package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	"github.com/rbarros/linkedin-engage-bot/internal/config"
	"github.com/rbarros/linkedin-engage-bot/internal/models"
)

// ChromedpDriver drives an externally provisioned Chrome binary over the
// DevTools protocol. Used where downloading a browser at startup is
// undesirable (e.g. a container image with Chrome baked in).
type ChromedpDriver struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	navTimeout  time.Duration
}

func NewChromedp(ctx context.Context, cfg *config.Config) (*ChromedpDriver, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.WindowSize(1366, 900),
	)
	if cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	// Starting the browser eagerly surfaces a missing binary as a
	// provisioning failure instead of a navigation failure.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	return &ChromedpDriver{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		navTimeout:  cfg.NavTimeout,
	}, nil
}

func (d *ChromedpDriver) run(timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(d.ctx, timeout)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

func (d *ChromedpDriver) Goto(_ context.Context, url string) error {
	if err := d.run(d.navTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (d *ChromedpDriver) WaitForSelector(_ context.Context, selector string, timeout time.Duration) error {
	return d.run(timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (d *ChromedpDriver) Click(_ context.Context, selector string) error {
	return d.run(5*time.Second, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
}

func (d *ChromedpDriver) Text(_ context.Context, selector string) (string, error) {
	var out string
	err := d.run(5*time.Second, chromedp.Text(selector, &out, chromedp.ByQuery))
	return out, err
}

func (d *ChromedpDriver) HTML(_ context.Context) (string, error) {
	var out string
	err := d.run(d.navTimeout, chromedp.OuterHTML("html", &out))
	return out, err
}

func (d *ChromedpDriver) Cookies(_ context.Context) ([]models.Cookie, error) {
	var cookies []models.Cookie
	err := d.run(10*time.Second, chromedp.ActionFunc(func(ctx context.Context) error {
		raw, err := storage.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		for _, c := range raw {
			cookies = append(cookies, models.Cookie{
				Name:     c.Name,
				Value:    c.Value,
				Domain:   c.Domain,
				Path:     c.Path,
				Expires:  c.Expires,
				HTTPOnly: c.HTTPOnly,
				Secure:   c.Secure,
				SameSite: string(c.SameSite),
			})
		}
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}
	return cookies, nil
}

func (d *ChromedpDriver) SetCookies(_ context.Context, cookies []models.Cookie) error {
	return d.run(10*time.Second, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range cookies {
			param := network.SetCookie(c.Name, c.Value).
				WithDomain(c.Domain).
				WithPath(c.Path).
				WithHTTPOnly(c.HTTPOnly).
				WithSecure(c.Secure)
			if c.Expires > 0 {
				expires := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
				param = param.WithExpires(&expires)
			}
			if sameSite := cookieSameSite(c.SameSite); sameSite != "" {
				param = param.WithSameSite(sameSite)
			}
			if err := param.Do(ctx); err != nil {
				return fmt.Errorf("failed to set cookie %s: %w", c.Name, err)
			}
		}
		return nil
	}))
}

func cookieSameSite(value string) network.CookieSameSite {
	switch value {
	case "Strict":
		return network.CookieSameSiteStrict
	case "Lax":
		return network.CookieSameSiteLax
	case "None":
		return network.CookieSameSiteNone
	}
	return ""
}

func (d *ChromedpDriver) Close() error {
	d.cancelTab()
	d.cancelAlloc()
	return nil
}
