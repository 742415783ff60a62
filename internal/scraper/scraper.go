// Package scraper drives an authenticated browser through LinkedIn post
// pages and hands the rendered DOM to the extraction engine.
//
// Authentication state machine: UNAUTHENTICATED -> AUTHENTICATING ->
// AUTHENTICATED -> SCANNING(post_i) -> DONE, with any state able to fail.
// Headless runs fail fast when no session can be loaded; interactive
// runs fall back to a human-completed login.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rbarros/linkedin-engage-bot/internal/browser"
	"github.com/rbarros/linkedin-engage-bot/internal/config"
	"github.com/rbarros/linkedin-engage-bot/internal/extractor"
	"github.com/rbarros/linkedin-engage-bot/internal/models"
	"github.com/rbarros/linkedin-engage-bot/internal/session"
	"github.com/rbarros/linkedin-engage-bot/internal/util"
)

const (
	expandClickDelay = 1500 * time.Millisecond
	loadMoreWait     = 3 * time.Second
	navRetries       = 2
)

type Scraper struct {
	driver   browser.Driver
	sessions session.Store
	engine   *extractor.Engine
	cfg      *config.Config

	// Overridable in tests; real runs keep the defaults.
	expandDelay  time.Duration
	loadMoreWait time.Duration
	retryBackoff func(ctx context.Context, maxRetries int, fn func(attempt int) error) error
}

func New(driver browser.Driver, sessions session.Store, engine *extractor.Engine, cfg *config.Config) *Scraper {
	return &Scraper{
		driver:       driver,
		sessions:     sessions,
		engine:       engine,
		cfg:          cfg,
		expandDelay:  expandClickDelay,
		loadMoreWait: loadMoreWait,
		retryBackoff: util.RetryWithBackoff,
	}
}

// Authenticate brings the browser into a logged-in state, restoring a
// persisted session when one exists and falling back to an interactive
// login otherwise. Authentication failure is fatal to the run.
func (s *Scraper) Authenticate(ctx context.Context) error {
	sess, err := s.sessions.Load(ctx)
	if err != nil {
		slog.Warn("Failed to load persisted session, treating as absent", "error", err)
		sess = nil
	}

	if sess == nil && s.cfg.Headless {
		// No silent partial runs: without a session a headless browser
		// can never reach logged-in UI.
		return fmt.Errorf("headless run without a session: %w", models.ErrNoSession)
	}

	if sess != nil {
		if err := s.driver.SetCookies(ctx, sess.Cookies); err != nil {
			slog.Warn("Failed to restore session cookies", "error", err)
		}
	}

	if err := s.driver.Goto(ctx, feedURL); err != nil {
		return fmt.Errorf("failed to open feed: %w", err)
	}

	if err := s.driver.WaitForSelector(ctx, authMarker, s.cfg.NavTimeout); err == nil {
		slog.Info("Authenticated via persisted session")
		s.persistSession(ctx)
		return nil
	}

	if s.cfg.Headless {
		return fmt.Errorf("persisted session is stale and interactive login is unavailable headless: %w", models.ErrNoSession)
	}

	// AUTHENTICATING: wait for a human to complete the login.
	slog.Info("Session missing or stale, waiting for manual login",
		"url", loginURL, "email", s.cfg.LinkedInEmail, "timeout", s.cfg.LoginTimeout)
	if err := s.driver.Goto(ctx, loginURL); err != nil {
		return fmt.Errorf("failed to open login page: %w", err)
	}
	if err := s.driver.WaitForSelector(ctx, authMarker, s.cfg.LoginTimeout); err != nil {
		return fmt.Errorf("manual login was not completed in time: %w", err)
	}

	slog.Info("Manual login completed, persisting refreshed session")
	s.persistSession(ctx)
	return nil
}

// persistSession snapshots the current cookies into every session tier.
// Best-effort: a persistence failure never fails the run.
func (s *Scraper) persistSession(ctx context.Context) {
	cookies, err := s.driver.Cookies(ctx)
	if err != nil {
		slog.Warn("Failed to read cookies for session persistence", "error", err)
		return
	}
	if err := s.sessions.Save(ctx, &models.Session{Cookies: cookies}); err != nil {
		slog.Warn("Failed to persist session", "error", err)
	}
}

// ScanPost navigates to one post, expands its comment thread, and runs
// the extraction cascade over the rendered DOM.
func (s *Scraper) ScanPost(ctx context.Context, post models.TargetPost) ([]models.Candidate, error) {
	url := util.PostURL(post.PlatformPostID)
	if url == "" {
		return nil, fmt.Errorf("post %s has no platform post ID", post.FirestoreID)
	}

	err := s.retryBackoff(ctx, navRetries, func(attempt int) error {
		if attempt > 0 {
			slog.Warn("Retrying post navigation", "post", post.FirestoreID, "attempt", attempt)
		}
		return s.driver.Goto(ctx, url)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to navigate to post %s: %w", post.FirestoreID, err)
	}

	// Fixed settle delay: comment widgets hydrate after the document
	// itself is ready.
	if err := sleepCtx(ctx, s.cfg.PostSettleDelay); err != nil {
		return nil, err
	}

	s.expandComments(ctx)

	pageHTML, err := s.driver.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to capture page HTML for post %s: %w", post.FirestoreID, err)
	}

	candidates, err := s.engine.Extract(pageHTML)
	if err != nil {
		return nil, fmt.Errorf("extraction failed for post %s: %w", post.FirestoreID, err)
	}

	if len(candidates) == 0 {
		// Not an error: the post may genuinely have no comments. Keep the
		// page for offline diagnosis in case the selectors rotted.
		slog.Info("No comment candidates found", "post", post.FirestoreID)
		if path, snapErr := SaveSnapshot(s.cfg.SnapshotDir, post.FirestoreID, pageHTML); snapErr != nil {
			slog.Warn("Failed to save page snapshot", "post", post.FirestoreID, "error", snapErr)
		} else {
			slog.Info("Saved page snapshot", "post", post.FirestoreID, "path", path)
		}
	}
	return candidates, nil
}

// expandComments clicks the comment-count affordance if present, then
// repeatedly clicks any "load more" affordance. The loop is capped so a
// stuck UI cannot spin forever.
func (s *Scraper) expandComments(ctx context.Context) {
	if label, err := s.driver.Text(ctx, commentCountLabel); err == nil {
		if count := util.SafeAtoi(util.CleanNumericString(label)); count > 0 {
			slog.Debug("Post reports comment count", "count", count)
		}
	}

	if err := s.driver.Click(ctx, commentCountButton); err != nil {
		slog.Debug("No comment-count affordance to click", "error", err)
	}
	_ = sleepCtx(ctx, s.expandDelay)

	for i := 0; i < s.cfg.MaxLoadMoreClicks; i++ {
		if err := s.driver.WaitForSelector(ctx, loadMoreButton, s.loadMoreWait); err != nil {
			break
		}
		if err := s.driver.Click(ctx, loadMoreButton); err != nil {
			slog.Debug("Load-more click failed, stopping expansion", "error", err)
			break
		}
		if sleepCtx(ctx, s.expandDelay) != nil {
			break
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
