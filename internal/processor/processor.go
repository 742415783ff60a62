// Package processor orchestrates a scraper run end to end: gate check,
// browser provisioning, authentication, per-post scanning, and
// reconciliation of extracted candidates into Firestore.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/rbarros/linkedin-engage-bot/internal/config"
	"github.com/rbarros/linkedin-engage-bot/internal/gate"
	"github.com/rbarros/linkedin-engage-bot/internal/models"
	"github.com/rbarros/linkedin-engage-bot/internal/validator"
)

const defaultMonitorCount = 3

type Processor interface {
	Run(ctx context.Context) error
}

// RunSummary aggregates one run's outcome for the audit log and the
// summary webhook.
type RunSummary struct {
	PostsScanned    int
	PostsFailed     int
	NewComments     int
	UpdatedComments int
	Errors          []string
	Duration        time.Duration
}

type EngagementProcessor struct {
	store      CommentStore
	posts      PostSource
	gate       *gate.Gate
	newScanner ScannerFactory
	drafter    ReplyDrafter // may be nil
	notifier   RunNotifier  // may be nil
	validate   *validator.Validator
	limiter    *rate.Limiter
}

func New(store CommentStore, posts PostSource, g *gate.Gate, factory ScannerFactory, drafter ReplyDrafter, notifier RunNotifier, cfg *config.Config) *EngagementProcessor {
	return &EngagementProcessor{
		store:      store,
		posts:      posts,
		gate:       g,
		newScanner: factory,
		drafter:    drafter,
		notifier:   notifier,
		validate:   validator.New(),
		// One post scan at a time, paced to look less like automation.
		limiter: rate.NewLimiter(rate.Every(cfg.PostScanDelay), 1),
	}
}

// Run executes one complete scraper run. Only provisioning and
// authentication failures are run-fatal; per-post and per-candidate
// failures are contained and reported in the summary.
func (p *EngagementProcessor) Run(ctx context.Context) (err error) {
	decision, settings, err := p.gate.Check(ctx, time.Now())
	if err != nil {
		p.gate.RecordOutcome(ctx, models.RunError, "failed to read scraper settings", map[string]any{"error": err.Error()})
		return err
	}
	if !decision.Proceed {
		// Frequent scheduler ticks make persisted skip records pure noise.
		slog.Debug("Scraper run skipped", "reason", decision.Reason)
		return nil
	}

	scanner, cleanup, err := p.newScanner(ctx)
	if err != nil {
		p.gate.RecordOutcome(ctx, models.RunError, "browser provisioning failed", map[string]any{"error": err.Error()})
		return fmt.Errorf("browser provisioning failed: %w", err)
	}
	// The browser is released no matter where the run fails.
	defer cleanup()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scraper run panicked: %v", r)
			p.gate.RecordOutcome(ctx, models.RunError, "scraper run panicked", map[string]any{"panic": fmt.Sprint(r)})
		}
	}()

	if err := scanner.Authenticate(ctx); err != nil {
		// Fatal before any scan attempt: lastRun stays untouched so the
		// next trigger retries promptly.
		p.gate.RecordOutcome(ctx, models.RunError, "authentication failed", map[string]any{"error": err.Error()})
		return fmt.Errorf("authentication failed: %w", err)
	}

	monitorCount := settings.MonitorCount
	if monitorCount <= 0 {
		monitorCount = defaultMonitorCount
	}
	posts, err := p.posts.GetRecentPosts(ctx, monitorCount)
	if err != nil {
		p.gate.RecordOutcome(ctx, models.RunError, "failed to load target posts", map[string]any{"error": err.Error()})
		return fmt.Errorf("failed to load target posts: %w", err)
	}
	slog.Info("Scanning posts for comments", "count", len(posts))

	start := time.Now()
	var summary RunSummary
	for i, post := range posts {
		if i > 0 {
			if waitErr := p.limiter.Wait(ctx); waitErr != nil {
				summary.Errors = append(summary.Errors, waitErr.Error())
				break
			}
		}

		candidates, scanErr := scanner.ScanPost(ctx, post)
		if scanErr != nil {
			// A single post failing never aborts the run.
			slog.Warn("Failed to scan post, continuing with next", "post", post.FirestoreID, "error", scanErr)
			summary.PostsFailed++
			summary.Errors = append(summary.Errors, scanErr.Error())
			continue
		}
		summary.PostsScanned++

		newCount, updatedCount := p.Reconcile(ctx, post, candidates)
		summary.NewComments += newCount
		summary.UpdatedComments += updatedCount
	}
	summary.Duration = time.Since(start)

	// Scanning was attempted, so the cooldown window starts now even if
	// some posts failed.
	p.gate.MarkRan(ctx, time.Now())

	outcome := models.RunSuccess
	message := fmt.Sprintf("Scanned %d posts: %d new, %d updated comments",
		summary.PostsScanned, summary.NewComments, summary.UpdatedComments)
	if summary.PostsFailed > 0 {
		outcome = models.RunWarn
		message = fmt.Sprintf("%s (%d posts failed)", message, summary.PostsFailed)
	}
	p.gate.RecordOutcome(ctx, outcome, message, map[string]any{
		"postsScanned":    summary.PostsScanned,
		"postsFailed":     summary.PostsFailed,
		"newComments":     summary.NewComments,
		"updatedComments": summary.UpdatedComments,
		"durationSeconds": int(summary.Duration.Seconds()),
		"errors":          summary.Errors,
	})

	if p.notifier != nil {
		if notifyErr := p.notifier.NotifyRunSummary(ctx, summary); notifyErr != nil {
			slog.Warn("Failed to send run summary notification", "error", notifyErr)
		}
	}

	slog.Info("Scraper run finished",
		"scanned", summary.PostsScanned, "failed", summary.PostsFailed,
		"new", summary.NewComments, "updated", summary.UpdatedComments)
	return nil
}

// Reconcile merges extracted candidates into the comment store. New
// comments are created unread; existing comments get only their
// extracted fields refreshed. read/replied are never touched, so
// improving the extraction heuristics can never re-surface
// already-triaged comments.
func (p *EngagementProcessor) Reconcile(ctx context.Context, post models.TargetPost, candidates []models.Candidate) (newCount, updatedCount int) {
	now := time.Now()
	for _, candidate := range candidates {
		comment := models.Comment{
			FirestoreID:      candidate.ID,
			Text:             candidate.Text,
			AuthorName:       candidate.AuthorName,
			AuthorImageURL:   absoluteLinkedInURL(candidate.AuthorImageURL),
			AuthorProfileURL: absoluteLinkedInURL(candidate.AuthorProfileURL),
			ParentPostID:     post.FirestoreID,
			ParentPlatformID: post.PlatformPostID,
			Topic:            post.Topic,
			ExtractionMethod: candidate.ExtractionMethod,
			LastSeenAt:       now,
		}

		// Avatar and profile links are decoration; a malformed one is
		// dropped so it never sinks an otherwise valid comment.
		if comment.AuthorImageURL != "" && p.validate.ValidateVar(comment.AuthorImageURL, "url") != nil {
			slog.Debug("Dropping unparseable avatar URL", "id", candidate.ID, "url", comment.AuthorImageURL)
			comment.AuthorImageURL = ""
		}
		if comment.AuthorProfileURL != "" && p.validate.ValidateVar(comment.AuthorProfileURL, "url") != nil {
			slog.Debug("Dropping unparseable profile URL", "id", candidate.ID, "url", comment.AuthorProfileURL)
			comment.AuthorProfileURL = ""
		}

		if err := p.validate.ValidateStruct(comment); err != nil {
			slog.Warn("Skipping invalid candidate", "id", candidate.ID, "error", err)
			continue
		}

		existing, err := p.store.GetCommentByID(ctx, candidate.ID)
		if err != nil {
			// Per-candidate failures never abort the post's reconciliation.
			slog.Warn("Failed to look up comment, skipping candidate", "id", candidate.ID, "error", err)
			continue
		}

		if existing == nil {
			comment.FirstSeenAt = now
			comment.Read = false
			comment.Replied = false

			createErr := p.store.TryCreateComment(ctx, comment)
			if createErr == nil {
				newCount++
				p.draftReply(ctx, comment)
				continue
			}
			if !errors.Is(createErr, models.ErrCommentExists) {
				slog.Warn("Failed to create comment, skipping candidate", "id", candidate.ID, "error", createErr)
				continue
			}
			// Race with a concurrent run: treat as an update.
		}

		if err := p.store.UpdateExtractedFields(ctx, comment); err != nil {
			slog.Warn("Failed to update comment, skipping candidate", "id", candidate.ID, "error", err)
			continue
		}
		updatedCount++
	}
	return newCount, updatedCount
}

func (p *EngagementProcessor) draftReply(ctx context.Context, comment models.Comment) {
	if p.drafter == nil {
		return
	}
	reply, err := p.drafter.DraftReply(ctx, comment)
	if err != nil {
		slog.Warn("Failed to draft reply", "id", comment.FirestoreID, "error", err)
		return
	}
	if reply == "" {
		return
	}
	if err := p.store.SetSuggestedReply(ctx, comment.FirestoreID, reply); err != nil {
		slog.Warn("Failed to store suggested reply", "id", comment.FirestoreID, "error", err)
	}
}

// absoluteLinkedInURL resolves page-relative hrefs and img srcs (ghost
// avatars and profile links are often root-relative) so optional URL
// fields validate instead of sinking an otherwise valid candidate.
func absoluteLinkedInURL(ref string) string {
	if strings.HasPrefix(ref, "/") {
		return "https://www.linkedin.com" + ref
	}
	return ref
}
