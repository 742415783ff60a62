// Package gate decides whether a scraper run may execute and records
// run outcomes in the audit log.
//
// The cooldown check is cooperative scheduling, not a lock: two triggers
// racing ahead of the lastRun write could both pass. That race is
// accepted; the reconciler's keyed upserts make a duplicate run harmless.
package gate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rbarros/linkedin-engage-bot/internal/models"
)

// Source tag stamped on every audit record this service emits.
const Source = "comment-scraper"

// SettingsStore reads the dashboard-owned scraper settings and writes
// back the lastRun timestamp.
type SettingsStore interface {
	GetScraperSettings(ctx context.Context) (*models.ScraperSettings, error)
	UpdateLastRun(ctx context.Context, t time.Time) error
}

// AuditSink appends immutable run records and bounds their retention.
type AuditSink interface {
	AppendRunRecord(ctx context.Context, record models.RunRecord) error
	TrimRunRecords(ctx context.Context, maxRecords int) error
}

type Decision struct {
	Proceed bool
	Reason  string
}

// ShouldRun applies the enabled flag and the minimum-interval cooldown.
// A zero LastRun (never ran) always satisfies the cooldown.
func ShouldRun(settings *models.ScraperSettings, now time.Time) Decision {
	if settings == nil || !settings.Enabled {
		return Decision{Proceed: false, Reason: "scraper is disabled"}
	}

	cooldown := time.Duration(settings.MinIntervalMinutes) * time.Minute
	elapsed := now.Sub(settings.LastRun)
	if elapsed < cooldown {
		return Decision{
			Proceed: false,
			Reason:  fmt.Sprintf("cooldown active: %s elapsed of %s minimum", elapsed.Round(time.Second), cooldown),
		}
	}
	return Decision{Proceed: true, Reason: "ok"}
}

type Gate struct {
	settings   SettingsStore
	audit      AuditSink
	maxRecords int
}

func New(settings SettingsStore, audit AuditSink, maxRecords int) *Gate {
	return &Gate{settings: settings, audit: audit, maxRecords: maxRecords}
}

// Check reads the current settings and evaluates the gate. Cooldown and
// disabled skips are reported to the caller but never persisted to the
// audit log; scheduler ticks are too frequent for that.
func (g *Gate) Check(ctx context.Context, now time.Time) (Decision, *models.ScraperSettings, error) {
	settings, err := g.settings.GetScraperSettings(ctx)
	if err != nil {
		return Decision{}, nil, fmt.Errorf("failed to read scraper settings: %w", err)
	}
	return ShouldRun(settings, now), settings, nil
}

// MarkRan stamps lastRun after a run that produced a valid attempt.
// Fatal pre-attempt errors must NOT call this, so the next scheduled
// trigger retries promptly.
func (g *Gate) MarkRan(ctx context.Context, now time.Time) {
	if err := g.settings.UpdateLastRun(ctx, now); err != nil {
		slog.Error("Failed to update lastRun timestamp", "error", err)
	}
}

// RecordOutcome appends one audit record for an executed run.
func (g *Gate) RecordOutcome(ctx context.Context, recordType, message string, details map[string]any) {
	record := models.RunRecord{
		Type:      recordType,
		Message:   message,
		Details:   details,
		Source:    Source,
		Timestamp: time.Now(),
	}
	if err := g.audit.AppendRunRecord(ctx, record); err != nil {
		slog.Error("Failed to append audit run record", "error", err, "type", recordType)
		return
	}
	if g.maxRecords > 0 {
		if err := g.audit.TrimRunRecords(ctx, g.maxRecords); err != nil {
			slog.Warn("Failed to trim audit run records", "error", err)
		}
	}
}
