package models

import (
	"errors"
	"time"
)

// ErrCommentExists is returned when attempting to create a comment that already exists.
var ErrCommentExists = errors.New("comment already exists")

// ErrNoSession is returned when no persisted browser session could be loaded.
var ErrNoSession = errors.New("no persisted session available")

// Extraction method tags. Candidates produced by the structural selector
// path are tagged "standard"; anything recovered through the button-walk
// or raw-text heuristics is tagged "fallback_heuristic".
const (
	MethodStandard          = "standard"
	MethodFallbackHeuristic = "fallback_heuristic"
)

// Candidate is a provisionally extracted comment before reconciliation
// against Firestore. The ID comes from the platform's comment URN when
// the markup exposes one; otherwise a generated fallback ID is used,
// which is not stable across runs.
type Candidate struct {
	ID               string
	Text             string
	AuthorName       string
	AuthorImageURL   string
	AuthorProfileURL string
	ExtractionMethod string
	GeneratedID      bool
}

// Comment represents a persisted comment record.
type Comment struct {
	Text             string    `firestore:"text" validate:"required"`
	AuthorName       string    `firestore:"authorName" validate:"required"`
	AuthorImageURL   string    `firestore:"authorImageUrl,omitempty" validate:"omitempty,url"`
	AuthorProfileURL string    `firestore:"authorProfileUrl,omitempty" validate:"omitempty,url"`
	ParentPostID     string    `firestore:"parentPostId" validate:"required"`
	ParentPlatformID string    `firestore:"parentPlatformId"`
	Topic            string    `firestore:"topic,omitempty"`
	ExtractionMethod string    `firestore:"extractionMethod"`
	SuggestedReply   string    `firestore:"suggestedReply,omitempty"`
	FirstSeenAt      time.Time `firestore:"firstSeenAt"`
	LastSeenAt       time.Time `firestore:"lastSeenAt"`
	Read             bool      `firestore:"read"`
	Replied          bool      `firestore:"replied"`
	FirestoreID      string    `firestore:"-"` // document ID, not stored in the document itself
}

// TargetPost is a published post eligible for comment scanning.
// Owned by the upstream content pipeline; read-only here.
type TargetPost struct {
	PlatformPostID string    `firestore:"linkedinPostId"`
	Topic          string    `firestore:"topic,omitempty"`
	PublishedAt    time.Time `firestore:"publishedAt"`
	FirestoreID    string    `firestore:"-"`
}

// Run record outcome classifications.
const (
	RunSuccess = "success"
	RunError   = "error"
	RunWarn    = "warn"
)

// RunRecord is an append-only audit log entry. Never mutated after creation.
type RunRecord struct {
	Type      string         `firestore:"type"`
	Message   string         `firestore:"message"`
	Details   map[string]any `firestore:"details,omitempty"`
	Source    string         `firestore:"source"`
	Timestamp time.Time      `firestore:"timestamp"`
}

// ScraperSettings is the runtime configuration document owned by the
// dashboard. Read-only to the scraper except for LastRun.
type ScraperSettings struct {
	Enabled            bool      `firestore:"enabled"`
	MonitorCount       int       `firestore:"monitorCount"`
	MinIntervalMinutes int       `firestore:"minIntervalMinutes"`
	LastRun            time.Time `firestore:"lastRun,omitempty"`
}
