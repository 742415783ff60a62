package processor

import (
	"context"

	"github.com/rbarros/linkedin-engage-bot/internal/models"
)

// CommentStore abstracts the storage layer for comment records.
type CommentStore interface {
	GetCommentByID(ctx context.Context, id string) (*models.Comment, error)
	TryCreateComment(ctx context.Context, comment models.Comment) error
	UpdateExtractedFields(ctx context.Context, comment models.Comment) error
	SetSuggestedReply(ctx context.Context, commentID, reply string) error
}

// PostSource supplies the posts eligible for scanning, newest first.
type PostSource interface {
	GetRecentPosts(ctx context.Context, limit int) ([]models.TargetPost, error)
}

// Scanner is the authenticated browser session for one run.
type Scanner interface {
	Authenticate(ctx context.Context) error
	ScanPost(ctx context.Context, post models.TargetPost) ([]models.Candidate, error)
}

// ScannerFactory provisions a browser and returns a ready Scanner plus a
// cleanup that must run regardless of how the run ends.
type ScannerFactory func(ctx context.Context) (Scanner, func(), error)

// ReplyDrafter produces a suggested reply for a newly seen comment.
type ReplyDrafter interface {
	DraftReply(ctx context.Context, comment models.Comment) (string, error)
}

// RunNotifier publishes a per-run summary to an external channel.
type RunNotifier interface {
	NotifyRunSummary(ctx context.Context, summary RunSummary) error
}
