package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rbarros/linkedin-engage-bot/internal/models"
)

const (
	commentsCollection = "comments"
	postsCollection    = "posts"
	logsCollection     = "logs"
	settingsCollection = "settings"
	sessionsCollection = "sessions"

	scraperSettingsDoc = "scraper"
	linkedinSessionDoc = "linkedin"
)

type Client struct {
	client *firestore.Client
}

func New(ctx context.Context, projectID string) (*Client, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore.NewClient: %w", err)
	}
	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// GetCommentByID retrieves a comment by its Firestore document ID.
// Returns (nil, nil) when the comment does not exist.
func (c *Client) GetCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	doc, err := c.client.Collection(commentsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get comment %s: %w", id, err)
	}
	if !doc.Exists() {
		return nil, nil
	}

	var comment models.Comment
	if err := doc.DataTo(&comment); err != nil {
		return nil, fmt.Errorf("failed to unmarshal comment data: %w", err)
	}
	comment.FirestoreID = doc.Ref.ID
	return &comment, nil
}

// TryCreateComment creates a new comment document. Returns
// models.ErrCommentExists if the document is already present.
func (c *Client) TryCreateComment(ctx context.Context, comment models.Comment) error {
	docRef := c.client.Collection(commentsCollection).Doc(comment.FirestoreID)
	if _, err := docRef.Create(ctx, comment); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return models.ErrCommentExists
		}
		return err
	}
	return nil
}

// UpdateExtractedFields rewrites only the fields owned by the extraction
// engine. The read/replied flags are deliberately absent from the update
// list so a re-scan can never clobber human triage state.
func (c *Client) UpdateExtractedFields(ctx context.Context, comment models.Comment) error {
	docRef := c.client.Collection(commentsCollection).Doc(comment.FirestoreID)
	_, err := docRef.Update(ctx, []firestore.Update{
		{Path: "text", Value: comment.Text},
		{Path: "authorName", Value: comment.AuthorName},
		{Path: "authorImageUrl", Value: comment.AuthorImageURL},
		{Path: "authorProfileUrl", Value: comment.AuthorProfileURL},
		{Path: "parentPostId", Value: comment.ParentPostID},
		{Path: "parentPlatformId", Value: comment.ParentPlatformID},
		{Path: "topic", Value: comment.Topic},
		{Path: "extractionMethod", Value: comment.ExtractionMethod},
		{Path: "lastSeenAt", Value: comment.LastSeenAt},
	})
	return err
}

// SetSuggestedReply stores a drafted reply on an existing comment.
func (c *Client) SetSuggestedReply(ctx context.Context, commentID, reply string) error {
	docRef := c.client.Collection(commentsCollection).Doc(commentID)
	_, err := docRef.Update(ctx, []firestore.Update{
		{Path: "suggestedReply", Value: reply},
	})
	return err
}

// GetRecentPosts returns the most recently published posts that carry a
// platform post ID, newest first, capped at limit.
func (c *Client) GetRecentPosts(ctx context.Context, limit int) ([]models.TargetPost, error) {
	// A post without a linkedinPostId was never published to the platform;
	// filtering happens client-side to keep the index requirements simple.
	iter := c.client.Collection(postsCollection).
		OrderBy("publishedAt", firestore.Desc).
		Limit(limit * 2).
		Documents(ctx)
	defer iter.Stop()

	var posts []models.TargetPost
	for len(posts) < limit {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate posts: %w", err)
		}

		var post models.TargetPost
		if err := doc.DataTo(&post); err != nil {
			slog.Warn("Skipping unreadable post document", "id", doc.Ref.ID, "error", err)
			continue
		}
		if post.PlatformPostID == "" {
			continue
		}
		post.FirestoreID = doc.Ref.ID
		posts = append(posts, post)
	}
	return posts, nil
}

// GetScraperSettings reads the scraper settings document. A missing
// document yields disabled settings rather than an error.
func (c *Client) GetScraperSettings(ctx context.Context) (*models.ScraperSettings, error) {
	doc, err := c.client.Collection(settingsCollection).Doc(scraperSettingsDoc).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			slog.Warn("Scraper settings document not found, treating scraper as disabled")
			return &models.ScraperSettings{}, nil
		}
		return nil, fmt.Errorf("failed to get scraper settings: %w", err)
	}

	var settings models.ScraperSettings
	if err := doc.DataTo(&settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scraper settings: %w", err)
	}
	return &settings, nil
}

// UpdateLastRun stamps the settings document with the completion time of
// the latest attempted run.
func (c *Client) UpdateLastRun(ctx context.Context, t time.Time) error {
	docRef := c.client.Collection(settingsCollection).Doc(scraperSettingsDoc)
	_, err := docRef.Set(ctx, map[string]any{"lastRun": t}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to update lastRun: %w", err)
	}
	return nil
}

// AppendRunRecord appends an audit log entry. Records are never mutated.
func (c *Client) AppendRunRecord(ctx context.Context, record models.RunRecord) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	_, _, err := c.client.Collection(logsCollection).Add(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to append run record: %w", err)
	}
	return nil
}

// TrimRunRecords deletes the oldest audit entries once the log exceeds maxRecords.
func (c *Client) TrimRunRecords(ctx context.Context, maxRecords int) error {
	collectionRef := c.client.Collection(logsCollection)

	countSnapshot, err := collectionRef.NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get run record count: %w", err)
	}

	countValue, ok := countSnapshot["all"]
	if !ok {
		return fmt.Errorf("count aggregation result was invalid: 'all' key missing")
	}
	// The count arrives as a bare int64 or a wrapped protobuf value
	// depending on the client version.
	var current int
	switch val := countValue.(type) {
	case int64:
		current = int(val)
	case *firestorepb.Value:
		current = int(val.GetIntegerValue())
	default:
		return fmt.Errorf("count aggregation result has unexpected type %T", countValue)
	}

	if current <= maxRecords {
		return nil
	}
	numToDelete := current - maxRecords
	slog.Info("Trimming run records", "current", current, "max", maxRecords, "deleting", numToDelete)

	iter := collectionRef.
		OrderBy("timestamp", firestore.Asc).
		Limit(numToDelete).
		Documents(ctx)
	defer iter.Stop()

	bulkWriter := c.client.BulkWriter(ctx)
	defer bulkWriter.End()

	deleted := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to iterate run records for trimming: %w", err)
		}
		if _, delErr := bulkWriter.Delete(doc.Ref); delErr != nil {
			slog.Warn("Error queueing run record delete", "id", doc.Ref.ID, "error", delErr)
		}
		deleted++
	}

	if deleted > 0 {
		bulkWriter.Flush()
	}
	return nil
}

// LoadSession reads the remote copy of the browser session.
// Returns (nil, nil) when no session document exists.
func (c *Client) LoadSession(ctx context.Context) (*models.Session, error) {
	doc, err := c.client.Collection(sessionsCollection).Doc(linkedinSessionDoc).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session document: %w", err)
	}

	var stored struct {
		Cookies []models.Cookie `firestore:"cookies"`
		SavedAt time.Time       `firestore:"savedAt"`
	}
	if err := doc.DataTo(&stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session document: %w", err)
	}
	if len(stored.Cookies) == 0 {
		return nil, nil
	}
	return &models.Session{Cookies: stored.Cookies}, nil
}

// SaveSession overwrites the remote copy of the browser session.
func (c *Client) SaveSession(ctx context.Context, session *models.Session) error {
	docRef := c.client.Collection(sessionsCollection).Doc(linkedinSessionDoc)
	_, err := docRef.Set(ctx, map[string]any{
		"cookies": session.Cookies,
		"savedAt": time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to save session document: %w", err)
	}
	return nil
}
