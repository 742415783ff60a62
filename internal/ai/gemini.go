package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/rbarros/linkedin-engage-bot/internal/models"
)

// Client drafts suggested replies to freshly discovered comments. The
// draft is a starting point for the dashboard user, never auto-posted.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient returns (nil, nil) when no API key is provided; a nil
// *Client degrades gracefully to no drafting.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

func (c *Client) DraftReply(ctx context.Context, comment models.Comment) (string, error) {
	if c == nil || c.client == nil {
		return "", nil
	}

	prompt := fmt.Sprintf(`You manage a professional LinkedIn presence.
Someone commented on a post about "%s":

%s wrote: %q

Draft a short reply (1-3 sentences) in the same language as the comment.
Be warm and specific to what they said. No hashtags, no emoji spam,
no generic "thanks for sharing". Output only the reply text.`,
		comment.Topic, comment.AuthorName, comment.Text)

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.7),
	})
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil ||
		len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response candidates from gemini")
	}

	return strings.TrimSpace(result.Candidates[0].Content.Parts[0].Text), nil
}
