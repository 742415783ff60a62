package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rbarros/linkedin-engage-bot/internal/processor"
)

const (
	colorHealthyRun  = 3066993  // #2ECC71
	colorDegradedRun = 16753920 // #FFA500
)

// Client posts per-run summaries to a Discord webhook so new engagement
// is visible without opening the dashboard.
type Client struct {
	webhookURL string
	client     *http.Client
}

func New(webhookURL string) *Client {
	return &Client{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type discordWebhookPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
}

// NotifyRunSummary sends one embed describing the finished run. A
// configured-but-unreachable webhook is the caller's problem to log; an
// unconfigured webhook is a silent no-op.
func (c *Client) NotifyRunSummary(ctx context.Context, summary processor.RunSummary) error {
	if c == nil || c.webhookURL == "" {
		return nil
	}

	color := colorHealthyRun
	description := "Comment scan completed"
	if summary.PostsFailed > 0 {
		color = colorDegradedRun
		description = fmt.Sprintf("Comment scan completed with %d failed posts", summary.PostsFailed)
	}

	embed := discordEmbed{
		Title:       "LinkedIn engagement scan",
		Description: description,
		Timestamp:   time.Now().Format(time.RFC3339),
		Color:       color,
		Fields: []discordEmbedField{
			{Name: "Posts scanned", Value: fmt.Sprintf("%d", summary.PostsScanned), Inline: true},
			{Name: "New comments", Value: fmt.Sprintf("%d", summary.NewComments), Inline: true},
			{Name: "Updated", Value: fmt.Sprintf("%d", summary.UpdatedComments), Inline: true},
		},
	}
	if len(summary.Errors) > 0 {
		embed.Fields = append(embed.Fields, discordEmbedField{
			Name:  "Errors",
			Value: truncate(strings.Join(summary.Errors, "\n"), 1000),
		})
	}

	payload := discordWebhookPayload{Embeds: []discordEmbed{embed}}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(raw))
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max - len("…")
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
