package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rbarros/linkedin-engage-bot/internal/processor"
)

func TestNotifyRunSummary_HealthyRun(t *testing.T) {
	var payload discordWebhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST request, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("Failed to decode request body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := New(server.URL)
	summary := processor.RunSummary{
		PostsScanned:    3,
		NewComments:     5,
		UpdatedComments: 12,
		Duration:        42 * time.Second,
	}
	if err := client.NotifyRunSummary(context.Background(), summary); err != nil {
		t.Fatalf("NotifyRunSummary() returned unexpected error: %v", err)
	}

	if len(payload.Embeds) != 1 {
		t.Fatalf("Expected 1 embed, got %d", len(payload.Embeds))
	}
	embed := payload.Embeds[0]
	if embed.Color != colorHealthyRun {
		t.Errorf("Color = %d, want healthy color %d", embed.Color, colorHealthyRun)
	}
	if len(embed.Fields) != 3 {
		t.Fatalf("Expected 3 fields, got %d", len(embed.Fields))
	}
	if embed.Fields[1].Name != "New comments" || embed.Fields[1].Value != "5" {
		t.Errorf("New comments field = %+v", embed.Fields[1])
	}
}

func TestNotifyRunSummary_DegradedRunCarriesErrors(t *testing.T) {
	var payload discordWebhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("Failed to decode request body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	summary := processor.RunSummary{
		PostsScanned: 2,
		PostsFailed:  1,
		Errors:       []string{"navigation timeout on p2"},
	}
	if err := New(server.URL).NotifyRunSummary(context.Background(), summary); err != nil {
		t.Fatalf("NotifyRunSummary() returned unexpected error: %v", err)
	}

	embed := payload.Embeds[0]
	if embed.Color != colorDegradedRun {
		t.Errorf("Color = %d, want degraded color %d", embed.Color, colorDegradedRun)
	}
	if !strings.Contains(embed.Description, "1 failed") {
		t.Errorf("Description = %q, want failed-post count", embed.Description)
	}
	last := embed.Fields[len(embed.Fields)-1]
	if last.Name != "Errors" || !strings.Contains(last.Value, "navigation timeout") {
		t.Errorf("Errors field = %+v", last)
	}
}

func TestNotifyRunSummary_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "invalid webhook token"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	err := New(server.URL).NotifyRunSummary(context.Background(), processor.RunSummary{})
	if err == nil {
		t.Fatal("NotifyRunSummary() returned nil error for a 401 response")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error = %v, want the status code surfaced", err)
	}
}

func TestNotifyRunSummary_UnconfiguredIsNoOp(t *testing.T) {
	if err := New("").NotifyRunSummary(context.Background(), processor.RunSummary{}); err != nil {
		t.Errorf("NotifyRunSummary() = %v, want nil for an empty webhook URL", err)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short unchanged", "hello", 10, "hello"},
		{"exact unchanged", "hello", 5, "hello"},
		{"truncated", "hello world", 8, "hello…"},
		{"multibyte not split", "olá você", 7, "olá…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.max)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
			if len(got) > tt.max {
				t.Errorf("truncate result %q is %d bytes, exceeds max %d", got, len(got), tt.max)
			}
		})
	}
}
