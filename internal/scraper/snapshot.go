package scraper

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

var snapshotNameRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// SaveSnapshot writes the raw page HTML to disk for offline diagnosis of
// extraction misses. Returns the written path.
func SaveSnapshot(dir, postID, pageHTML string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create snapshot dir %s: %w", dir, err)
	}

	name := fmt.Sprintf("%s_%s.html",
		snapshotNameRegex.ReplaceAllString(postID, "_"),
		time.Now().Format("20060102T150405"))
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, []byte(pageHTML), 0o644); err != nil {
		return "", fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	return path, nil
}
