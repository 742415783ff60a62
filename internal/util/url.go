package util

import (
	"fmt"
	"strings"
)

// PostURL returns the canonical feed URL for a platform post identifier.
// Accepts a full URL, a bare activity URN, or a bare numeric activity ID.
func PostURL(platformID string) string {
	id := strings.TrimSpace(platformID)
	if id == "" {
		return ""
	}
	if strings.HasPrefix(id, "http://") || strings.HasPrefix(id, "https://") {
		return id
	}
	if !strings.HasPrefix(id, "urn:") {
		id = "urn:li:activity:" + id
	}
	return fmt.Sprintf("https://www.linkedin.com/feed/update/%s/", id)
}
