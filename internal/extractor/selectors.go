package extractor

import (
	"encoding/json"
	"fmt"
	"os"
)

// SelectorConfig holds the ordered structural selector groups the
// extraction engine tries against a rendered comment thread. LinkedIn
// ships several generations of comment markup depending on locale and
// account state, so each group describes one known generation.
type SelectorConfig struct {
	CommentGroups []CommentGroup `json:"comment_groups"`
}

// CommentGroup is one structural pattern: a container selector plus the
// nested sub-selectors for the fields extracted from each container.
type CommentGroup struct {
	Container   string `json:"container"`
	AuthorName  string `json:"author_name"`
	AuthorLink  string `json:"author_link"`
	AuthorImage string `json:"author_image"`
	Text        string `json:"text"`
}

// LoadSelectors loads the selector configuration from a JSON file.
func LoadSelectors(path string) (SelectorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SelectorConfig{}, fmt.Errorf("failed to read selector config file: %w", err)
	}
	return LoadSelectorsFromBytes(data)
}

// LoadSelectorsFromBytes parses selector configuration from raw JSON bytes.
func LoadSelectorsFromBytes(data []byte) (SelectorConfig, error) {
	var config SelectorConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return SelectorConfig{}, fmt.Errorf("failed to parse selector config JSON: %w", err)
	}
	if len(config.CommentGroups) == 0 {
		return SelectorConfig{}, fmt.Errorf("selector config has no comment groups")
	}
	return config, nil
}

// DefaultSelectors returns the fallback configuration if no JSON file is
// loaded. The embedded selectors.json should be preferred.
func DefaultSelectors() SelectorConfig {
	return SelectorConfig{
		CommentGroups: []CommentGroup{
			{
				Container:   "article.comments-comment-entity",
				AuthorName:  ".comments-comment-meta__description-title",
				AuthorLink:  "a.comments-comment-meta__description-container",
				AuthorImage: ".comments-comment-meta__actor img",
				Text:        ".comments-comment-item__main-content",
			},
			{
				Container:   "article.comments-comment-item",
				AuthorName:  ".comments-post-meta__name-text",
				AuthorLink:  "a.comments-post-meta__actor-link",
				AuthorImage: ".comments-post-meta__actor-image img",
				Text:        ".comments-comment-item-content-body",
			},
			{
				Container:   "div.comments-comment-item",
				AuthorName:  ".comments-post-meta__name span[aria-hidden=\"true\"]",
				AuthorLink:  "a.comments-post-meta__actor-link",
				AuthorImage: "img.EntityPhoto-circle-2",
				Text:        "span.comments-comment-item__main-content",
			},
		},
	}
}
