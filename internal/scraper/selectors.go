package scraper

// LinkedIn navigation selectors. These are isolated here because the
// front-end changes without notice; update these when navigation breaks.
// Comment-content selectors live in internal/extractor.
const (
	feedURL  = "https://www.linkedin.com/feed/"
	loginURL = "https://www.linkedin.com/login"

	// Present only on logged-in pages; its absence after navigation means
	// the session is missing or stale.
	authMarker = `#global-nav`

	// Affordance showing the comment count under a post; clicking it
	// opens the comment thread on some layouts.
	commentCountButton = `button[aria-label*="comment"], .social-details-social-counts__comments button`
	commentCountLabel  = `.social-details-social-counts__comments`

	// "Load more comments" affordances across markup generations.
	loadMoreButton = `button.comments-comments-list__load-more-comments-button, button.show-more-comments__button`
)
