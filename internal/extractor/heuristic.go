package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/rbarros/linkedin-engage-bot/internal/models"
)

// maxAncestorDepth bounds the climb from an interaction button to its
// comment container. Real comment actions sit well within this.
const maxAncestorDepth = 8

// interactionVocab matches like/reply button labels across the locales
// the account may be rendered in. Matched as whole words so e.g.
// "unlike" does not anchor a walk.
var interactionVocab = regexp.MustCompile(`(?i)\b(like|reply|curtir|gostei|responder|recomendar|me gusta|j'aime|répondre)\b`)

// extractHeuristicWalk anchors on interaction buttons instead of
// structural classes. It runs only when no structural selector group
// matched a visible container, which usually means the markup generation
// shifted under us.
func (e *Engine) extractHeuristicWalk(doc *goquery.Document) []models.Candidate {
	seen := make(map[*html.Node]bool)
	var containers []*html.Node

	doc.Find(`button, [role="button"]`).Each(func(_ int, btn *goquery.Selection) {
		label := btn.Text()
		if aria, ok := btn.Attr("aria-label"); ok {
			label += " " + aria
		}
		if !interactionVocab.MatchString(label) {
			return
		}
		if len(btn.Nodes) == 0 {
			return
		}

		boundary := climbToCommentBoundary(btn.Nodes[0])
		if boundary == nil || seen[boundary] {
			return
		}
		seen[boundary] = true
		containers = append(containers, boundary)
	})

	var candidates []models.Candidate
	for _, node := range containers {
		container := goquery.NewDocumentFromNode(node).Selection
		if !isVisible(container) {
			continue
		}

		candidate, found := models.Candidate{}, false
		for _, group := range e.selectors.CommentGroups {
			if candidate, found = structuredFields(container, group); found {
				break
			}
		}
		if !found {
			candidate, found = e.rawTextCandidate(container)
		}
		if !found {
			continue
		}
		candidate.ExtractionMethod = models.MethodFallbackHeuristic
		candidates = append(candidates, candidate)
	}
	return candidates
}

// climbToCommentBoundary walks up the ancestor chain looking for an
// element whose tag or class marks a comment-item boundary.
func climbToCommentBoundary(node *html.Node) *html.Node {
	current := node.Parent
	for depth := 0; depth < maxAncestorDepth && current != nil; depth++ {
		if isCommentBoundary(current) {
			return current
		}
		current = current.Parent
	}
	return nil
}

func isCommentBoundary(node *html.Node) bool {
	if node.Type != html.ElementNode {
		return false
	}
	if node.Data == "article" {
		return true
	}
	for _, attr := range node.Attr {
		if attr.Key == "class" && strings.Contains(strings.ToLower(attr.Val), "comment") {
			return true
		}
	}
	return false
}
