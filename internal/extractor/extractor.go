// Package extractor turns a rendered comment-thread DOM into structured
// comment candidates. It is pure string/DOM-tree processing: no browser
// handle is needed, so the whole cascade is testable against captured
// HTML fixtures.
//
// Three strategies run in order, each only if the previous one produced
// zero candidates:
//
//  1. structural: known selector patterns for comment containers
//  2. heuristic walk: anchor on like/reply buttons, climb to a
//     comment-boundary ancestor
//  3. raw text: per-container line heuristics when no name/text
//     sub-selectors match
//
// LinkedIn's markup is undocumented and changes without notice; a single
// selector set breaks silently, so the engine degrades through
// increasingly generic signal instead of failing outright.
package extractor

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/rbarros/linkedin-engage-bot/internal/models"
)

type Engine struct {
	selectors SelectorConfig
}

func New(selectors SelectorConfig) *Engine {
	return &Engine{selectors: selectors}
}

// Extract runs the strategy cascade over the given page HTML.
// A (nil, nil) result means the page genuinely yielded no candidates;
// the caller decides whether to snapshot the page for diagnosis.
func (e *Engine) Extract(pageHTML string) ([]models.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page HTML: %w", err)
	}

	strategies := []struct {
		name string
		fn   func(doc *goquery.Document) []models.Candidate
	}{
		{"structural", e.extractStructural},
		{"heuristic_walk", e.extractHeuristicWalk},
	}

	for _, strategy := range strategies {
		candidates := strategy.fn(doc)
		if len(candidates) > 0 {
			slog.Debug("Extraction strategy produced candidates", "strategy", strategy.name, "count", len(candidates))
			return dedupe(candidates), nil
		}
		slog.Debug("Extraction strategy produced no candidates, falling through", "strategy", strategy.name)
	}
	return nil, nil
}

// extractStructural tries each selector group in order and commits to the
// first one whose container selector matches at least one visible element.
func (e *Engine) extractStructural(doc *goquery.Document) []models.Candidate {
	for _, group := range e.selectors.CommentGroups {
		containers := doc.Find(group.Container).FilterFunction(func(_ int, s *goquery.Selection) bool {
			return isVisible(s)
		})
		if containers.Length() == 0 {
			continue
		}

		var candidates []models.Candidate
		containers.Each(func(_ int, container *goquery.Selection) {
			if candidate, ok := e.candidateFromContainer(container, group); ok {
				candidates = append(candidates, candidate)
			}
		})
		return candidates
	}
	return nil
}

// candidateFromContainer applies a group's sub-selectors to one container.
// When the structured name/text pair is missing it falls back to the
// raw-text heuristic for that container.
func (e *Engine) candidateFromContainer(container *goquery.Selection, group CommentGroup) (models.Candidate, bool) {
	candidate, ok := structuredFields(container, group)
	if !ok {
		return e.rawTextCandidate(container)
	}
	candidate.ExtractionMethod = models.MethodStandard
	return candidate, true
}

// structuredFields extracts name/text/avatar/link via a group's
// sub-selectors. A container only yields a candidate if both a name and
// a text element are found.
func structuredFields(container *goquery.Selection, group CommentGroup) (models.Candidate, bool) {
	name := strings.TrimSpace(container.Find(group.AuthorName).First().Text())
	text := strings.TrimSpace(container.Find(group.Text).First().Text())
	if name == "" || text == "" {
		return models.Candidate{}, false
	}

	candidate := models.Candidate{
		Text:       text,
		AuthorName: name,
	}
	if src, ok := container.Find(group.AuthorImage).First().Attr("src"); ok {
		candidate.AuthorImageURL = strings.TrimSpace(src)
	}
	if href, ok := container.Find(group.AuthorLink).First().Attr("href"); ok {
		candidate.AuthorProfileURL = strings.TrimSpace(href)
	}
	fillID(&candidate, container)
	return candidate, true
}

// rawTextCandidate builds a candidate from a container's visible text
// alone. Used when the structured sub-selectors found no name/text pair.
func (e *Engine) rawTextCandidate(container *goquery.Selection) (models.Candidate, bool) {
	if len(container.Nodes) == 0 {
		return models.Candidate{}, false
	}
	name, text, ok := parseRawText(container.Nodes[0])
	if !ok {
		return models.Candidate{}, false
	}

	candidate := models.Candidate{
		Text:             text,
		AuthorName:       name,
		ExtractionMethod: models.MethodFallbackHeuristic,
	}
	if src, ok := container.Find("img").First().Attr("src"); ok {
		candidate.AuthorImageURL = strings.TrimSpace(src)
	}
	fillID(&candidate, container)
	return candidate, true
}

// fillID resolves the candidate's stable identifier from container
// attributes, or generates a fallback. Generated IDs are random and not
// stable across runs, so duplicate detection for them is best-effort.
func fillID(candidate *models.Candidate, container *goquery.Selection) {
	for _, attr := range []string{"data-id", "data-urn", "id"} {
		if v, ok := container.Attr(attr); ok {
			v = strings.TrimSpace(v)
			if strings.Contains(v, "comment") {
				candidate.ID = v
				return
			}
		}
	}
	candidate.ID = fallbackID()
	candidate.GeneratedID = true
}

func fallbackID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return "gen-" + hex.EncodeToString(b)
}

func dedupe(candidates []models.Candidate) []models.Candidate {
	seen := make(map[string]bool, len(candidates))
	result := candidates[:0]
	for _, c := range candidates {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		result = append(result, c)
	}
	return result
}

// isVisible approximates the in-page visibility check against static
// HTML: hidden attributes and inline display:none are the only signals
// available without a layout engine.
func isVisible(s *goquery.Selection) bool {
	if _, hidden := s.Attr("hidden"); hidden {
		return false
	}
	if aria, ok := s.Attr("aria-hidden"); ok && aria == "true" {
		return false
	}
	if style, ok := s.Attr("style"); ok && strings.Contains(strings.ReplaceAll(style, " ", ""), "display:none") {
		return false
	}
	return strings.TrimSpace(s.Text()) != ""
}
