package extractor

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Raw-text parsing: last line of defense when neither structural nor
// heuristic sub-selectors can find a name/text pair. The container's
// visible text is split into lines; the first line is treated as the
// author, the rest is filtered for UI chrome and joined into the body.

// authorPlaceholders are label words the UI renders instead of a real
// name (e.g. "Autor(a) da publicação" on the post owner's own comment
// widget). A first line starting with one of these means the DOM walk
// anchored on a UI label rather than a comment, so the whole candidate
// is discarded. This is an explicit exclusion rule, not a bug.
var authorPlaceholders = []string{"author", "autor", "auteur"}

var (
	// "Jane Doe · 2nd", "João Silva • 3º+"
	degreeSuffixRegex = regexp.MustCompile(`\s*[·•]\s*\d+(?:st|nd|rd|th|º|°)?\+?\s*$`)
	// "(She/Her)", "(Ele/Dele)"
	parentheticalSuffixRegex = regexp.MustCompile(`\s*\([^()]*\)\s*$`)

	degreeMarkerRegex  = regexp.MustCompile(`^\d+(?:st|nd|rd|th|º|°)\+?$`)
	bareNumberRegex    = regexp.MustCompile(`^[\d.,]+$`)
	relativeTimeRegex  = regexp.MustCompile(`^\d+\s?(?:s|m|h|d|w|mo|y|min|sem)\.?$`)
	relativeTimeTokens = map[string]bool{
		"now": true, "agora": true, "ahora": true,
		"edited": true, "editado": true, "editada": true,
		"(edited)": true, "(editado)": true,
	}
)

// chromeKeywords are short standalone UI labels that leak into the
// container text. Matched by full-line equality, never as substrings of
// real comment text.
var chromeKeywords = map[string]bool{
	"like": true, "reply": true, "translate": true,
	"see more": true, "load more": true, "show more": true,
	"see translation": true, "load more comments": true,
	"show more replies": true, "see previous comments": true,
	"curtir": true, "gostei": true, "responder": true, "traduzir": true,
	"ver mais": true, "carregar mais": true, "ver tradução": true,
	"exibir mais": true, "carregar mais comentários": true,
	"me gusta": true, "ver más": true,
}

// parseRawText extracts an (author, body) pair from a container's
// visible text, or reports that the container holds no usable comment.
func parseRawText(node *html.Node) (string, string, bool) {
	lines := visibleLines(node)
	if len(lines) == 0 {
		return "", "", false
	}

	author := cleanAuthorLine(lines[0])
	if author == "" || isAuthorPlaceholder(author) {
		return "", "", false
	}

	var surviving []string
	for _, line := range lines[1:] {
		if isChromeLine(line) {
			continue
		}
		surviving = append(surviving, line)
	}

	body := strings.TrimSpace(strings.Join(surviving, " "))
	if body == "" || isAuthorPlaceholder(body) {
		return "", "", false
	}
	return author, body, true
}

func cleanAuthorLine(line string) string {
	line = degreeSuffixRegex.ReplaceAllString(line, "")
	line = parentheticalSuffixRegex.ReplaceAllString(line, "")
	return strings.TrimSpace(line)
}

func isAuthorPlaceholder(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	for _, placeholder := range authorPlaceholders {
		if strings.HasPrefix(lower, placeholder) {
			return true
		}
	}
	return false
}

// isChromeLine reports whether a line is UI chrome rather than comment
// text: a lone bullet or degree marker, a recognized UI keyword, a bare
// number, or a relative-time token.
func isChromeLine(line string) bool {
	trimmed := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "…"))
	if trimmed == "" {
		return true
	}
	lower := strings.ToLower(trimmed)

	if trimmed == "·" || trimmed == "•" {
		return true
	}
	if degreeMarkerRegex.MatchString(lower) {
		return true
	}
	if chromeKeywords[lower] {
		return true
	}
	if bareNumberRegex.MatchString(trimmed) {
		return true
	}
	if relativeTimeRegex.MatchString(lower) || relativeTimeTokens[lower] {
		return true
	}
	return false
}

// blockTags force a line break when flattening a DOM subtree to text.
// Buttons are included so action labels become standalone lines and get
// caught by the chrome filter instead of merging into the body.
var blockTags = map[string]bool{
	"p": true, "div": true, "li": true, "br": true, "button": true, "section": true,
	"article": true, "header": true, "footer": true, "ul": true,
	"ol": true, "blockquote": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// visibleLines flattens a subtree into trimmed, non-empty text lines,
// breaking on block-level elements and skipping hidden subtrees.
func visibleLines(root *html.Node) []string {
	var lines []string
	var current strings.Builder

	flush := func() {
		if line := strings.TrimSpace(current.String()); line != "" {
			lines = append(lines, line)
		}
		current.Reset()
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if text := strings.TrimSpace(n.Data); text != "" {
				if current.Len() > 0 {
					current.WriteByte(' ')
				}
				current.WriteString(text)
			}
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" || isHiddenNode(n) {
				return
			}
			if blockTags[n.Data] {
				flush()
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
		if n.Type == html.ElementNode && blockTags[n.Data] {
			flush()
		}
	}
	walk(root)
	flush()
	return lines
}

func isHiddenNode(n *html.Node) bool {
	for _, attr := range n.Attr {
		switch attr.Key {
		case "hidden":
			return true
		case "aria-hidden":
			if attr.Val == "true" {
				return true
			}
		case "style":
			if strings.Contains(strings.ReplaceAll(attr.Val, " ", ""), "display:none") {
				return true
			}
		}
	}
	return false
}
