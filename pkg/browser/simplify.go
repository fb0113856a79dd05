package browser

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// interactiveTags are the element kinds surfaced to the reasoner.
var interactiveTags = map[string]struct{}{
	"a":        {},
	"button":   {},
	"input":    {},
	"textarea": {},
	"select":   {},
}

const (
	// agentIDAttr tags interactive elements in the live page so actions can
	// target them by a stable short identifier.
	agentIDAttr = "agent-id"

	// elementTextLimit caps the label shown per element.
	elementTextLimit = 100
)

// Simplify parses page HTML, tags every interactive element with a sequential
// agent-id attribute, and returns a one-line-per-element listing for the
// reasoner plus the rewritten HTML to apply back to the live page.
//
// Identifiers are 1-based and assigned in document order, so they stay stable
// between the listing and the tagged markup.
func Simplify(rawHTML string) (elements string, tagged string, err error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	var lines []string
	nextID := 1
	tagInteractive(doc, &lines, &nextID)

	var builder strings.Builder
	if err := html.Render(&builder, doc); err != nil {
		return "", "", fmt.Errorf("failed to render tagged HTML: %w", err)
	}

	return strings.Join(lines, "\n"), builder.String(), nil
}

func tagInteractive(n *html.Node, lines *[]string, nextID *int) {
	if n.Type == html.ElementNode {
		if _, ok := interactiveTags[strings.ToLower(n.Data)]; ok {
			id := fmt.Sprintf("%d", *nextID)
			*nextID++
			setAttr(n, agentIDAttr, id)

			text := elementText(n)
			// Truncate on rune boundaries so multibyte labels stay valid UTF-8.
			if runes := []rune(text); len(runes) > elementTextLimit {
				text = string(runes[:elementTextLimit])
			}
			*lines = append(*lines, fmt.Sprintf("[%s] <%s> %s", id, strings.ToLower(n.Data), text))
		}
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		tagInteractive(child, lines, nextID)
	}
}

// elementText collects the element's visible text, falling back to
// aria-label, placeholder, then name when the element has no text content.
func elementText(n *html.Node) string {
	var parts []string
	collectText(n, &parts)
	text := strings.Join(parts, " ")
	if text != "" {
		return text
	}

	for _, attr := range []string{"aria-label", "placeholder", "name"} {
		if v := getAttr(n, attr); v != "" {
			return v
		}
	}
	return ""
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		if trimmed := strings.TrimSpace(n.Data); trimmed != "" {
			*parts = append(*parts, trimmed)
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, parts)
	}
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, attr := range n.Attr {
		if attr.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
