package content

import (
	"regexp"
	"strings"
)

// TOCWordThreshold is the body length, in words, a post must exceed before its
// table of contents is shown.
const TOCWordThreshold = 800

var (
	headingLine     = regexp.MustCompile(`^(#{2,3}) (.+)$`)
	inlineMarkers   = regexp.MustCompile("[*_`~]")
	nonAnchorChars  = regexp.MustCompile(`[^\w\s-]`)
	whitespaceChars = regexp.MustCompile(`\s+`)
)

// Heading is one entry of a table of contents.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	ID    string `json:"id"`
}

// ExtractTOC collects level 2 and 3 headings in document order.
// Repeated headings share the same ID.
func ExtractTOC(body string) []Heading {
	var headings []Heading
	for _, line := range strings.Split(body, "\n") {
		m := headingLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}

		text := HeadingText(m[2])
		if text == "" {
			continue
		}

		headings = append(headings, Heading{
			Level: len(m[1]),
			Text:  text,
			ID:    AnchorID(text),
		})
	}
	return headings
}

// HeadingText strips inline emphasis and code markers from a heading.
func HeadingText(raw string) string {
	return strings.TrimSpace(inlineMarkers.ReplaceAllString(raw, ""))
}

// AnchorID derives a heading anchor from its display text.
func AnchorID(text string) string {
	id := strings.ToLower(text)
	id = nonAnchorChars.ReplaceAllString(id, "")
	id = strings.TrimSpace(id)
	return whitespaceChars.ReplaceAllString(id, "-")
}

// ShowTOC reports whether body is long enough to carry a table of contents.
func ShowTOC(body string) bool {
	return WordCount(body) > TOCWordThreshold
}
