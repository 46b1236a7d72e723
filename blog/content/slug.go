// Package content holds the pure text transformations applied to post bodies:
// slugs, render normalization, table of contents, and reading time.
package content

import (
	"regexp"
	"strings"
)

var (
	nonSlugChars    = regexp.MustCompile(`[^\w\s-]`)
	spaceUnderscore = regexp.MustCompile(`[\s_]+`)
	repeatedHyphens = regexp.MustCompile(`-+`)
)

// Slugify turns a title into a URL-safe identifier.
// The result only holds lowercase word characters and single hyphens, and
// Slugify(Slugify(s)) == Slugify(s).
func Slugify(text string) string {
	s := strings.TrimSpace(strings.ToLower(text))
	s = nonSlugChars.ReplaceAllString(s, "")
	s = spaceUnderscore.ReplaceAllString(s, "-")
	s = repeatedHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
