package query

import (
	"strings"

	"github.com/dfryer1193/artblog/blog/domain"
)

// Category is a named group of tags offered as a coarse filter.
type Category struct {
	Label string   `json:"label"`
	Tags  []string `json:"tags"`
}

var categories = []Category{
	{Label: "Process", Tags: []string{"process", "behind-the-scenes", "workflow"}},
	{Label: "Tools", Tags: []string{"code", "tools", "python", "open-source", "tutorial"}},
	{Label: "Theory", Tags: []string{"theory", "research", "urbanism", "ecology"}},
	{Label: "Teaching", Tags: []string{"teaching", "workshop", "education", "famu"}},
	{Label: "News", Tags: []string{"news", "exhibition", "festival", "announcement"}},
}

// Categories returns a copy of the category table in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	for i, c := range categories {
		out[i] = Category{Label: c.Label, Tags: append([]string(nil), c.Tags...)}
	}
	return out
}

// LookupCategory finds a category by its exact label.
func LookupCategory(label string) (Category, bool) {
	for _, c := range categories {
		if c.Label == label {
			return c, true
		}
	}
	return Category{}, false
}

// MatchesCategory reports whether any of the post's tags, lowercased, belongs to the
// named category. Unknown labels match nothing.
func MatchesCategory(p *domain.Post, label string) bool {
	cat, ok := LookupCategory(label)
	if !ok {
		return false
	}
	for _, tag := range p.Tags {
		lower := strings.ToLower(tag)
		for _, ct := range cat.Tags {
			if ct == lower {
				return true
			}
		}
	}
	return false
}
