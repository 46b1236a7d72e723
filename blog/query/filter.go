// Package query selects, orders, and summarizes posts for the public read paths.
package query

import (
	"slices"
	"strings"

	"github.com/dfryer1193/artblog/blog/domain"
)

// Criteria narrows a post list. Empty fields do not constrain; set fields combine by AND.
type Criteria struct {
	Query    string `json:"q,omitempty"`
	Year     string `json:"year,omitempty"`
	Tag      string `json:"tag,omitempty"`
	Category string `json:"cat,omitempty"`
}

// IsZero reports whether no criterion is set.
func (c Criteria) IsZero() bool {
	return strings.TrimSpace(c.Query) == "" && c.Year == "" && c.Tag == "" && c.Category == ""
}

// Matches applies every set criterion to p. Drafts are not considered here.
func (c Criteria) Matches(p *domain.Post) bool {
	if c.Year != "" && p.Year() != c.Year {
		return false
	}
	if c.Tag != "" && !p.HasTag(c.Tag) {
		return false
	}
	if c.Category != "" && !MatchesCategory(p, c.Category) {
		return false
	}

	q := strings.ToLower(strings.TrimSpace(c.Query))
	if q == "" {
		return true
	}
	return strings.Contains(searchText(p), q)
}

func searchText(p *domain.Post) string {
	return strings.ToLower(strings.Join([]string{
		p.Title,
		p.Description,
		strings.Join(p.Tags, " "),
		p.Body,
	}, " "))
}

// Published drops drafts, keeping the relative order of the rest.
func Published(posts []*domain.Post) []*domain.Post {
	out := make([]*domain.Post, 0, len(posts))
	for _, p := range posts {
		if !p.Draft {
			out = append(out, p)
		}
	}
	return out
}

// Filter returns the published posts matching c, in input order.
func Filter(posts []*domain.Post, c Criteria) []*domain.Post {
	out := make([]*domain.Post, 0, len(posts))
	for _, p := range posts {
		if p.Draft || !c.Matches(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// SortByDate orders posts newest first in place. Posts whose date does not parse
// sort as the epoch; equal dates keep their relative order.
func SortByDate(posts []*domain.Post) {
	slices.SortStableFunc(posts, func(a, b *domain.Post) int {
		ka, kb := dateKey(a), dateKey(b)
		switch {
		case ka > kb:
			return -1
		case ka < kb:
			return 1
		}
		return 0
	})
}

func dateKey(p *domain.Post) int64 {
	t, ok := p.PubTime()
	if !ok {
		return 0
	}
	return t.UnixMilli()
}
