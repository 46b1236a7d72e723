package query

import (
	"slices"
	"strconv"
	"strings"

	"github.com/dfryer1193/artblog/blog/domain"
)

type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Facets summarizes a post collection for the filter controls.
type Facets struct {
	Years      []string   `json:"years"`
	Tags       []TagCount `json:"tags"`
	Categories []Category `json:"categories"`
}

// ComputeFacets counts over the published posts of the full collection, never a
// filtered subset.
func ComputeFacets(posts []*domain.Post) Facets {
	published := Published(posts)
	return Facets{
		Years:      Years(published),
		Tags:       TagCounts(published),
		Categories: Categories(),
	}
}

// Years lists the distinct publication years, newest first.
func Years(posts []*domain.Post) []string {
	seen := make(map[string]struct{})
	years := make([]string, 0)
	for _, p := range posts {
		y := p.Year()
		if y == "" {
			continue
		}
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		years = append(years, y)
	}

	slices.SortFunc(years, func(a, b string) int {
		ya, _ := strconv.Atoi(a)
		yb, _ := strconv.Atoi(b)
		return yb - ya
	})
	return years
}

// TagCounts counts tag occurrences, most used first, ties by name.
func TagCounts(posts []*domain.Post) []TagCount {
	counts := make(map[string]int)
	for _, p := range posts {
		for _, tag := range p.Tags {
			counts[tag]++
		}
	}

	out := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, TagCount{Tag: tag, Count: n})
	}
	slices.SortFunc(out, func(a, b TagCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Tag, b.Tag)
	})
	return out
}
