package query

import (
	"slices"

	"github.com/dfryer1193/artblog/blog/domain"
)

// MaxRelated caps the number of related posts shown under an article.
const MaxRelated = 3

// Related ranks the other posts by how many tags they share with current.
// Posts sharing nothing are left out. Ties go to the newer post.
func Related(current *domain.Post, all []*domain.Post) []*domain.Post {
	tags := make(map[string]struct{}, len(current.Tags))
	for _, t := range current.Tags {
		tags[t] = struct{}{}
	}

	type scored struct {
		post  *domain.Post
		score int
		date  int64
	}

	candidates := make([]scored, 0)
	for _, p := range all {
		if p.ID == current.ID {
			continue
		}
		score := sharedTags(tags, p.Tags)
		if score == 0 {
			continue
		}
		candidates = append(candidates, scored{post: p, score: score, date: dateKey(p)})
	}

	slices.SortStableFunc(candidates, func(a, b scored) int {
		if a.score != b.score {
			return b.score - a.score
		}
		switch {
		case a.date > b.date:
			return -1
		case a.date < b.date:
			return 1
		}
		return 0
	})

	out := make([]*domain.Post, 0, min(len(candidates), MaxRelated))
	for _, c := range candidates {
		if len(out) == MaxRelated {
			break
		}
		out = append(out, c.post)
	}
	return out
}

// sharedTags counts distinct tags of candidate that are in tags.
func sharedTags(tags map[string]struct{}, candidate []string) int {
	seen := make(map[string]struct{}, len(candidate))
	n := 0
	for _, t := range candidate {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := tags[t]; ok {
			n++
		}
	}
	return n
}
