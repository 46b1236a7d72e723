package domain

import (
	"context"
	"time"
)

// DateLayout is the calendar date format used for PubDate.
const DateLayout = "2006-01-02"

// Field is an untyped frontmatter entry that the typed schema does not know about.
// Extras are carried through edits so unknown keys survive a round trip.
type Field struct {
	Key   string
	Value any
}

// Post represents a blog post.
// ID doubles as the slug; it is derived from the title once at creation and never changes.
type Post struct {
	ID          string
	Title       string
	Description string
	PubDate     string
	Tags        []string
	Draft       bool
	Body        string

	// Path is the file path within a file-backed source. Empty for document stores.
	Path string
	// Version is the optimistic concurrency token of the backing store (a content SHA for files).
	Version string
	Extra   []Field

	UpdatedAt time.Time
	CreatedAt time.Time
}

// PubTime parses PubDate. ok is false when the date is missing or malformed.
func (p *Post) PubTime() (t time.Time, ok bool) {
	t, err := ParseDate(p.PubDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Year returns the four digit year of PubDate, or "" if it cannot be parsed.
func (p *Post) Year() string {
	t, ok := p.PubTime()
	if !ok {
		return ""
	}
	return t.Format("2006")
}

// HasTag reports whether the post carries tag exactly.
func (p *Post) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ParseDate accepts a calendar date, optionally followed by a time component.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// PostStore is any backend that owns post records: a file repository, a document
// database, or the local read replica.
type PostStore interface {
	// ListPosts returns every post, drafts included.
	ListPosts(ctx context.Context) ([]*Post, error)
	// GetPost returns ErrNotFound when there is no post with the given ID.
	GetPost(ctx context.Context, id string) (*Post, error)
	// CreatePost returns ErrConflict when a post with the same ID already exists.
	CreatePost(ctx context.Context, p *Post, message string) error
	// UpdatePost replaces a post. A non-empty p.Version must match the stored one.
	UpdatePost(ctx context.Context, p *Post, message string) error
	DeletePost(ctx context.Context, p *Post, message string) error
}

// PostRepository is the read replica the public paths are served from.
type PostRepository interface {
	UpsertPost(ctx context.Context, p *Post) error
	GetPost(ctx context.Context, id string) (*Post, error)
	GetPostByPath(ctx context.Context, path string) (*Post, error)
	ListPosts(ctx context.Context) ([]*Post, error)
	GetLatestUpdatedTime(ctx context.Context) (time.Time, error)
	DeletePost(ctx context.Context, id string) error
}
