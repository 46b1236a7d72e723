package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dfryer1193/artblog/blog/content"
	"github.com/dfryer1193/artblog/blog/domain"
	"github.com/dfryer1193/artblog/blog/query"
)

const defaultRenderCacheTTL = 24 * time.Hour

// PostReader is the read side of a post store.
type PostReader interface {
	ListPosts(ctx context.Context) ([]*domain.Post, error)
	GetPost(ctx context.Context, id string) (*domain.Post, error)
}

// RenderCache keeps rendered post bodies between requests.
type RenderCache interface {
	Get(ctx context.Context, key string, v any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
}

// ListResult is one page of the public post list.
type ListResult struct {
	Posts    []*domain.Post
	Facets   query.Facets
	Criteria query.Criteria
	// Query is the canonical query string for Criteria, without the leading "?".
	Query string
}

// PostView is a published post prepared for its detail page.
type PostView struct {
	Post           *domain.Post
	HTML           string
	Snippet        string
	TOC            []content.Heading
	ReadingMinutes int
	Related        []*domain.Post
	// RenderError is set when the body could not be rendered. The rest of the view is still usable.
	RenderError error
}

type renderedPost struct {
	HTML    string `json:"html"`
	Snippet string `json:"snippet"`
}

// PostService serves the public read paths. Drafts never leave it.
type PostService struct {
	posts    PostReader
	markdown MarkdownRenderer
	cache    RenderCache
	cacheTTL time.Duration
}

// NewPostService creates a PostService. cache may be nil.
func NewPostService(posts PostReader, markdown MarkdownRenderer, cache RenderCache) *PostService {
	return &PostService{
		posts:    posts,
		markdown: markdown,
		cache:    cache,
		cacheTTL: defaultRenderCacheTTL,
	}
}

func (s *PostService) published(ctx context.Context) ([]*domain.Post, error) {
	all, err := s.posts.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	published := query.Published(all)
	query.SortByDate(published)
	return published, nil
}

// List filters the published posts by c. Facets are computed over every published post.
func (s *PostService) List(ctx context.Context, c query.Criteria) (*ListResult, error) {
	published, err := s.published(ctx)
	if err != nil {
		return nil, err
	}

	return &ListResult{
		Posts:    query.Filter(published, c),
		Facets:   query.ComputeFacets(published),
		Criteria: c,
		Query:    c.Encode(),
	}, nil
}

// Get returns the published post with the given slug. Drafts are reported as
// domain.ErrNotFound.
func (s *PostService) Get(ctx context.Context, slug string) (*PostView, error) {
	post, err := s.posts.GetPost(ctx, slug)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post %s: %w", slug, err)
	}
	if post.Draft {
		return nil, fmt.Errorf("post %s: %w", slug, domain.ErrNotFound)
	}

	published, err := s.published(ctx)
	if err != nil {
		return nil, err
	}

	body := content.Normalize(post.Body)
	view := &PostView{
		Post:           post,
		ReadingMinutes: content.ReadingMinutes(body),
		Related:        query.Related(post, published),
	}
	if content.ShowTOC(body) {
		view.TOC = content.ExtractTOC(body)
	}

	rendered, err := s.render(ctx, post)
	if err != nil {
		var renderErr *domain.RenderError
		if !errors.As(err, &renderErr) {
			return nil, err
		}
		log.Warn().Err(err).Str("postID", post.ID).Msg("Failed to render post")
		view.RenderError = renderErr
		return view, nil
	}
	view.HTML = rendered.HTML
	view.Snippet = rendered.Snippet

	return view, nil
}

func (s *PostService) render(ctx context.Context, post *domain.Post) (*renderedPost, error) {
	key := renderCacheKey(post)
	if s.cache != nil {
		var cached renderedPost
		ok, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Warn().Err(err).Str("postID", post.ID).Msg("Render cache lookup failed")
		} else if ok {
			return &cached, nil
		}
	}

	result, err := s.markdown.Render(post.ID, []byte(post.Body))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rendered := &renderedPost{HTML: string(result.HTMLContent), Snippet: result.Snippet}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, rendered, s.cacheTTL); err != nil {
			log.Warn().Err(err).Str("postID", post.ID).Msg("Failed to cache rendered post")
		}
	}
	return rendered, nil
}

func renderCacheKey(post *domain.Post) string {
	return "render:" + post.ID + ":" + post.Version + ":" + strconv.FormatInt(post.UpdatedAt.UnixNano(), 10)
}

// Tags counts tags over the published posts, most used first.
func (s *PostService) Tags(ctx context.Context) ([]query.TagCount, error) {
	published, err := s.published(ctx)
	if err != nil {
		return nil, err
	}
	return query.TagCounts(published), nil
}

// ByTag lists the published posts carrying tag, newest first.
func (s *PostService) ByTag(ctx context.Context, tag string) ([]*domain.Post, error) {
	published, err := s.published(ctx)
	if err != nil {
		return nil, err
	}
	return query.Filter(published, query.Criteria{Tag: tag}), nil
}

// Feed lists the published posts for syndication, newest first.
func (s *PostService) Feed(ctx context.Context) ([]*domain.Post, error) {
	return s.published(ctx)
}
