package application

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dfryer1193/artblog/blog/domain"
)

// fakeStore is an in-memory domain.PostStore that records commit messages.
type fakeStore struct {
	mu       sync.Mutex
	posts    map[string]domain.Post
	messages []string
	failWith error
	// afterWrite runs once a write has been stored.
	afterWrite func()
}

func newFakeStore(posts ...*domain.Post) *fakeStore {
	s := &fakeStore{posts: make(map[string]domain.Post)}
	for _, p := range posts {
		s.posts[p.ID] = *p
	}
	return s
}

func (s *fakeStore) ListPosts(ctx context.Context) ([]*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	ids := make([]string, 0, len(s.posts))
	for id := range s.posts {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]*domain.Post, 0, len(ids))
	for _, id := range ids {
		p := s.posts[id]
		out = append(out, &p)
	}
	return out, nil
}

func (s *fakeStore) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	p, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", id, domain.ErrNotFound)
	}
	return &p, nil
}

func (s *fakeStore) CreatePost(ctx context.Context, p *domain.Post, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	if _, ok := s.posts[p.ID]; ok {
		return fmt.Errorf("post %s: %w", p.ID, domain.ErrConflict)
	}
	s.posts[p.ID] = *p
	s.messages = append(s.messages, message)
	if s.afterWrite != nil {
		s.afterWrite()
	}
	return nil
}

func (s *fakeStore) UpdatePost(ctx context.Context, p *domain.Post, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	if _, ok := s.posts[p.ID]; !ok {
		return fmt.Errorf("post %s: %w", p.ID, domain.ErrNotFound)
	}
	s.posts[p.ID] = *p
	s.messages = append(s.messages, message)
	if s.afterWrite != nil {
		s.afterWrite()
	}
	return nil
}

func (s *fakeStore) DeletePost(ctx context.Context, p *domain.Post, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	if _, ok := s.posts[p.ID]; !ok {
		return fmt.Errorf("post %s: %w", p.ID, domain.ErrNotFound)
	}
	delete(s.posts, p.ID)
	s.messages = append(s.messages, message)
	if s.afterWrite != nil {
		s.afterWrite()
	}
	return nil
}

func (s *fakeStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// mapCache is an in-memory RenderCache.
type mapCache struct {
	mu     sync.Mutex
	values map[string]renderedPost
}

func newMapCache() *mapCache {
	return &mapCache{values: make(map[string]renderedPost)}
}

func (c *mapCache) Get(_ context.Context, key string, v any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.values[key]
	if !ok {
		return false, nil
	}
	*(v.(*renderedPost)) = r
	return true, nil
}

func (c *mapCache) Set(_ context.Context, key string, v any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = *(v.(*renderedPost))
	return nil
}

// countingRenderer wraps a renderer and counts its calls.
type countingRenderer struct {
	mu    sync.Mutex
	next  MarkdownRenderer
	err   error
	count int
}

func (r *countingRenderer) Render(postID string, markdown []byte) (*MarkdownProcessingResult, error) {
	r.mu.Lock()
	r.count++
	r.mu.Unlock()
	if r.err != nil {
		return nil, &domain.RenderError{PostID: postID, Err: r.err}
	}
	return r.next.Render(postID, markdown)
}
