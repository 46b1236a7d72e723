package persistence

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dfryer1193/artblog/blog/domain"
	"github.com/dfryer1193/artblog/blog/frontmatter"
)

// DefaultPostsPath is the directory post files live in within the source.
const DefaultPostsPath = "src/content/posts"

const fetchConcurrency = 8

var postExtensions = []string{".md", ".mdx"}

var _ domain.PostStore = (*FilePostStore)(nil)

// FilePostStore keeps each post as a frontmatter file named after its slug.
// The file SHA reported by the source is the post's Version.
type FilePostStore struct {
	source domain.FileSource
	dir    string
}

func NewFilePostStore(source domain.FileSource, dir string) *FilePostStore {
	if dir == "" {
		dir = DefaultPostsPath
	}
	return &FilePostStore{source: source, dir: strings.Trim(dir, "/")}
}

// IsPostFile reports whether name has a post file extension.
func IsPostFile(name string) bool {
	for _, ext := range postExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// PostIDFromPath strips the directory and extension from a post file path.
func PostIDFromPath(p string) string {
	name := path.Base(p)
	for _, ext := range postExtensions {
		if trimmed, ok := strings.CutSuffix(name, ext); ok {
			return trimmed
		}
	}
	return name
}

// DecodeFile parses a post file read from a source.
func DecodeFile(f *domain.File) *domain.Post {
	p := frontmatter.Parse(PostIDFromPath(f.Path), string(f.Content))
	if p.Title == "" {
		p.Title = path.Base(f.Path)
	}
	p.Path = f.Path
	p.Version = f.SHA
	return p
}

// ListPosts reads every post file in the directory. Files are fetched concurrently
// and returned in listing order.
func (s *FilePostStore) ListPosts(ctx context.Context) ([]*domain.Post, error) {
	entries, err := s.source.ListDir(ctx, s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list post files: %w", err)
	}

	files := make([]domain.FileEntry, 0, len(entries))
	for _, e := range entries {
		if !e.Dir && IsPostFile(e.Name) {
			files = append(files, e)
		}
	}

	posts := make([]*domain.Post, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, entry := range files {
		g.Go(func() error {
			f, err := s.source.GetFile(gctx, entry.Path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", entry.Path, err)
			}
			posts[i] = DecodeFile(f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return posts, nil
}

// GetPost finds the file for id under either extension.
func (s *FilePostStore) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	if id == "" || strings.ContainsAny(id, "/\\") {
		return nil, fmt.Errorf("post %q: %w", id, domain.ErrNotFound)
	}

	for _, ext := range postExtensions {
		f, err := s.source.GetFile(ctx, s.dir+"/"+id+ext)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read post %s: %w", id, err)
		}
		return DecodeFile(f), nil
	}

	return nil, fmt.Errorf("post %s: %w", id, domain.ErrNotFound)
}

// CreatePost writes <id>.md. Any existing file for the slug is a conflict.
func (s *FilePostStore) CreatePost(ctx context.Context, p *domain.Post, message string) error {
	if err := validatePost(p); err != nil {
		return err
	}

	_, err := s.GetPost(ctx, p.ID)
	if err == nil {
		return fmt.Errorf("post %s already exists: %w", p.ID, domain.ErrConflict)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	p.Path = s.dir + "/" + p.ID + ".md"
	sha, err := s.source.PutFile(ctx, p.Path, []byte(frontmatter.Format(p)), "", message)
	if err != nil {
		return fmt.Errorf("failed to write post %s: %w", p.ID, err)
	}
	p.Version = sha
	return nil
}

// UpdatePost rewrites the post file in place. Without a Version the current file
// SHA is used, so the write wins over whatever is stored.
func (s *FilePostStore) UpdatePost(ctx context.Context, p *domain.Post, message string) error {
	if err := validatePost(p); err != nil {
		return err
	}

	if err := s.resolve(ctx, p); err != nil {
		return err
	}

	sha, err := s.source.PutFile(ctx, p.Path, []byte(frontmatter.Format(p)), p.Version, message)
	if err != nil {
		return fmt.Errorf("failed to write post %s: %w", p.ID, err)
	}
	p.Version = sha
	return nil
}

func (s *FilePostStore) DeletePost(ctx context.Context, p *domain.Post, message string) error {
	if err := validatePost(p); err != nil {
		return err
	}

	if err := s.resolve(ctx, p); err != nil {
		return err
	}

	if err := s.source.DeleteFile(ctx, p.Path, p.Version, message); err != nil {
		return fmt.Errorf("failed to delete post %s: %w", p.ID, err)
	}
	return nil
}

// resolve fills in Path and Version from the stored file when they are missing.
func (s *FilePostStore) resolve(ctx context.Context, p *domain.Post) error {
	if p.Path != "" && p.Version != "" {
		return nil
	}

	current, err := s.GetPost(ctx, p.ID)
	if err != nil {
		return err
	}
	if p.Path == "" {
		p.Path = current.Path
	}
	if p.Version == "" {
		p.Version = current.Version
	}
	return nil
}
