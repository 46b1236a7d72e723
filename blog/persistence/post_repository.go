package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dfryer1193/artblog/blog/domain"
	"github.com/dfryer1193/artblog/shared/db"
)

var _ domain.PostRepository = (*SQLitePostRepository)(nil)

// SQLitePostRepository stores posts in SQLite. It serves as the read replica for
// the public paths and as a standalone post store when no external backend is used.
type SQLitePostRepository struct {
	db *sql.DB
}

// NewPostRepository creates a new SQLitePostRepository from a standard sql.DB
func NewPostRepository(db *sql.DB) *SQLitePostRepository {
	return &SQLitePostRepository{
		db: db,
	}
}

const postColumns = `id, path, title, description, pub_date, tags, draft, body, extra, version, updated_at, created_at`

const upsertPostQuery = `
	INSERT INTO posts (` + postColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		path = excluded.path,
		title = excluded.title,
		description = excluded.description,
		pub_date = excluded.pub_date,
		tags = excluded.tags,
		draft = excluded.draft,
		body = excluded.body,
		extra = excluded.extra,
		version = excluded.version,
		updated_at = excluded.updated_at,
		created_at = COALESCE(posts.created_at, excluded.created_at)
`

// UpsertPost inserts or replaces a post, keeping the original created_at.
func (r *SQLitePostRepository) UpsertPost(ctx context.Context, p *domain.Post) error {
	if err := validatePost(p); err != nil {
		return err
	}

	args, err := postArgs(p)
	if err != nil {
		return err
	}

	executor := db.GetExecutor(ctx, r.db)
	if _, err := executor.ExecContext(ctx, upsertPostQuery, args...); err != nil {
		return fmt.Errorf("failed to upsert post: %w", err)
	}

	return nil
}

const insertPostQuery = `
	INSERT INTO posts (` + postColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// CreatePost inserts a new post. An existing ID is reported as domain.ErrConflict.
func (r *SQLitePostRepository) CreatePost(ctx context.Context, p *domain.Post, _ string) error {
	if err := validatePost(p); err != nil {
		return err
	}

	return db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		exists, err := r.exists(txCtx, p.ID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("post %s already exists: %w", p.ID, domain.ErrConflict)
		}

		now := time.Now().UTC()
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = now
		}

		args, err := postArgs(p)
		if err != nil {
			return err
		}

		executor := db.GetExecutor(txCtx, r.db)
		if _, err := executor.ExecContext(txCtx, insertPostQuery, args...); err != nil {
			return fmt.Errorf("failed to insert post: %w", err)
		}
		return nil
	})
}

// UpdatePost replaces an existing post.
func (r *SQLitePostRepository) UpdatePost(ctx context.Context, p *domain.Post, _ string) error {
	if err := validatePost(p); err != nil {
		return err
	}

	return db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		existing, err := r.getPost(txCtx, p.ID)
		if err != nil {
			return err
		}
		if p.Version != "" && existing.Version != p.Version {
			return fmt.Errorf("post %s changed since it was read: %w", p.ID, domain.ErrConflict)
		}

		p.CreatedAt = existing.CreatedAt
		p.UpdatedAt = time.Now().UTC()
		return r.UpsertPost(txCtx, p)
	})
}

func validatePost(p *domain.Post) error {
	if p == nil {
		return fmt.Errorf("post cannot be nil")
	}
	if p.ID == "" {
		return fmt.Errorf("post ID cannot be empty")
	}
	return nil
}

func postArgs(p *domain.Post) ([]any, error) {
	tags, err := json.Marshal(nonNilTags(p.Tags))
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}

	extra, err := encodeExtra(p.Extra)
	if err != nil {
		return nil, err
	}

	var updatedAt, createdAt any
	if !p.UpdatedAt.IsZero() {
		updatedAt = p.UpdatedAt
	}
	if !p.CreatedAt.IsZero() {
		createdAt = p.CreatedAt
	} else {
		createdAt = time.Now().UTC()
	}

	return []any{
		p.ID,
		p.Path,
		p.Title,
		p.Description,
		p.PubDate,
		string(tags),
		p.Draft,
		p.Body,
		extra,
		p.Version,
		updatedAt,
		createdAt,
	}, nil
}

const getPostQuery = `
	SELECT ` + postColumns + `
	FROM posts
	WHERE id = ?
`

// GetPost retrieves a single post by ID, drafts included.
func (r *SQLitePostRepository) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	if id == "" {
		return nil, fmt.Errorf("post ID cannot be empty")
	}
	return r.getPost(ctx, id)
}

func (r *SQLitePostRepository) getPost(ctx context.Context, id string) (*domain.Post, error) {
	executor := db.GetExecutor(ctx, r.db)
	row, err := scanPost(executor.QueryRowContext(ctx, getPostQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("post %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return row.toDomain()
}

const getPostByPathQuery = `
	SELECT ` + postColumns + `
	FROM posts
	WHERE path = ?
`

// GetPostByPath finds the post mirrored from a source file.
func (r *SQLitePostRepository) GetPostByPath(ctx context.Context, path string) (*domain.Post, error) {
	if path == "" {
		return nil, fmt.Errorf("post path cannot be empty")
	}

	executor := db.GetExecutor(ctx, r.db)
	row, err := scanPost(executor.QueryRowContext(ctx, getPostByPathQuery, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("post at %s: %w", path, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post by path: %w", err)
	}
	return row.toDomain()
}

func (r *SQLitePostRepository) exists(ctx context.Context, id string) (bool, error) {
	var n int
	executor := db.GetExecutor(ctx, r.db)
	if err := executor.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts WHERE id = ?", id).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check post: %w", err)
	}
	return n > 0, nil
}

const listPostsQuery = `
	SELECT ` + postColumns + `
	FROM posts
	ORDER BY pub_date DESC, id
`

// ListPosts returns every post, drafts included, newest pub_date first.
func (r *SQLitePostRepository) ListPosts(ctx context.Context) ([]*domain.Post, error) {
	executor := db.GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, listPostsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*domain.Post, 0)
	for rows.Next() {
		row, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		p, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post rows: %w", err)
	}

	return posts, nil
}

const getLatestUpdatedTimeQuery = `
	SELECT updated_at FROM posts WHERE updated_at IS NOT NULL ORDER BY updated_at DESC LIMIT 1
`

// GetLatestUpdatedTime returns the latest updated_at time across all posts
func (r *SQLitePostRepository) GetLatestUpdatedTime(ctx context.Context) (time.Time, error) {
	var latestUpdated sql.NullTime
	err := r.db.QueryRowContext(ctx, getLatestUpdatedTimeQuery).Scan(&latestUpdated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to get latest updated time: %w", err)
	}

	if !latestUpdated.Valid {
		return time.Time{}, nil
	}

	return latestUpdated.Time, nil
}

// DeletePost removes a post from the replica. Deleting a missing post is not an error.
func (r *SQLitePostRepository) DeletePost(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("post ID cannot be empty")
	}

	executor := db.GetExecutor(ctx, r.db)
	if _, err := executor.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}

// SQLitePostStore adapts the repository to domain.PostStore, whose delete takes
// the whole post and reports a missing one.
type SQLitePostStore struct {
	*SQLitePostRepository
}

var _ domain.PostStore = SQLitePostStore{}

func (s SQLitePostStore) DeletePost(ctx context.Context, p *domain.Post, _ string) error {
	return db.RunInTransaction(ctx, s.db, func(txCtx context.Context) error {
		if _, err := s.getPost(txCtx, p.ID); err != nil {
			return err
		}
		return s.SQLitePostRepository.DeletePost(txCtx, p.ID)
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(s rowScanner) (*postRow, error) {
	var row postRow
	err := s.Scan(
		&row.ID,
		&row.Path,
		&row.Title,
		&row.Description,
		&row.PubDate,
		&row.Tags,
		&row.Draft,
		&row.Body,
		&row.Extra,
		&row.Version,
		&row.UpdatedAt,
		&row.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// postRow is a private struct used to scan database rows
// It uses sql.NullTime to handle nullable timestamp fields
// and provides a method to convert to the domain.Post model
type postRow struct {
	ID          string       `db:"id"`
	Path        string       `db:"path"`
	Title       string       `db:"title"`
	Description string       `db:"description"`
	PubDate     string       `db:"pub_date"`
	Tags        string       `db:"tags"`
	Draft       bool         `db:"draft"`
	Body        string       `db:"body"`
	Extra       string       `db:"extra"`
	Version     string       `db:"version"`
	UpdatedAt   sql.NullTime `db:"updated_at"`
	CreatedAt   sql.NullTime `db:"created_at"`
}

// toDomain converts a postRow to a domain.Post, handling nullable times
func (pr *postRow) toDomain() (*domain.Post, error) {
	post := &domain.Post{
		ID:          pr.ID,
		Path:        pr.Path,
		Title:       pr.Title,
		Description: pr.Description,
		PubDate:     pr.PubDate,
		Draft:       pr.Draft,
		Body:        pr.Body,
		Version:     pr.Version,
	}

	if err := json.Unmarshal([]byte(pr.Tags), &post.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags of post %s: %w", pr.ID, err)
	}
	post.Tags = nonNilTags(post.Tags)

	extra, err := decodeExtra(pr.Extra)
	if err != nil {
		return nil, fmt.Errorf("failed to decode extra fields of post %s: %w", pr.ID, err)
	}
	post.Extra = extra

	if pr.UpdatedAt.Valid {
		post.UpdatedAt = pr.UpdatedAt.Time
	}
	if pr.CreatedAt.Valid {
		post.CreatedAt = pr.CreatedAt.Time
	}

	return post, nil
}
