package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/dfryer1193/artblog/blog/domain"
	"github.com/dfryer1193/artblog/shared/db"
)

var _ domain.ImageRepository = (*SQLiteImageRepository)(nil)

// DefaultImageDir is where mirrored image files are written when no directory is configured.
const DefaultImageDir = "./images"

// SQLiteImageRepository keeps image metadata in SQLite and image bytes on disk.
// Files are stored flat under dir by base name, matching the /images/<name> route.
type SQLiteImageRepository struct {
	db  *sql.DB
	dir string
}

// NewImageRepository creates a new SQLiteImageRepository from a standard sql.DB
func NewImageRepository(sqlDB *sql.DB, dir string) *SQLiteImageRepository {
	if dir == "" {
		dir = DefaultImageDir
	}
	return &SQLiteImageRepository{
		db:  sqlDB,
		dir: dir,
	}
}

const upsertImageQuery = `
	INSERT INTO images (path, hash, updated_at, created_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(path) DO UPDATE SET
		hash = excluded.hash,
		updated_at = excluded.updated_at,
		created_at = COALESCE(images.created_at, excluded.created_at)
`

// SaveImage saves an image to both filesystem and database within a transaction
func (r *SQLiteImageRepository) SaveImage(ctx context.Context, img *domain.Image) error {
	if img == nil {
		return fmt.Errorf("image cannot be nil")
	}

	if img.Path == "" {
		return fmt.Errorf("image path cannot be empty")
	}

	return db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		var updatedAt, createdAt any

		if !img.UpdatedAt.IsZero() {
			updatedAt = img.UpdatedAt
		}

		if !img.CreatedAt.IsZero() {
			createdAt = img.CreatedAt
		} else {
			createdAt = time.Now().UTC()
		}

		executor := db.GetExecutor(txCtx, r.db)
		_, err := executor.ExecContext(txCtx, upsertImageQuery,
			img.Path,
			img.Hash,
			updatedAt,
			createdAt,
		)

		if err != nil {
			return fmt.Errorf("failed to upsert image record: %w", err)
		}

		// a failed write rolls the record back
		if err := os.MkdirAll(r.dir, 0755); err != nil {
			return fmt.Errorf("failed to create image directory: %w", err)
		}

		if err := os.WriteFile(r.localPath(img.Path), img.Content, 0644); err != nil {
			return fmt.Errorf("failed to write image file: %w", err)
		}

		return nil
	})
}

const getImageQuery = `
	SELECT path, hash, updated_at, created_at
	FROM images
	WHERE path = ? OR path LIKE ?
	ORDER BY updated_at DESC
	LIMIT 1
`

// GetImage looks up an image by its base name and loads its bytes.
func (r *SQLiteImageRepository) GetImage(ctx context.Context, name string) (*domain.Image, error) {
	name = path.Base(name)
	if name == "" || name == "." || name == "/" {
		return nil, fmt.Errorf("image name cannot be empty")
	}

	var row imageRow
	err := r.db.QueryRowContext(ctx, getImageQuery, name, "%/"+name).Scan(
		&row.Path,
		&row.Hash,
		&row.UpdatedAt,
		&row.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("image %s: %w", name, domain.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}

	img := row.toDomain()
	img.Content, err = os.ReadFile(r.localPath(img.Path))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("image file %s: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}

	return img, nil
}

const deleteImageQuery = `
	DELETE FROM images WHERE path = ?
`

// DeleteImage removes an image from both filesystem and database within a transaction
func (r *SQLiteImageRepository) DeleteImage(ctx context.Context, imgPath string) error {
	if imgPath == "" {
		return fmt.Errorf("image path cannot be empty")
	}

	return db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		executor := db.GetExecutor(txCtx, r.db)
		_, err := executor.ExecContext(txCtx, deleteImageQuery, imgPath)
		if err != nil {
			return fmt.Errorf("failed to delete image record: %w", err)
		}

		if err := os.Remove(r.localPath(imgPath)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove image file: %w", err)
		}

		return nil
	})
}

func (r *SQLiteImageRepository) localPath(imgPath string) string {
	return filepath.Join(r.dir, path.Base(imgPath))
}

// imageRow is a private struct used to scan database rows
type imageRow struct {
	Path      string       `db:"path"`
	Hash      string       `db:"hash"`
	UpdatedAt sql.NullTime `db:"updated_at"`
	CreatedAt sql.NullTime `db:"created_at"`
}

// toDomain converts an imageRow to a domain.Image, handling nullable times
func (ir *imageRow) toDomain() *domain.Image {
	img := &domain.Image{
		Path: ir.Path,
		Hash: ir.Hash,
	}

	if ir.UpdatedAt.Valid {
		img.UpdatedAt = ir.UpdatedAt.Time
	}
	if ir.CreatedAt.Valid {
		img.CreatedAt = ir.CreatedAt.Time
	}

	return img
}
