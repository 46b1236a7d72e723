package domain

import (
	"context"
	"time"
)

// Image is an image file mirrored from the post source so posts can reference it.
type Image struct {
	Path      string
	Hash      string
	Content   []byte
	UpdatedAt time.Time
	CreatedAt time.Time
}

type ImageRepository interface {
	// SaveImage writes the image content to disk and records it in the database.
	SaveImage(ctx context.Context, img *Image) error

	// GetImage returns the image record, with Content loaded from disk.
	GetImage(ctx context.Context, name string) (*Image, error)

	// DeleteImage removes an image from both disk and database.
	DeleteImage(ctx context.Context, path string) error
}
