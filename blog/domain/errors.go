package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a post is missing, or is a draft on a public read path.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a create collides with an existing slug, or an
	// update is rejected because the stored version moved on.
	ErrConflict = errors.New("conflict")
	// ErrInvalid is matched by every ValidationError.
	ErrInvalid = errors.New("invalid input")
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError collects every problem found in an input before it reaches a store.
type ValidationError struct {
	Items []FieldError
}

func (e *ValidationError) Add(field, message string) {
	e.Items = append(e.Items, FieldError{Field: field, Message: message})
}

// Err returns nil when nothing was added.
func (e *ValidationError) Err() error {
	if len(e.Items) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		msgs = append(msgs, item.Message)
	}
	return strings.Join(msgs, " ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

// RenderError reports that a post body could not be turned into HTML.
// It is shown inline on the post page rather than failing the request.
type RenderError struct {
	PostID string
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render post %s: %v", e.PostID, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
