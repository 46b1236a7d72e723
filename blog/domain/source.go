package domain

import (
	"context"
	"time"

	"github.com/google/go-github/v75/github"
)

// File is a single file read from a FileSource.
type File struct {
	Path    string
	SHA     string
	Content []byte
}

// FileEntry is a directory listing entry.
type FileEntry struct {
	Name string
	Path string
	SHA  string
	Dir  bool
}

// FileSource is the file storage behind the file-backed post store: a hosted git
// repository through its contents API, or a local directory.
type FileSource interface {
	ListDir(ctx context.Context, dir string) ([]FileEntry, error)
	// GetFile returns ErrNotFound when the path does not exist.
	GetFile(ctx context.Context, path string) (*File, error)
	// PutFile creates the file when sha is empty, otherwise updates it if sha still matches.
	// It returns the SHA of the written content.
	PutFile(ctx context.Context, path string, content []byte, sha string, message string) (string, error)
	DeleteFile(ctx context.Context, path string, sha string, message string) error
	// Verify checks that the credential behind the source can write to it.
	Verify(ctx context.Context) error
}

// SourceRepository defines the interface for accessing repository history (e.g., from GitHub).
// The sync service uses it to follow pushes into the read replica.
type SourceRepository interface {
	GetCommitsSince(ctx context.Context, branchName string, since time.Time) ([]*github.RepositoryCommit, error)
	GetCommitsInRange(ctx context.Context, baseCommit string, headCommit string) ([]*github.RepositoryCommit, error)
	GetCommit(ctx context.Context, sha string) (*github.RepositoryCommit, error)
	GetFileContents(ctx context.Context, path string, ref string) ([]byte, error)
	GetDefaultBranchName(ctx context.Context) (string, error)
	GetRepoFullName() string
}
