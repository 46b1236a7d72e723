// Package localfs serves a local directory as a post file source, for development
// and for the command line when no hosted repository is configured.
package localfs

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dfryer1193/artblog/blog/domain"
)

var _ domain.FileSource = (*DirSource)(nil)

// DirSource implements domain.FileSource on a directory tree. SHAs are git blob
// hashes, so they match what a hosted repository reports for the same content.
type DirSource struct {
	root string
	mu   sync.Mutex
}

func NewDirSource(root string) *DirSource {
	return &DirSource{root: root}
}

// Root returns the directory the source serves.
func (s *DirSource) Root() string {
	return s.root
}

// LocalPath maps a source path to its file on disk. Rooting the path before
// cleaning it keeps ".." from climbing out of the source directory.
func (s *DirSource) LocalPath(p string) (string, error) {
	clean := path.Clean("/" + filepath.ToSlash(p))
	if clean == "/" {
		return s.root, nil
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// BlobSHA hashes content the way git names blob objects.
func BlobSHA(content []byte) string {
	h := sha1.New()
	h.Write([]byte("blob " + strconv.Itoa(len(content)) + "\x00"))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func (s *DirSource) ListDir(ctx context.Context, dir string) ([]domain.FileEntry, error) {
	local, err := s.LocalPath(dir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(local)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("directory %s: %w", dir, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	out := make([]domain.FileEntry, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		out = append(out, domain.FileEntry{
			Name: e.Name(),
			Path: strings.TrimPrefix(path.Join(dir, e.Name()), "/"),
			Dir:  e.IsDir(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *DirSource) GetFile(ctx context.Context, p string) (*domain.File, error) {
	local, err := s.LocalPath(p)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(local)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("file %s: %w", p, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", p, err)
	}

	return &domain.File{Path: p, SHA: BlobSHA(content), Content: content}, nil
}

// PutFile writes content atomically. sha must be empty for a new file and must
// match the current content for an existing one.
func (s *DirSource) PutFile(ctx context.Context, p string, content []byte, sha string, message string) (string, error) {
	local, err := s.LocalPath(p)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSHA(local, p, sha); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(local), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", p, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(local), ".artblog-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file for %s: %w", p, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", p, err)
	}
	if err := os.Rename(tmp.Name(), local); err != nil {
		return "", fmt.Errorf("failed to replace %s: %w", p, err)
	}

	log.Debug().Str("path", p).Str("message", message).Msg("Wrote file")
	return BlobSHA(content), nil
}

func (s *DirSource) DeleteFile(ctx context.Context, p string, sha string, message string) error {
	local, err := s.LocalPath(p)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(local); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("file %s: %w", p, domain.ErrNotFound)
	}
	if err := s.checkSHA(local, p, sha); err != nil {
		return err
	}

	if err := os.Remove(local); err != nil {
		return fmt.Errorf("failed to remove %s: %w", p, err)
	}

	log.Debug().Str("path", p).Str("message", message).Msg("Deleted file")
	return nil
}

func (s *DirSource) checkSHA(local, p, sha string) error {
	current, err := os.ReadFile(local)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if sha != "" {
			return fmt.Errorf("file %s: %w", p, domain.ErrNotFound)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to read file %s: %w", p, err)
	case sha == "":
		return fmt.Errorf("file %s already exists: %w", p, domain.ErrConflict)
	case BlobSHA(current) != sha:
		return fmt.Errorf("file %s does not match %s: %w", p, sha, domain.ErrConflict)
	}
	return nil
}

// Verify checks the root is a writable directory.
func (s *DirSource) Verify(ctx context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("failed to open source directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source %s is not a directory", s.root)
	}

	probe, err := os.CreateTemp(s.root, ".artblog-verify-*")
	if err != nil {
		return fmt.Errorf("source directory is not writable: %w", err)
	}
	probe.Close()
	return os.Remove(probe.Name())
}
