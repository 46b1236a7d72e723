package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/go-github/v75/github"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/dfryer1193/artblog/blog/domain"
	"github.com/dfryer1193/artblog/blog/persistence"
)

const (
	// DefaultImagesPath is the source directory mirrored to /images/.
	DefaultImagesPath = "public/images"

	zeroSHA          = "0000000000000000000000000000000000000000"
	imageConcurrency = 8
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp", ".avif"}

// PostLister is the part of a post store the sync service reads from.
type PostLister interface {
	ListPosts(ctx context.Context) ([]*domain.Post, error)
}

type SyncConfig struct {
	PostsDir       string
	ImagesDir      string
	MainBranchName string
}

// SyncService keeps the read replica in step with the post store: push events
// from the hosted repository, full resyncs, and the image mirror.
type SyncService struct {
	replica    domain.PostRepository
	store      PostLister
	sourceRepo domain.SourceRepository
	files      domain.FileSource
	images     domain.ImageRepository

	postsDir       string
	imagesDir      string
	mainBranchName string

	// Service lifecycle context - cancelled when Close() is called
	ctx    context.Context
	cancel context.CancelFunc
	wg     *sync.WaitGroup
}

// NewSyncService creates a SyncService. sourceRepo, files and images may be nil
// for backends without commit history, file storage or images.
func NewSyncService(
	replica domain.PostRepository,
	store PostLister,
	sourceRepo domain.SourceRepository,
	files domain.FileSource,
	images domain.ImageRepository,
	cfg SyncConfig,
) *SyncService {
	if cfg.PostsDir == "" {
		cfg.PostsDir = persistence.DefaultPostsPath
	}
	if cfg.ImagesDir == "" {
		cfg.ImagesDir = DefaultImagesPath
	}
	if cfg.MainBranchName == "" {
		cfg.MainBranchName = "main"
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &SyncService{
		replica:        replica,
		store:          store,
		sourceRepo:     sourceRepo,
		files:          files,
		images:         images,
		postsDir:       strings.Trim(cfg.PostsDir, "/"),
		imagesDir:      strings.Trim(cfg.ImagesDir, "/"),
		mainBranchName: cfg.MainBranchName,
		ctx:            ctx,
		cancel:         cancel,
		wg:             &sync.WaitGroup{},
	}
}

// Close gracefully shuts down the SyncService by cancelling all background workers
func (s *SyncService) Close() error {
	s.cancel()
	s.wg.Wait()

	return nil
}

// Bootstrap brings an empty replica up to date with a full sync, and a populated
// one with the commits it missed while the server was offline.
func (s *SyncService) Bootstrap(ctx context.Context) error {
	if s.sourceRepo == nil {
		return s.SyncAll(ctx)
	}

	lastUpdatedAt, err := s.replica.GetLatestUpdatedTime(ctx)
	if err != nil {
		return fmt.Errorf("could not get the time of the last update: %w", err)
	}
	if lastUpdatedAt.IsZero() {
		return s.SyncAll(ctx)
	}
	return s.SyncRepositoryChanges(ctx, lastUpdatedAt)
}

// SyncAll mirrors every post in the store into the replica and drops replica
// posts the store no longer has. Images are mirrored when a file source is set.
func (s *SyncService) SyncAll(ctx context.Context) error {
	posts, err := s.store.ListPosts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list source posts: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	existing, err := s.replica.ListPosts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list replica posts: %w", err)
	}
	byID := make(map[string]*domain.Post, len(existing))
	for _, p := range existing {
		byID[p.ID] = p
	}

	now := time.Now().UTC()
	seen := make(map[string]struct{}, len(posts))
	upserted := 0
	for _, p := range posts {
		seen[p.ID] = struct{}{}
		if old, ok := byID[p.ID]; ok && unchanged(old, p) {
			continue
		}
		p.UpdatedAt = now
		if err := s.replica.UpsertPost(ctx, p); err != nil {
			return fmt.Errorf("failed to upsert post %s: %w", p.ID, err)
		}
		upserted++
	}

	removed := 0
	for id := range byID {
		if _, ok := seen[id]; ok {
			continue
		}
		if err := s.replica.DeletePost(ctx, id); err != nil {
			return fmt.Errorf("failed to remove post %s: %w", id, err)
		}
		removed++
	}

	log.Info().Int("posts", len(posts)).Int("upserted", upserted).Int("removed", removed).Msg("Synced posts")

	return s.syncImages(ctx)
}

func unchanged(old, p *domain.Post) bool {
	if p.Version != "" {
		return old.Version == p.Version
	}
	return false
}

func (s *SyncService) syncImages(ctx context.Context) error {
	if s.files == nil || s.images == nil {
		return nil
	}

	entries, err := s.files.ListDir(ctx, s.imagesDir)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to list images: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(imageConcurrency)
	for _, entry := range entries {
		if entry.Dir || !isImageFile(s.imagesDir, entry.Path) {
			continue
		}
		g.Go(func() error {
			f, err := s.files.GetFile(gctx, entry.Path)
			if err != nil {
				return fmt.Errorf("failed to read image %s: %w", entry.Path, err)
			}
			if err := gctx.Err(); err != nil {
				return err
			}
			return s.images.SaveImage(gctx, &domain.Image{
				Path:      entry.Path,
				Hash:      calculateHash(f.Content),
				Content:   f.Content,
				UpdatedAt: time.Now().UTC(),
			})
		})
	}
	return g.Wait()
}

// SyncRepositoryChanges applies the main branch commits made since a given time.
func (s *SyncService) SyncRepositoryChanges(ctx context.Context, since time.Time) error {
	commits, err := s.sourceRepo.GetCommitsSince(ctx, s.mainBranchName, since)
	if err != nil {
		return fmt.Errorf("failed to get commits for branch %s: %w", s.mainBranchName, err)
	}
	if len(commits) == 0 {
		return nil
	}

	filesToProcess, filesToRemove, err := s.analyzeCommitFiles(ctx, commits)
	if err != nil {
		return fmt.Errorf("failed to analyze commits for branch %s: %w", s.mainBranchName, err)
	}

	s.applyChanges(ctx, filesToProcess, filesToRemove)
	return nil
}

// applyChanges removes every file before writing any. A removed post whose ID is
// also being written (a .md renamed to .mdx) is left for the upsert to replace.
func (s *SyncService) applyChanges(ctx context.Context, filesToProcess map[string]commitFileInfo, filesToRemove map[string]struct{}) {
	written := make(map[string]struct{}, len(filesToProcess))
	for p := range filesToProcess {
		if !isImageFile(s.imagesDir, p) {
			written[persistence.PostIDFromPath(p)] = struct{}{}
		}
	}

	for f := range filesToRemove {
		if !isImageFile(s.imagesDir, f) {
			if _, ok := written[persistence.PostIDFromPath(f)]; ok {
				continue
			}
		}
		s.removeFile(ctx, f)
	}

	var wg sync.WaitGroup
	for p, info := range filesToProcess {
		wg.Go(func() {
			s.processFile(ctx, p, info)
		})
	}
	wg.Wait()
}

func (s *SyncService) isTracked(p string) bool {
	return isPostFile(s.postsDir, p) || isImageFile(s.imagesDir, p)
}

func handleCommitFile(
	path string,
	status string,
	previousPath string,
	info commitFileInfo,
	tracked func(string) bool,
	filesToProcess map[string]commitFileInfo,
	filesToRemove map[string]struct{},
) {
	currentIsTracked := path != "" && tracked(path)
	previousIsTracked := previousPath != "" && tracked(previousPath)

	if !currentIsTracked && !previousIsTracked {
		return
	}

	switch status {
	case "added", "modified", "changed":
		if currentIsTracked {
			if first, exists := filesToProcess[path]; exists {
				info.createdAt = first.createdAt
			}
			filesToProcess[path] = info
			delete(filesToRemove, path)
		}
	case "removed":
		if currentIsTracked {
			filesToRemove[path] = struct{}{}
			delete(filesToProcess, path)
		}
	case "renamed":
		if previousIsTracked {
			filesToRemove[previousPath] = struct{}{}
			delete(filesToProcess, previousPath)
		}
		if currentIsTracked {
			filesToProcess[path] = info
			delete(filesToRemove, path)
		}
	}
}

// analyzeCommitFiles iterates through commits, oldest first, to determine which
// files ended up changed and which ended up removed.
func (s *SyncService) analyzeCommitFiles(ctx context.Context, commits []*github.RepositoryCommit) (map[string]commitFileInfo, map[string]struct{}, error) {
	filesToProcess := make(map[string]commitFileInfo)
	filesToRemove := make(map[string]struct{})

	for _, commitSummary := range commits {
		fullCommit, err := s.sourceRepo.GetCommit(ctx, commitSummary.GetSHA())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get full commit %s: %w", commitSummary.GetSHA(), err)
		}

		modifiedAt := fullCommit.GetCommit().GetAuthor().GetDate().Time
		for _, file := range fullCommit.Files {
			info := commitFileInfo{
				path:       file.GetFilename(),
				blobSHA:    file.GetSHA(),
				commitSHA:  fullCommit.GetSHA(),
				createdAt:  modifiedAt,
				modifiedAt: modifiedAt,
			}
			handleCommitFile(file.GetFilename(), file.GetStatus(), file.GetPreviousFilename(), info, s.isTracked, filesToProcess, filesToRemove)
		}
	}
	return filesToProcess, filesToRemove, nil
}

// HandlePushEvent processes a GitHub push event and updates the replica accordingly.
// This method returns immediately after validating the event and spawning async workers
// Workers use the service's lifecycle context, not the request context
func (s *SyncService) HandlePushEvent(evt *github.PushEvent) error {
	if s.sourceRepo == nil {
		return fmt.Errorf("push events need a source repository")
	}

	ref := evt.GetRef()
	if ref != "refs/heads/"+s.mainBranchName {
		log.Debug().Str("ref", ref).Msg("Ignoring push to non-main branch")
		return nil
	}

	// Get all commits in the push range
	var commits []*github.RepositoryCommit
	var err error

	if evt.GetBefore() != "" && evt.GetBefore() != zeroSHA {
		// Normal push with a base commit - get the range
		commits, err = s.sourceRepo.GetCommitsInRange(s.ctx, evt.GetBefore(), evt.GetAfter())
		if err != nil {
			return fmt.Errorf("failed to get commits in range %s...%s: %w", evt.GetBefore(), evt.GetAfter(), err)
		}
	} else {
		// New branch or first commit - just get the head commit
		headCommit, err := s.sourceRepo.GetCommit(s.ctx, evt.GetAfter())
		if err != nil {
			return fmt.Errorf("failed to get commit %s: %w", evt.GetAfter(), err)
		}
		commits = []*github.RepositoryCommit{headCommit}
	}

	// Analyze all commits to determine which files to process
	filesToProcess, filesToRemove, err := s.analyzeCommitFiles(s.ctx, commits)
	if err != nil {
		return fmt.Errorf("failed to analyze commits: %w", err)
	}

	s.wg.Go(func() {
		s.applyChanges(s.ctx, filesToProcess, filesToRemove)
	})

	return nil
}

func (s *SyncService) removeFile(ctx context.Context, filePath string) {
	if isImageFile(s.imagesDir, filePath) {
		if s.images == nil {
			return
		}
		if err := s.images.DeleteImage(ctx, filePath); err != nil {
			log.Error().Err(err).Str("path", filePath).Msg("Failed to remove image")
		}
		return
	}

	postID := persistence.PostIDFromPath(filePath)
	if existing, err := s.replica.GetPostByPath(ctx, filePath); err == nil {
		postID = existing.ID
	}
	if err := s.replica.DeletePost(ctx, postID); err != nil {
		log.Error().Err(err).Str("path", filePath).Msg("Failed to remove post")
	}
}

func (s *SyncService) processFile(ctx context.Context, filePath string, info commitFileInfo) {
	if isImageFile(s.imagesDir, filePath) {
		s.processImageFile(ctx, info)
		return
	}
	s.processPostFile(ctx, info)
}

// processPostFile processes a single post file
// This function respects context cancellation for graceful shutdown
func (s *SyncService) processPostFile(ctx context.Context, info commitFileInfo) {
	raw, err := s.sourceRepo.GetFileContents(ctx, info.path, info.commitSHA)
	if err != nil {
		log.Error().Err(err).Str("path", info.path).Str("commitSHA", info.commitSHA).Msg("Failed to get file contents")
		return
	}

	post := persistence.DecodeFile(&domain.File{Path: info.path, SHA: info.blobSHA, Content: raw})
	post.CreatedAt = info.createdAt
	post.UpdatedAt = info.modifiedAt
	if existing, err := s.replica.GetPost(ctx, post.ID); err == nil {
		post.CreatedAt = existing.CreatedAt
	}

	if ctx.Err() != nil {
		log.Warn().Str("postID", post.ID).Msg("Dropping post update after cancellation")
		return
	}

	if err := s.replica.UpsertPost(ctx, post); err != nil {
		log.Error().Err(err).Str("postID", post.ID).Msg("Failed to upsert post")
		return
	}
}

func (s *SyncService) processImageFile(ctx context.Context, info commitFileInfo) {
	if s.images == nil {
		return
	}

	data, err := s.sourceRepo.GetFileContents(ctx, info.path, info.commitSHA)
	if err != nil {
		log.Error().Err(err).Str("path", info.path).Str("commitSHA", info.commitSHA).Msg("Failed to get image contents")
		return
	}
	if ctx.Err() != nil {
		return
	}

	img := &domain.Image{
		Path:      info.path,
		Hash:      calculateHash(data),
		Content:   data,
		UpdatedAt: info.modifiedAt,
		CreatedAt: info.createdAt,
	}
	if err := s.images.SaveImage(ctx, img); err != nil {
		log.Error().Err(err).Str("path", info.path).Msg("Failed to save image")
	}
}

// commitFileInfo tracks the last version of a file in a push and when it was first seen
type commitFileInfo struct {
	path       string
	blobSHA    string
	commitSHA  string
	createdAt  time.Time
	modifiedAt time.Time
}

// isPostFile checks if a file path is a post file directly inside the posts directory
func isPostFile(postsDir string, p string) bool {
	return path.Dir(p) == postsDir && persistence.IsPostFile(p)
}

// isImageFile checks if a file path is an image anywhere under the images directory
func isImageFile(imagesDir string, p string) bool {
	if !strings.HasPrefix(p, imagesDir+"/") {
		return false
	}
	ext := strings.ToLower(path.Ext(p))
	for _, e := range imageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func calculateHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
