// Package app wires configuration into stores and services for the binaries.
package app

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dfryer1193/artblog/blog/application"
	"github.com/dfryer1193/artblog/blog/domain"
	"github.com/dfryer1193/artblog/blog/persistence"
	"github.com/dfryer1193/artblog/blog/session"
	"github.com/dfryer1193/artblog/internal/config"
	"github.com/dfryer1193/artblog/shared/cache"
	"github.com/dfryer1193/artblog/shared/db/sqlite"
	gh "github.com/dfryer1193/artblog/shared/github"
	"github.com/dfryer1193/artblog/shared/localfs"
)

const sessionSweepInterval = time.Hour

// Backend is the opened storage for one configuration.
type Backend struct {
	Config  *config.Config
	DB      *sqlite.SQLiteDB
	Replica *persistence.SQLitePostRepository
	Images  *persistence.SQLiteImageRepository

	// Stores resolves the authoring store for a session.
	Stores application.StoreFactory
	// Verify checks a login credential against the backend.
	Verify session.Verifier
	// Sync keeps the replica current. Nil for the sqlite backend, whose store is the replica.
	Sync *application.SyncService
	// Source is the local checkout, set for the local backend only.
	Source *localfs.DirSource
	// Webhook is true when push events can be applied.
	Webhook bool

	mongo *mongo.Client
}

// Open connects the replica database and the configured post store.
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	database := sqlite.NewSQLiteDB(&sqlite.SQLiteConfig{Path: cfg.SQLite.Path})
	if err := database.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	b := &Backend{
		Config:  cfg,
		DB:      database,
		Replica: persistence.NewPostRepository(database.DB()),
		Images:  persistence.NewImageRepository(database.DB(), cfg.Store.ImageDir),
	}

	var err error
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		b.openSQLite()
	case config.BackendLocal:
		err = b.openLocal(ctx)
	case config.BackendGitHub:
		err = b.openGitHub(ctx)
	case config.BackendMongo:
		err = b.openMongo(ctx)
	default:
		err = fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	if err != nil {
		b.Close(ctx)
		return nil, err
	}

	log.Info().Str("backend", string(cfg.Store.Backend)).Msg("Opened post store")
	return b, nil
}

func (b *Backend) syncConfig() application.SyncConfig {
	return application.SyncConfig{
		PostsDir:       b.Config.Store.PostsPath,
		ImagesDir:      b.Config.Store.ImagesPath,
		MainBranchName: b.Config.GitHub.Branch,
	}
}

func (b *Backend) openSQLite() {
	b.Stores = application.StaticStore(persistence.SQLitePostStore{SQLitePostRepository: b.Replica})
	b.Verify = tokenVerifier(b.Config.Server.AdminToken, nil)
}

func (b *Backend) openLocal(ctx context.Context) error {
	source := localfs.NewDirSource(b.Config.Store.LocalDir)
	if err := source.Verify(ctx); err != nil {
		return fmt.Errorf("failed to open local source: %w", err)
	}

	store := persistence.NewFilePostStore(source, b.Config.Store.PostsPath)
	b.Source = source
	b.Stores = application.StaticStore(store)
	b.Verify = tokenVerifier(b.Config.Server.AdminToken, source.Verify)
	b.Sync = application.NewSyncService(b.Replica, store, nil, source, b.Images, b.syncConfig())
	return nil
}

func (b *Backend) openGitHub(ctx context.Context) error {
	cfg := b.Config.GitHub
	repo := gh.NewGithubSourceRepository(gh.NewClient(cfg.Token), cfg.Owner, cfg.Repo, cfg.Branch)

	syncCfg := b.syncConfig()
	if syncCfg.MainBranchName == "" {
		branch, err := repo.GetDefaultBranchName(ctx)
		if err != nil {
			return fmt.Errorf("failed to get default branch name: %w", err)
		}
		syncCfg.MainBranchName = branch
	}

	postsPath := b.Config.Store.PostsPath
	b.Stores = func(_ context.Context, sess *session.Session) (domain.PostStore, error) {
		return persistence.NewFilePostStore(repo.WithToken(sess.Token), postsPath), nil
	}
	b.Verify = func(ctx context.Context, token string) error {
		return repo.WithToken(token).Verify(ctx)
	}
	b.Sync = application.NewSyncService(b.Replica, persistence.NewFilePostStore(repo, postsPath), repo, repo, b.Images, syncCfg)
	b.Webhook = true
	return nil
}

func (b *Backend) openMongo(ctx context.Context) error {
	client, err := persistence.ConnectMongo(ctx, b.Config.Mongo.URI)
	if err != nil {
		return err
	}
	b.mongo = client

	collection := b.Config.Mongo.Collection
	if collection == "" {
		collection = persistence.DefaultMongoCollection
	}
	store := persistence.NewMongoPostStore(client.Database(b.Config.Mongo.Database).Collection(collection))
	b.Stores = application.StaticStore(store)
	b.Verify = tokenVerifier(b.Config.Server.AdminToken, nil)
	b.Sync = application.NewSyncService(b.Replica, store, nil, nil, nil, b.syncConfig())
	return nil
}

// AdminReplica is the replica authoring writes are mirrored into, or nil when the
// store is the replica itself.
func (b *Backend) AdminReplica() domain.PostRepository {
	if b.Config.Store.Backend == config.BackendSQLite {
		return nil
	}
	return b.Replica
}

// Sessions builds the session manager, persisting remembered sessions in SQLite.
func (b *Backend) Sessions() (*session.Manager, *session.SQLiteStore) {
	persistent := session.NewSQLiteStore(b.DB.DB())
	return session.NewManager(nil, persistent, b.Verify), persistent
}

// RenderCache connects the optional Redis render cache. It returns nil when Redis
// is not configured or cannot be reached.
func (b *Backend) RenderCache(ctx context.Context) application.RenderCache {
	if b.Config.Redis.Addr == "" {
		return nil
	}
	client, err := cache.NewRedisClient(ctx, b.Config.Redis.Addr)
	if err != nil {
		log.Warn().Err(err).Str("addr", b.Config.Redis.Addr).Msg("Render cache disabled")
		return nil
	}
	return cache.NewRedisCache(client)
}

// PostsDir is the local directory holding post files, for the local backend.
func (b *Backend) PostsDir() string {
	return filepath.Join(b.Config.Store.LocalDir, filepath.FromSlash(b.Config.Store.PostsPath))
}

// WatchDirs are the local directories whose changes call for a resync: posts and
// mirrored images.
func (b *Backend) WatchDirs() []string {
	images := b.Config.Store.ImagesPath
	if images == "" {
		images = application.DefaultImagesPath
	}
	return []string{b.PostsDir(), filepath.Join(b.Config.Store.LocalDir, filepath.FromSlash(images))}
}

// SweepSessions removes expired persisted sessions until ctx is done.
func SweepSessions(ctx context.Context, store *session.SQLiteStore) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := store.DeleteExpired(ctx, now)
			if err != nil {
				log.Warn().Err(err).Msg("Failed to sweep expired sessions")
				continue
			}
			if n > 0 {
				log.Info().Int64("count", n).Msg("Removed expired sessions")
			}
		}
	}
}

func (b *Backend) Close(ctx context.Context) error {
	var errs []error
	if b.Sync != nil {
		errs = append(errs, b.Sync.Close())
	}
	if b.mongo != nil {
		errs = append(errs, b.mongo.Disconnect(ctx))
	}
	errs = append(errs, b.DB.Close())
	return errors.Join(errs...)
}

// tokenVerifier accepts only the configured admin token. An empty admin token
// disables login.
func tokenVerifier(adminToken string, check func(ctx context.Context) error) session.Verifier {
	return func(ctx context.Context, token string) error {
		if adminToken == "" {
			return errors.New("admin login is not configured")
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(adminToken)) != 1 {
			return errors.New("token does not match")
		}
		if check != nil {
			return check(ctx)
		}
		return nil
	}
}
