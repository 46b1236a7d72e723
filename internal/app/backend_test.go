package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfryer1193/artblog/blog/session"
	"github.com/dfryer1193/artblog/internal/config"
)

func testConfig(t *testing.T, backend config.Backend) *config.Config {
	t.Helper()
	cfg := config.Default()
	dir := t.TempDir()
	cfg.Store.Backend = backend
	cfg.Store.LocalDir = dir
	cfg.Store.ImageDir = filepath.Join(dir, "images")
	cfg.SQLite.Path = filepath.Join(dir, "artblog.db")
	cfg.Server.AdminToken = "letmein"
	return &cfg
}

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()
	b, err := Open(ctx, testConfig(t, config.BackendSQLite))
	require.NoError(t, err)
	defer b.Close(ctx)

	assert.Nil(t, b.Sync)
	assert.Nil(t, b.AdminReplica())
	assert.False(t, b.Webhook)

	store, err := b.Stores(ctx, &session.Session{ID: "s"})
	require.NoError(t, err)
	posts, err := store.ListPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestOpenLocal(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, config.BackendLocal)
	postsDir := filepath.Join(cfg.Store.LocalDir, "src", "content", "posts")
	require.NoError(t, os.MkdirAll(postsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(postsDir, "kiln-notes.md"), []byte("---\ntitle: \"Kiln Notes\"\npubDate: \"2024-03-01\"\ndraft: false\n---\n\nCone 6.\n"), 0o644))

	b, err := Open(ctx, cfg)
	require.NoError(t, err)
	defer b.Close(ctx)

	require.NotNil(t, b.Sync)
	require.NotNil(t, b.Source)
	assert.Equal(t, postsDir, b.PostsDir())
	assert.Equal(t, []string{postsDir, filepath.Join(cfg.Store.LocalDir, "public", "images")}, b.WatchDirs())
	assert.NotNil(t, b.AdminReplica())

	require.NoError(t, b.Sync.Bootstrap(ctx))
	p, err := b.Replica.GetPost(ctx, "kiln-notes")
	require.NoError(t, err)
	assert.Equal(t, "Kiln Notes", p.Title)

	assert.NoError(t, b.Verify(ctx, "letmein"))
	assert.Error(t, b.Verify(ctx, "nope"))
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), testConfig(t, config.Backend("ftp")))
	assert.ErrorContains(t, err, "unknown store backend")
}

func TestTokenVerifier(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		admin   string
		token   string
		check   func(context.Context) error
		wantErr bool
	}{
		{name: "match", admin: "secret", token: "secret"},
		{name: "mismatch", admin: "secret", token: "guess", wantErr: true},
		{name: "login disabled", admin: "", token: "", wantErr: true},
		{name: "source check fails", admin: "secret", token: "secret", check: func(context.Context) error { return os.ErrNotExist }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tokenVerifier(tt.admin, tt.check)(ctx, tt.token)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSessionsPersistRememberedLogins(t *testing.T) {
	ctx := context.Background()
	b, err := Open(ctx, testConfig(t, config.BackendSQLite))
	require.NoError(t, err)
	defer b.Close(ctx)

	sessions, persistent := b.Sessions()
	sess, err := sessions.Login(ctx, "letmein", true)
	require.NoError(t, err)

	stored, err := persistent.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "letmein", stored.Token)

	_, err = sessions.Login(ctx, "wrong", true)
	assert.ErrorIs(t, err, session.ErrUnauthorized)
}
