package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfryer1193/artblog/blog/domain"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "src/content/posts", cfg.Store.PostsPath)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
  site_url: https://art.example.com
store:
  backend: github
github:
  owner: studio
  repo: site
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, BackendGitHub, cfg.Store.Backend)
	assert.Equal(t, "studio", cfg.GitHub.Owner)
	assert.Equal(t, "onedark", cfg.Markdown.CodeStyle, "unset fields keep their defaults")
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"PORT":            "3000",
		"STORE_BACKEND":   "Mongo",
		"MONGO_URI":       "mongodb://localhost:27017",
		"MONGO_DATABASE":  "studio",
		"SQLITE_DB_PATH":  "/data/blog.db",
		"REDIS_ADDR":      "localhost:6379",
		"WEBHOOK_SECRET":  "s3cret",
		"SITE_URL":        "https://art.example.com",
		"LOCAL_POSTS_DIR": "",
	}))
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, BackendMongo, cfg.Store.Backend)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, "studio", cfg.Mongo.Database)
	assert.Equal(t, "/data/blog.db", cfg.SQLite.Path)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "s3cret", cfg.Server.WebhookSecret)
	assert.Equal(t, ".", cfg.Store.LocalDir, "empty variables do not override")
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnvBadPort(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.ApplyEnv(envMap(map[string]string{"PORT": "eighty"})))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		fields []string
	}{
		{
			name:   "github without repository",
			modify: func(c *Config) { c.Store.Backend = BackendGitHub },
			fields: []string{"github.owner", "github.repo"},
		},
		{
			name:   "mongo without uri",
			modify: func(c *Config) { c.Store.Backend = BackendMongo },
			fields: []string{"mongo.uri"},
		},
		{
			name:   "unknown backend",
			modify: func(c *Config) { c.Store.Backend = "ftp" },
			fields: []string{"store.backend"},
		},
		{
			name: "several problems at once",
			modify: func(c *Config) {
				c.Server.Port = 0
				c.Server.SiteURL = "not a url"
				c.Log.Format = "xml"
			},
			fields: []string{"server.port", "server.site_url", "log.format"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)

			err := cfg.Validate()
			require.ErrorIs(t, err, domain.ErrInvalid)

			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			got := make([]string, 0, len(ve.Items))
			for _, item := range ve.Items {
				got = append(got, item.Field)
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}

func TestSetupLogging(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	SetupLogging(LogConfig{Level: "warn"}, &buf)
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"message":"shown"`)

	SetupLogging(LogConfig{Level: "bogus"}, &buf)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
