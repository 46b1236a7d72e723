// Package config loads the blog configuration: defaults, then an optional YAML
// file, then environment overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dfryer1193/artblog/blog/domain"
)

// DefaultPath is read when BLOG_CONFIG is not set.
const DefaultPath = "./blog.yaml"

type Backend string

const (
	BackendSQLite Backend = "sqlite"
	BackendMongo  Backend = "mongo"
	BackendGitHub Backend = "github"
	BackendLocal  Backend = "local"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	GitHub   GitHubConfig   `yaml:"github"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Redis    RedisConfig    `yaml:"redis"`
	Markdown MarkdownConfig `yaml:"markdown"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port          int    `yaml:"port"`
	SiteURL       string `yaml:"site_url"`
	SiteTitle     string `yaml:"site_title"`
	WebhookSecret string `yaml:"webhook_secret"`
	// AdminToken is the login credential for backends that do not verify tokens themselves.
	AdminToken string `yaml:"admin_token"`
}

type StoreConfig struct {
	Backend    Backend `yaml:"backend"`
	PostsPath  string  `yaml:"posts_path"`
	ImagesPath string  `yaml:"images_path"`
	// LocalDir is the root of the local source tree.
	LocalDir string `yaml:"local_dir"`
	// ImageDir is where mirrored images are kept on disk.
	ImageDir string `yaml:"image_dir"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type GitHubConfig struct {
	Owner  string `yaml:"owner"`
	Repo   string `yaml:"repo"`
	Branch string `yaml:"branch"`
	// Token is used for server side reads; authoring uses each session's own token.
	Token string `yaml:"token"`
}

type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type RedisConfig struct {
	Addr string `yaml:"addr"`
}

type MarkdownConfig struct {
	CodeStyle string `yaml:"code_style"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:      8080,
			SiteURL:   "http://localhost:8080",
			SiteTitle: "Studio Notes",
		},
		Store: StoreConfig{
			Backend:    BackendSQLite,
			PostsPath:  "src/content/posts",
			ImagesPath: "public/images",
			LocalDir:   ".",
			ImageDir:   "./images",
		},
		SQLite: SQLiteConfig{
			Path: "./artblog.db",
		},
		Mongo: MongoConfig{
			Database:   "artblog",
			Collection: "posts",
		},
		Markdown: MarkdownConfig{
			CodeStyle: "onedark",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the file at path over the defaults, applies environment overrides
// and validates the result. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFromEnv loads the file named by BLOG_CONFIG, or DefaultPath.
func LoadFromEnv() (Config, error) {
	path := os.Getenv("BLOG_CONFIG")
	if path == "" {
		path = DefaultPath
	}
	return Load(path)
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}

	var backend string
	str("STORE_BACKEND", &backend)
	if backend != "" {
		c.Store.Backend = Backend(strings.ToLower(backend))
	}

	str("SITE_URL", &c.Server.SiteURL)
	str("WEBHOOK_SECRET", &c.Server.WebhookSecret)
	str("ADMIN_TOKEN", &c.Server.AdminToken)
	str("SQLITE_DB_PATH", &c.SQLite.Path)
	str("POSTS_PATH", &c.Store.PostsPath)
	str("IMAGES_PATH", &c.Store.ImagesPath)
	str("LOCAL_POSTS_DIR", &c.Store.LocalDir)
	str("IMAGE_DIR", &c.Store.ImageDir)
	str("GITHUB_OWNER", &c.GitHub.Owner)
	str("GITHUB_REPO", &c.GitHub.Repo)
	str("GITHUB_BRANCH", &c.GitHub.Branch)
	str("GITHUB_TOKEN", &c.GitHub.Token)
	str("MONGO_URI", &c.Mongo.URI)
	str("MONGO_DATABASE", &c.Mongo.Database)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	return nil
}

func (c Config) Validate() error {
	var ve domain.ValidationError

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		ve.Add("server.port", "server.port must be between 1 and 65535.")
	}
	if !isValidAbsURL(c.Server.SiteURL) {
		ve.Add("server.site_url", "server.site_url must be a valid absolute URL.")
	}
	if strings.TrimSpace(c.Store.PostsPath) == "" {
		ve.Add("store.posts_path", "store.posts_path must not be empty.")
	}

	switch c.Store.Backend {
	case BackendSQLite:
	case BackendLocal:
		if strings.TrimSpace(c.Store.LocalDir) == "" {
			ve.Add("store.local_dir", "store.local_dir must not be empty.")
		}
	case BackendGitHub:
		if c.GitHub.Owner == "" {
			ve.Add("github.owner", "github.owner is required for the github backend.")
		}
		if c.GitHub.Repo == "" {
			ve.Add("github.repo", "github.repo is required for the github backend.")
		}
	case BackendMongo:
		if c.Mongo.URI == "" {
			ve.Add("mongo.uri", "mongo.uri is required for the mongo backend.")
		}
		if c.Mongo.Database == "" {
			ve.Add("mongo.database", "mongo.database is required for the mongo backend.")
		}
	default:
		ve.Add("store.backend", "store.backend must be one of sqlite, mongo, github or local.")
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "json", "console":
	default:
		ve.Add("log.format", "log.format must be 'json' or 'console'.")
	}

	return ve.Err()
}

func isValidAbsURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}
