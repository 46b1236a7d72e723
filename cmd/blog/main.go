package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/dfryer1193/artblog/blog/application"
	"github.com/dfryer1193/artblog/blog/session"
	"github.com/dfryer1193/artblog/cli"
	"github.com/dfryer1193/artblog/internal/app"
	"github.com/dfryer1193/artblog/internal/config"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, cli.ErrUsage) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	// stdout belongs to the command output and the MCP transport.
	config.SetupLogging(config.LogConfig{Level: cfg.Log.Level, Format: "console"}, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	backend, err := app.Open(ctx, &cfg)
	if err != nil {
		return err
	}
	defer backend.Close(context.Background())

	if len(args) > 0 && args[0] == "mcp" && backend.Sync != nil {
		if err := backend.Sync.Bootstrap(ctx); err != nil {
			return fmt.Errorf("failed to sync posts: %w", err)
		}
	}

	token := cfg.Server.AdminToken
	if cfg.Store.Backend == config.BackendGitHub {
		token = cfg.GitHub.Token
	}

	blog := &cli.Blog{
		Admin:   application.NewAdminService(backend.Stores, backend.AdminReplica()),
		Posts:   application.NewPostService(backend.Replica, application.NewMarkdownRenderer(cfg.Server.SiteURL, cfg.Markdown.CodeStyle), nil),
		Session: &session.Session{ID: "cli", Token: token},
	}
	if backend.Source != nil {
		blog.LocalDir = backend.Source.Root()
	}

	return cli.Run(ctx, blog, args)
}
