package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dfryer1193/artblog/blog/application"
	"github.com/dfryer1193/artblog/internal/app"
	"github.com/dfryer1193/artblog/internal/config"
	"github.com/dfryer1193/artblog/internal/feed"
	"github.com/dfryer1193/artblog/internal/middleware"
	"github.com/dfryer1193/artblog/internal/rest"
	"github.com/dfryer1193/artblog/internal/web"
	"github.com/dfryer1193/artblog/shared/localfs"
	webhookhttp "github.com/dfryer1193/artblog/webhook/http"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	config.SetupLogging(cfg.Log, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := app.Open(ctx, &cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open post store")
	}
	defer func() {
		if err := backend.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("Failed to gracefully close backend")
		}
	}()

	if backend.Sync != nil {
		if err := backend.Sync.Bootstrap(ctx); err != nil {
			log.Error().Err(err).Msg("Initial sync failed, serving the replica as is")
		}
	}

	renderer := application.NewMarkdownRenderer(cfg.Server.SiteURL, cfg.Markdown.CodeStyle)
	posts := application.NewPostService(backend.Replica, renderer, backend.RenderCache(ctx))
	admin := application.NewAdminService(backend.Stores, backend.AdminReplica())
	sessions, persistentSessions := backend.Sessions()

	var wg sync.WaitGroup
	wg.Go(func() {
		app.SweepSessions(ctx, persistentSessions)
	})
	if backend.Source != nil {
		watcher := localfs.NewWatcher(backend.WatchDirs(), localfs.DefaultDebounce, backend.Sync.SyncAll)
		wg.Go(func() {
			if err := watcher.Run(ctx); err != nil {
				log.Error().Err(err).Msg("Post watcher stopped")
			}
		})
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.LoggingMiddleware())
	router.Use(gin.CustomRecovery(middleware.HandlePanics()))

	rest.NewApi(router, posts, admin, sessions, backend.Images)
	if _, err := web.NewPages(router, posts, web.Site{Title: cfg.Server.SiteTitle, URL: cfg.Server.SiteURL}); err != nil {
		log.Fatal().Err(err).Msg("Failed to load page templates")
	}
	router.GET("/rss.xml", feed.Handler(posts, feed.Channel{Title: cfg.Server.SiteTitle, SiteURL: cfg.Server.SiteURL}))

	if backend.Webhook {
		hook, err := webhookhttp.NewWebhookHandler(cfg.Server.WebhookSecret, backend.Sync)
		if err != nil {
			log.Warn().Err(err).Msg("Push webhook disabled")
		} else {
			router.POST(webhookhttp.WebhookPath, gin.WrapH(hook.Router()))
		}
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("backend", string(cfg.Store.Backend)).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown server")
	}
	wg.Wait()

	log.Info().Msg("Server stopped")
}
