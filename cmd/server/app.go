package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"listing-site-backend/internal/config"
	"listing-site-backend/internal/database"
	"listing-site-backend/internal/handlers"
	"listing-site-backend/internal/media"
	"listing-site-backend/internal/publish"
	"listing-site-backend/internal/services"
	"listing-site-backend/internal/session"
	"listing-site-backend/internal/style"
	"listing-site-backend/internal/supabase"
	"listing-site-backend/internal/telegram"
)

const shutdownTimeout = 10 * time.Second

func run(ctx context.Context, _ *cli.Command) error {
	e := envFromContext(ctx)
	cfg, log := e.Cfg, e.Log

	if cfg.Bot.Token == "" {
		return errors.New("bot token is not configured, set bot.token or BOT_TOKEN")
	}

	repo, err := openRepository(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer repo.Close()

	api, err := tgbotapi.NewBotAPI(cfg.Bot.Token.String())
	if err != nil {
		return fmt.Errorf("unable to connect to telegram: %w", err)
	}
	api.Debug = cfg.Bot.Debug
	handle := cfg.Bot.Handle
	if handle == "" {
		handle = api.Self.UserName
	}
	log.Info("Authorized", zap.String("bot", api.Self.UserName))

	fetcher := telegram.NewFetcher(api, cfg.Media.FetchTimeout, cfg.Media.FetchRetries, log)

	backend, sitesDir, err := openBackend(cfg)
	if err != nil {
		return err
	}
	sink := publish.NewSink(backend, fetcher, publish.Options{LinkBase: cfg.Publish.LinkBase, BotHandle: handle}, log)

	styles := style.NewResolver()
	listings := services.NewListingService(repo, sink, styles, services.Options{Badge: cfg.Page.Badge, Lang: cfg.Page.Lang}, log)
	normalizer := media.NewNormalizer(fetcher, media.Options{
		MaxWidth:    cfg.Media.MaxWidth,
		MaxHeight:   cfg.Media.MaxHeight,
		JPEGQuality: cfg.Media.JPEGQuality,
	}, log)

	store := session.NewStore(cfg.Session.IdleTimeout, log)
	machine := session.NewMachine(store, listings, normalizer, styles, session.Config{
		MaxPhotos: cfg.Session.MaxPhotos,
		ListLimit: cfg.Session.ListLimit,
	}, log)
	bot := telegram.NewBot(api, cfg.Bot.PollTimeout, log)
	dispatcher := session.NewDispatcher(machine, bot.Deliver, log)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		store.Run(gctx, cfg.Session.SweepInterval)
		return nil
	})
	g.Go(func() error {
		err := bot.Run(gctx, dispatcher)
		dispatcher.Wait()
		if err == nil && gctx.Err() == nil {
			err = errors.New("telegram update channel closed")
		}
		return err
	})

	if cfg.Server.Enabled {
		gin.SetMode(cfg.Server.Mode)
		srv := &http.Server{
			Addr: ":" + cfg.Server.Port,
			Handler: handlers.NewRouter(listings, handlers.RouterOptions{
				JWTSecret: cfg.Server.JWTSecret.String(),
				SitesDir:  sitesDir,
			}, log),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			log.Info("Server starting", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}

	log.Info("Listing bot running", zap.String("handle", handle), zap.String("backend", cfg.Publish.Backend), zap.String("database", cfg.Database.Driver))
	return g.Wait()
}

func migrate(ctx context.Context, _ *cli.Command) error {
	e := envFromContext(ctx)
	cfg, log := e.Cfg, e.Log

	if cfg.Database.Driver == "sqlite" {
		repo, err := database.OpenSQLite(ctx, cfg.Database.Path, 1, log)
		if err != nil {
			return err
		}
		log.Info("SQLite schema is up to date", zap.String("path", cfg.Database.Path))
		return repo.Close()
	}

	m, err := database.NewMigrator(cfg.Database.URL.String(), log)
	if err != nil {
		return fmt.Errorf("failed to initialize migrator: %w", err)
	}
	defer m.Close()

	applied, err := m.Run(ctx)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Info("Migrations completed", zap.Strings("applied", applied))
	return nil
}

func openRepository(ctx context.Context, cfg *config.Config, log *zap.Logger) (database.Repository, error) {
	switch cfg.Database.Driver {
	case "postgres":
		db, err := supabase.NewDatabaseClient(cfg.Database.URL.String())
		if err != nil {
			return nil, err
		}
		if _, err := database.NewMigratorForDB(db.DB(), log).Run(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migration failed: %w", err)
		}
		return db, nil
	default:
		return database.OpenSQLite(ctx, cfg.Database.Path, cfg.Database.PoolSize, log)
	}
}

// openBackend returns the publication backend and, for the local one, the
// directory the HTTP server exposes under /sites.
func openBackend(cfg *config.Config) (publish.Backend, string, error) {
	if cfg.Publish.Backend == "supabase" {
		client, err := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.Key.String())
		if err != nil {
			return nil, "", err
		}
		return supabase.NewStorageClient(client, cfg.Supabase.Bucket), "", nil
	}

	backend, err := publish.NewLocalBackend(cfg.Publish.Dir, cfg.Publish.BaseURL)
	if err != nil {
		return nil, "", err
	}
	return backend, cfg.Publish.Dir, nil
}
