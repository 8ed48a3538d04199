package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arnold/charity-quests-api/internal/config"
	"github.com/arnold/charity-quests-api/internal/database"
	"github.com/arnold/charity-quests-api/internal/events"
	"github.com/arnold/charity-quests-api/internal/handlers"
	"github.com/arnold/charity-quests-api/internal/middleware"
	"github.com/arnold/charity-quests-api/internal/repository"
	"github.com/arnold/charity-quests-api/internal/routes"
	"github.com/arnold/charity-quests-api/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	})))

	if err := run(cfg); err != nil {
		slog.Error("Server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	slog.Info("Database ready")

	repo, err := repository.New(db, cfg.ReferenceCacheSize, cfg.ReferenceCacheTTL)
	if err != nil {
		return fmt.Errorf("create repository: %w", err)
	}

	bus := events.NewBus(cfg.EventBufferSize)
	hub := handlers.NewHub()
	push := services.NewPushService(ctx, cfg.FCMServiceAccount, repo.Users())
	bus.Subscribe("websocket", hub)
	bus.Subscribe("activity", repo.Activities())
	if push.Enabled() {
		bus.Subscribe("push", push)
	}

	achievements := services.NewAchievementService(repo, bus)
	h := &handlers.Handler{
		Quests:       services.NewQuestService(repo, bus),
		Achievements: achievements,
		Categories:   services.NewCategoryService(repo),
		Aggregator:   services.NewAggregator(repo),
		Push:         push,
		Activity:     repo.Activities(),
		Hub:          hub,
	}

	app := fiber.New(fiber.Config{
		AppName: "Charity Quests API",
	})
	app.Use(recover.New())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(middleware.LoggingMiddleware())
	routes.Setup(app, h, cfg.JWTSecret)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bus.Run(gctx)
		return nil
	})
	g.Go(func() error {
		reconcile(gctx, achievements, cfg.ReconcileInterval, cfg.OrphanGracePeriod)
		return nil
	})
	g.Go(func() error {
		slog.Info("Starting server", slog.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	err = g.Wait()
	if sqlDB, dbErr := db.DB(); dbErr == nil {
		sqlDB.Close()
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("Server shutdown complete")
	return nil
}

// reconcile periodically removes private achievements whose quest is gone.
func reconcile(ctx context.Context, svc *services.AchievementService, every, grace time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ids, err := svc.ReconcileOrphans(ctx, grace)
			if err != nil {
				slog.Error("Reconcile orphan achievements failed", slog.Any("error", err))
				continue
			}
			if len(ids) > 0 {
				slog.Info("Reconciled orphan achievements", slog.Int("count", len(ids)))
			}
		}
	}
}
