package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/soracho/isomap/config"
	"github.com/soracho/isomap/kv"
	"github.com/soracho/isomap/llm"
	"github.com/soracho/isomap/llm/gemini"
	"github.com/soracho/isomap/llm/openrouter"
	"github.com/soracho/isomap/logger"
	"github.com/soracho/isomap/middleware"
	"github.com/soracho/isomap/router"
	"github.com/soracho/isomap/services"
	"github.com/soracho/isomap/storage"
)

func main() {
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, logger.DefaultOptions)))

	if err := run(); err != nil {
		slog.Error("shutting down due to error", logger.Err(err))
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := newKVStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing kv store: %w", err)
	}
	defer store.Close()

	blobs, err := storage.NewGCSStore(ctx, cfg.GCSBucketName)
	if err != nil {
		return fmt.Errorf("initializing blob store: %w", err)
	}
	defer blobs.Close()

	generator, err := newGenerator(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing generation client: %w", err)
	}

	limiter := services.NewRateLimiter(store, cfg.DailyGenerationLimit)
	gallery := services.NewGalleryService(store, cfg.GalleryCacheTTL)
	images := services.NewImageService(generator, store, blobs, limiter, gallery, cfg.ImageAutoSave)
	likes := services.NewLikeService(store, limiter, gallery)

	app := fiber.New(fiber.Config{AppName: "isomap"})
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(middleware.ClientIP())
	router.SetupRoutes(app, router.Deps{
		Images:  images,
		Gallery: gallery,
		Likes:   likes,
	})

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		s := <-sigCh
		slog.Info("shutting down due to signal", "signal", s.String())
		if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
			slog.Error("forced shutdown", logger.Err(err))
		}
	}()

	slog.Info("server listening", "port", cfg.HTTPPort, "kv", cfg.KVBackend, "generation", cfg.GenerationBackend)
	return app.Listen(":" + cfg.HTTPPort)
}

func newKVStore(ctx context.Context, cfg *config.Config) (kv.Store, error) {
	switch cfg.KVBackend {
	case config.KVBackendRedis:
		return kv.NewRedisStore(ctx, cfg.RedisURL)
	case config.KVBackendPostgres:
		return kv.NewPostgresStore(cfg.DatabaseURL)
	case config.KVBackendMemory:
		slog.Warn("using in-memory kv store; data will not survive restarts")
		return kv.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown kv backend %q", cfg.KVBackend)
	}
}

func newGenerator(ctx context.Context, cfg *config.Config) (llm.ImageGenerator, error) {
	switch cfg.GenerationBackend {
	case config.GenerationBackendGemini:
		return gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.ImageModel, cfg.BasePrompt, cfg.GoogleMapsAPIKey)
	default:
		return openrouter.NewClient(cfg.OpenRouterAPIKey, cfg.ImageModel, cfg.BasePrompt, cfg.GoogleMapsAPIKey)
	}
}
