// Package main is the entrypoint for the PlantIQ API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ishwarya142/plantiq/internal/ai"
	"github.com/Ishwarya142/plantiq/internal/ai/openai"
	"github.com/Ishwarya142/plantiq/internal/analysis"
	"github.com/Ishwarya142/plantiq/internal/api"
	"github.com/Ishwarya142/plantiq/internal/api/handler"
	mw "github.com/Ishwarya142/plantiq/internal/api/middleware"
	"github.com/Ishwarya142/plantiq/internal/cache"
	"github.com/Ishwarya142/plantiq/internal/config"
	"github.com/Ishwarya142/plantiq/internal/metrics"
	"github.com/Ishwarya142/plantiq/internal/objectstore"
	"github.com/Ishwarya142/plantiq/internal/queue"
	"github.com/Ishwarya142/plantiq/internal/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config. Fail fast on invalid config.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "ai_provider", cfg.AI.Provider, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL, cache.WithNamespace(cfg.Redis.Namespace))
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected", "namespace", cfg.Redis.Namespace)

	// 5. Create AI provider and the analysis pipeline in front of it
	aiProvider, err := openai.FromConfig(cfg.AI)
	if err != nil {
		return fmt.Errorf("create AI provider: %w", err)
	}
	slog.Info("AI provider initialized", "provider", aiProvider.Name(), "model", aiProvider.Model())

	m := metrics.New()
	svc := ai.NewAnalysisService(aiProvider, cfg.AI.InferenceTimeout,
		ai.WithCache(redisCache),
		ai.WithMetrics(m),
		ai.WithTemperature(cfg.AI.Temperature),
	)
	client := analysis.NewClient(svc,
		analysis.WithCache(cache.NewMemoryCache(cfg.Analysis.CacheTTL, cache.WithMaxEntries(cfg.Analysis.CacheMaxEntries))),
		analysis.WithQueue(queue.New(cfg.Analysis.RequestDelay)),
		analysis.WithMetrics(m),
	)
	m.RegisterQueueDepth(client.QueueLen)

	// 6. Create stores
	pgStore := store.NewPostgresStore(pool)

	images, closeImages, err := newImageStore(ctx, cfg.Images)
	if err != nil {
		return fmt.Errorf("create image store: %w", err)
	}
	defer closeImages()

	// 7. Build router with dependencies
	plants := handler.NewPlants(pgStore, images)
	accounts := handler.NewAccounts(pgStore)

	deps := api.Dependencies{
		Auth:      mw.NewAuth(pgStore),
		RateLimit: mw.NewRateLimit(redisCache, cfg.Server.RateLimitPerMin),
		Metrics:   m,

		HealthHandler: handler.NewHealthHandler(pgStore, redisCache),

		PlantAIAnalysisHandler: handler.NewPlantAIAnalysisHandler(svc),
		IdentifyPlantHandler:   handler.NewIdentifyPlantHandler(svc),

		RegisterHandler:  accounts.Register,
		MeHandler:        accounts.Me,
		CreateKeyHandler: accounts.CreateKey,
		ListKeysHandler:  accounts.ListKeys,
		RevokeKeyHandler: accounts.RevokeKey,

		ListPlants:       plants.List,
		CreatePlant:      plants.Create,
		GetPlant:         plants.Get,
		UpdatePlant:      plants.Update,
		DeletePlant:      plants.Delete,
		UploadPlantImage: plants.UploadImage,
		InsightHandler:   handler.NewInsightHandler(pgStore, client),
	}

	router := api.NewRouter(deps)

	// 8. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AI.InferenceTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := client.Close(shutdownCtx); err != nil {
		slog.Warn("analysis queue did not drain", "error", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// newImageStore returns the GCS store when a bucket is configured and an
// in-memory store otherwise.
func newImageStore(ctx context.Context, cfg config.ImageConfig) (objectstore.ImageStore, func() error, error) {
	if cfg.Bucket == "" {
		slog.Warn("IMAGE_BUCKET not set, plant photos are kept in memory")
		return objectstore.NewMemoryStore(), func() error { return nil }, nil
	}
	gcs, err := objectstore.NewGCSStore(ctx, cfg.Bucket)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("image store initialized", "bucket", cfg.Bucket)
	return gcs, gcs.Close, nil
}
