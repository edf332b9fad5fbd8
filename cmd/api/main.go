package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/captionforge/captionforge/internal/config"
	"github.com/captionforge/captionforge/internal/database"
	"github.com/captionforge/captionforge/internal/generate"
	"github.com/captionforge/captionforge/internal/jobstore"
	"github.com/captionforge/captionforge/internal/logging"
	"github.com/captionforge/captionforge/internal/media"
	"github.com/captionforge/captionforge/internal/preset"
	"github.com/captionforge/captionforge/internal/queue"
	"github.com/captionforge/captionforge/internal/tracing"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if cfg.Tracing.Enabled {
		_, closer, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.JaegerEndpoint)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize tracer, continuing without tracing")
		} else {
			defer closer.Close()
		}
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	repo := database.NewRepository(db)

	ephemeral, err := jobstore.NewRedis(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, cfg.Jobs.TTL)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	store := jobstore.NewDual(ephemeral, repo)

	q, err := queue.New(cfg.Queue)
	if err != nil {
		logger.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()

	service := generate.NewService(generate.Deps{
		Store:   store,
		Videos:  repo,
		Tasks:   q,
		Catalog: preset.Default(),
		Logger:  logger,
		TempDir: cfg.Media.TempDir,
	})

	api := &API{
		repo:      repo,
		store:     store,
		service:   service,
		catalog:   preset.Default(),
		toolchain: media.NewFFmpeg(cfg.Media.FFmpegPath, cfg.Media.FFprobePath, logger),
		log:       logger,
	}

	router := setupRouter(api)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Infof("Starting API server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server stopped")
}
