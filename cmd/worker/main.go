package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/captionforge/captionforge/internal/config"
	"github.com/captionforge/captionforge/internal/database"
	"github.com/captionforge/captionforge/internal/generate"
	"github.com/captionforge/captionforge/internal/jobstore"
	"github.com/captionforge/captionforge/internal/logging"
	"github.com/captionforge/captionforge/internal/media"
	"github.com/captionforge/captionforge/internal/metrics"
	"github.com/captionforge/captionforge/internal/preset"
	"github.com/captionforge/captionforge/internal/queue"
	"github.com/captionforge/captionforge/internal/render"
	"github.com/captionforge/captionforge/internal/republish"
	"github.com/captionforge/captionforge/internal/storage"
	"github.com/captionforge/captionforge/internal/tracing"
	"github.com/captionforge/captionforge/internal/transcribe"
	"github.com/captionforge/captionforge/internal/webhook"
)

const metricsPort = 9091

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
		_, closer, err := tracing.InitTracer(cfg.Tracing.ServiceName+"-worker", cfg.Tracing.JaegerEndpoint)
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

	stor, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	q, err := queue.New(cfg.Queue)
	if err != nil {
		logger.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()

	if err := os.MkdirAll(cfg.Media.TempDir, 0755); err != nil {
		logger.Fatalf("Failed to create temp directory: %v", err)
	}

	toolchain := media.NewFFmpeg(cfg.Media.FFmpegPath, cfg.Media.FFprobePath, logger)
	fonts := render.NewFontResolver(cfg.Render.FontDir, cfg.Render.StorageFontDir)
	engine := render.NewEngine(toolchain, fonts, logger, cfg.Media.TempDir, cfg.Render.FrameWorkers)
	bridge := republish.NewBridge(repo, nil, logger)

	endpoints := make([]webhook.Endpoint, 0, len(cfg.Webhooks))
	for _, w := range cfg.Webhooks {
		endpoints = append(endpoints, webhook.Endpoint{URL: w.URL, Secret: w.Secret})
	}
	notifier := webhook.NewNotifier(endpoints, logger)

	service := generate.NewService(generate.Deps{
		Store:       store,
		Videos:      repo,
		Toolchain:   toolchain,
		Transcriber: transcribe.NewClient(cfg.Transcriber),
		Catalog:     preset.Default(),
		Tasks:       q,
		Uploader:    stor,
		Renderer:    engine,
		Republisher: bridge,
		Notifier:    notifier,
		Logger:      logger,
		TempDir:     cfg.Media.TempDir,
	})

	metricsServer := metrics.NewServer(metricsPort)
	go func() {
		if err := metricsServer.Start(); err != nil {
			logger.ErrorWithErr("Metrics server stopped", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutting down worker")
		cancel()
	}()

	handler := func(task *queue.Task) error {
		taskLog := logger.WithGenerationID(task.GenerationID).WithField("kind", task.Kind)
		taskLog.Info("Processing task")

		var err error
		switch task.Kind {
		case queue.TaskGenerate:
			err = service.Run(ctx, task.GenerationID)
		case queue.TaskRender:
			err = service.Render(ctx, task.GenerationID)
		default:
			err = fmt.Errorf("unknown task kind %q", task.Kind)
		}

		if err != nil {
			taskLog.ErrorWithErr("Task failed", err)
			return err
		}
		taskLog.Info("Task completed")
		return nil
	}

	logger.Info("Worker started, waiting for tasks")
	if err := q.ConsumeTasks(ctx, handler); err != nil {
		logger.Fatalf("Failed to consume tasks: %v", err)
	}

	<-ctx.Done()
	metricsServer.Shutdown(context.Background())
	logger.Info("Worker stopped")
}
