package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"gopkg.in/natefinch/lumberjack.v2"

	"marketwatch/internal/config"
	"marketwatch/internal/enrich"
	"marketwatch/internal/metrics"
	"marketwatch/internal/publisher"
	"marketwatch/internal/scheduler"
	"marketwatch/internal/service"
	"marketwatch/internal/source/marketplace"
	filestore "marketwatch/internal/storage/file"
	"marketwatch/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Setup logger
	logger := setupLogger(config.LogConfig{Level: "info"})

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.Log)

	m := metrics.New()
	if cfg.Metrics.Addr != "" {
		shutdown := metrics.StartServer(cfg.Metrics.Addr, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}

	// Initialize storage backend
	var (
		store  service.ListingStore
		ledger service.Ledger
	)
	switch cfg.Storage.Backend {
	case "postgres":
		db, err := sqlx.Connect("postgres", cfg.Database.DSN())
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			logger.Error("failed to ping database", "error", err)
			os.Exit(1)
		}
		logger.Info("connected to database")

		pgStore := postgres.NewStore(db)
		store = pgStore
		ledger = pgStore
	case "file":
		store = filestore.NewDayStore(cfg.Storage.OutputDir)
		ledger = filestore.NewLedger(filepath.Join(cfg.Storage.OutputDir, "seen_ids.txt"))
	default:
		logger.Error("unknown storage backend", "backend", cfg.Storage.Backend)
		os.Exit(1)
	}

	// Initialize alert publisher
	var pub service.Publisher
	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	// Initialize marketplace source
	src := marketplace.New(marketplace.Config{
		BaseURL:        cfg.API.BaseURL,
		Keywords:       cfg.API.Keywords,
		TaxonomyID:     cfg.API.TaxonomyID,
		Timeout:        cfg.API.Timeout,
		MaxAttempts:    cfg.API.Retry.MaxAttempts,
		InitialBackoff: cfg.API.Retry.InitialBackoff,
		MaxBackoff:     cfg.API.Retry.MaxBackoff,
		RequestsPerSec: cfg.API.RequestsPerSec,
	}, m, logger)

	enricher := enrich.NewEnricher(cfg.Risk, logger)

	pollService := service.NewPollService(
		src,
		store,
		ledger,
		pub,
		enricher,
		m,
		logger,
		cfg.Risk,
	)

	sched := scheduler.New(pollService, cfg.Poll.Interval, cfg.Poll.CycleTimeout, m, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	logger.Info("starting marketplace poller",
		"keywords", cfg.API.Keywords,
		"taxonomy_id", cfg.API.TaxonomyID,
		"interval", cfg.Poll.Interval,
		"backend", cfg.Storage.Backend,
	)

	if err := sched.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var logLevel slog.Level
	switch cfg.Level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var out io.Writer = os.Stdout
	if cfg.File != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(out, opts)
	return slog.New(handler)
}
