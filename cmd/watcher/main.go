package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/user/listing-watcher/internal/api"
	"github.com/user/listing-watcher/internal/archive"
	"github.com/user/listing-watcher/internal/config"
	"github.com/user/listing-watcher/internal/crawler"
	"github.com/user/listing-watcher/internal/deliver"
	"github.com/user/listing-watcher/internal/extractor"
	"github.com/user/listing-watcher/internal/monitoring"
	"github.com/user/listing-watcher/internal/notify"
	"github.com/user/listing-watcher/internal/renderer"
	"github.com/user/listing-watcher/internal/scheduler"
	"github.com/user/listing-watcher/internal/storage"
)

func main() {
	// Initialize structured logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("could not load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Metrics
	registry := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(registry)

	// Durable state
	searchStore := storage.NewSearchConfigStore(cfg.SearchConfigPath)
	publishedStore := storage.NewPublishedStore(cfg.PublishedIDsPath)

	// Crawl side
	rend := renderer.NewChromedp(cfg.Headless, time.Duration(cfg.PageLoadTimeout)*time.Second, logger)
	defer rend.Close()
	controller := crawler.NewController(rend, extractor.New(logger), cfg.BaseURL,
		time.Duration(cfg.PageDelay)*time.Second, metrics, logger)

	// Delivery side
	channel := notify.NewTelegram(cfg.TelegramAPIURL, cfg.TelegramToken, cfg.TelegramChatID, logger)
	if err := channel.CheckRecipient(ctx); err != nil {
		logger.Warn("notification chat check failed", zap.Error(err))
	}
	engine := deliver.NewEngine(publishedStore, channel,
		time.Duration(cfg.MessageDelay)*time.Second, metrics, logger)

	// Optional listing archive
	var archiver scheduler.Archiver
	var archivePinger api.Pinger
	if cfg.PostgresURL != "" {
		pg, err := archive.NewPostgres(ctx, cfg.PostgresURL, logger)
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer pg.Close()
		archiver = pg
		archivePinger = pg
		logger.Info("listing archive enabled")
	}

	sched := scheduler.New(searchStore, controller, engine, archiver,
		time.Duration(cfg.PollInterval)*time.Second, metrics, logger)

	// Ops server runs beside the pipeline so a long render never stalls it.
	server := api.NewServer(cfg.ServerPort, sched, publishedStore, archivePinger, registry, logger)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("could not start server", zap.Error(err))
		}
	}()
	logger.Info("server started", zap.String("port", cfg.ServerPort))

	// Blocks until the signal context is cancelled; the in-flight cycle
	// always completes first.
	sched.Run(ctx)

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("watcher exiting")
}
