package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/dupe-guard/api"
	"github.com/yourusername/dupe-guard/internal/app"
	"github.com/yourusername/dupe-guard/internal/domain"
	"github.com/yourusername/dupe-guard/internal/fingerprint"
	"github.com/yourusername/dupe-guard/internal/infrastructure"
	"github.com/yourusername/dupe-guard/pkg/logger"
)

var version = "1.0.0"

var configPath = flag.String("config", "", "Path to config file (default: ./configs, ~/.dupe-guard, /etc/dupe-guard)")

func main() {
	flag.Parse()

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Category event logs (dedup, error) are optional
	var multiLog *logger.MultiLogger
	if config.Logging.LogsDir != "" {
		multiLog, err = logger.NewMultiLogger(logger.MultiLoggerConfig{
			Level:   config.Logging.Level,
			LogsDir: config.Logging.LogsDir,
		})
		if err != nil {
			log.Fatal("Failed to initialize event logs", zap.Error(err))
		}
		defer multiLog.Close()
	}

	log.Info("Starting dupe-guard server",
		zap.String("version", version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.Duration("retention_window", config.Dedup.RetentionWindow),
		zap.Duration("sweep_interval", config.Dedup.SweepInterval),
		zap.String("storage", config.Storage.Driver),
		zap.Bool("dry_run", config.Dedup.DryRun))

	// Snapshot store and table
	store, err := infrastructure.NewSnapshotStore(&config.Storage)
	if err != nil {
		log.Fatal("Failed to initialize snapshot store", zap.Error(err))
	}
	table := app.LoadDedupTable(store, logger.Component(log, "dedup_table"))

	extractor, err := fingerprint.NewExtractor(config.Dedup.HashAlgorithm)
	if err != nil {
		log.Fatal("Failed to initialize fingerprint extractor", zap.Error(err))
	}

	// Telegram client is optional; without it deletions are only logged
	var client *infrastructure.TelegramClient
	if config.Telegram.BotToken != "" {
		client, err = infrastructure.NewTelegramClient(&config.Telegram, logger.Component(log, "telegram"))
		if err != nil {
			log.Fatal("Failed to initialize Telegram client", zap.Error(err))
		}
	}

	var sink domain.DeletionSink
	if client == nil || config.Dedup.DryRun {
		log.Warn("Deletions are logged only", zap.Bool("dry_run", config.Dedup.DryRun))
		sink = infrastructure.NewLogSink(logger.Component(log, "sink"))
	} else {
		sink = client
	}

	var notifier *infrastructure.NotificationService
	if client != nil {
		notifier = infrastructure.NewNotificationService(&config.Notification, client, logger.Component(log, "notify"))
	} else {
		notifier = infrastructure.NewNotificationService(&config.Notification, nil, logger.Component(log, "notify"))
	}

	allowList := app.NewAllowList(config.Dedup.MonitoredGroups, config.Dedup.MonitorAll)
	if len(allowList.Groups()) == 0 && !allowList.MonitorAll() {
		log.Warn("No monitored groups configured, every message will be ignored")
	}

	engine := app.NewEngine(table, extractor, sink, notifier, allowList, logger.Component(log, "engine"), multiLog)
	scheduler := app.NewEvictionScheduler(table, &config.Dedup, logger.Component(log, "scheduler"), multiLog)
	admin := app.NewAdminService(table, scheduler, logger.Component(log, "admin"))
	dispatcher := app.NewDispatcher(engine, 0, logger.Component(log, "dispatcher"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := scheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start eviction scheduler", zap.Error(err))
	}

	var source *infrastructure.TelegramSource
	if client != nil && config.Telegram.Polling {
		source = infrastructure.NewTelegramSource(client, dispatcher, config.Telegram.PollTimeout, logger.Component(log, "poller"))
		if err := source.Start(ctx); err != nil {
			log.Fatal("Failed to start Telegram poller", zap.Error(err))
		}
	}

	// Monitored groups follow config file edits
	err = app.WatchConfig(*configPath, log, func(updated *domain.Config) {
		allowList.Replace(updated.Dedup.MonitoredGroups, updated.Dedup.MonitorAll)
		log.Info("Monitored groups updated",
			zap.Strings("groups", allowList.Groups()),
			zap.Bool("monitor_all", allowList.MonitorAll()))
	})
	if err != nil {
		log.Debug("Config hot reload disabled", zap.Error(err))
	}

	// Setup HTTP router
	router := api.SetupRouter(engine, admin, scheduler, dispatcher, config.Logging.LogsDir, logger.Component(log, "http"), version)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if source != nil {
		if err := source.Stop(); err != nil {
			log.Error("Error stopping Telegram poller", zap.Error(err))
		}
	}

	dispatcher.Stop()
	notifier.Wait()

	if err := scheduler.Stop(); err != nil {
		log.Error("Error stopping eviction scheduler", zap.Error(err))
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := table.Flush(); err != nil {
		log.Error("Final snapshot write failed", zap.Error(err))
	}
	if err := store.Close(); err != nil {
		log.Error("Error closing snapshot store", zap.Error(err))
	}

	log.Info("Server exited")
}
