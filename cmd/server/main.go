package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CitroenGames/Server/internal/catalog"
	"github.com/CitroenGames/Server/internal/config"
	"github.com/CitroenGames/Server/internal/metrics"
	"github.com/CitroenGames/Server/internal/server"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "media-server"
	serviceVersion    = "1.0.0"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration
	logger := initLogger(cfg.Logging)

	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	logger.Info("Configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("bind_address", cfg.Server.BindAddress),
		slog.Int("buffer_size", cfg.Server.BufferSize),
		slog.String("music_dir", cfg.Library.MusicDir),
		slog.Bool("probe_tags", cfg.Library.ProbeTags),
		slog.Bool("watch", cfg.Library.Watch),
		slog.Bool("admin_enabled", cfg.Admin.Enabled),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics()

	// Build the catalog before accepting connections
	store := catalog.NewStore()
	loader := catalog.NewLoader(cfg.Library, logger)

	loadStart := time.Now()
	if err := loader.Reload(store); err != nil {
		// A failed initial scan leaves an empty catalog; the server still
		// starts and /reload can recover later.
		logger.Warn("Initial catalog load failed, starting with empty catalog",
			slog.String("error", err.Error()),
		)
	}
	appMetrics.RecordReload(time.Since(loadStart).Seconds(), store.Len())

	// Initialize TCP server
	tcpServer := server.NewTCPServer(&cfg.Server, logger, store, loader, appMetrics)

	// Initialize admin API server (if enabled)
	var adminServer *server.AdminServer
	if cfg.Admin.Enabled {
		adminServer = server.NewAdminServer(cfg.Admin, logger, cfg, store, tcpServer, appMetrics)
		logger.Info("Admin API server initialized",
			slog.String("address", fmt.Sprintf("%s:%d", cfg.Admin.Address, cfg.Admin.Port)),
		)
	}

	// Initialize library watcher (if enabled)
	var watcher *catalog.Watcher
	if cfg.Library.Watch {
		watcher, err = catalog.NewWatcher(loader, store, logger, cfg.Library.GetWatchDebounce())
		if err != nil {
			logger.Error("Failed to create library watcher", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// Start TCP server
	if err := tcpServer.Start(); err != nil {
		logger.Error("Failed to start TCP server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start admin server (if enabled)
	if adminServer != nil {
		if err := adminServer.Start(); err != nil {
			logger.Error("Failed to start admin server", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// Start library watcher (if enabled)
	if watcher != nil {
		if err := watcher.Start(); err != nil {
			logger.Error("Failed to start library watcher", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...",
		slog.String("address", fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.Port)),
		slog.Int("tracks", store.Len()),
	)

	sig := <-sigChan
	logger.Info("Received shutdown signal", slog.String("signal", sig.String()))

	logger.Info("Starting graceful shutdown...")

	// Stop the watcher first so no reload races the shutdown
	if watcher != nil {
		watcher.Stop()
	}

	// Stop admin server (stop accepting new requests)
	if adminServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := adminServer.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping admin server", slog.String("error", err.Error()))
		}
	}

	// Stop TCP server (stop accepting new connections)
	if err := tcpServer.Stop(); err != nil {
		logger.Error("Error stopping TCP server", slog.String("error", err.Error()))
	}

	// Log final statistics
	stats := tcpServer.GetStatistics()
	logger.Info("Final server statistics",
		slog.Uint64("connections_accepted", stats.ConnectionsAccepted),
		slog.Uint64("requests_served", stats.RequestsServed),
		slog.Uint64("parse_errors", stats.ParseErrors),
		slog.Uint64("catalog_tracks", stats.CatalogTracks),
	)

	logger.Info("Service stopped")
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
