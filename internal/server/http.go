package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/CitroenGames/Server/internal/catalog"
	"github.com/CitroenGames/Server/internal/config"
	"github.com/CitroenGames/Server/internal/metrics"
)

// AdminServer provides HTTP API endpoints for monitoring and management.
// It is a separate surface from the streaming protocol and is disabled by
// default.
type AdminServer struct {
	server    *http.Server
	logger    *slog.Logger
	config    *config.Config
	store     *catalog.Store
	tcpServer *TCPServer
	metrics   *metrics.Metrics

	startTime time.Time
	mu        sync.RWMutex
}

// NewAdminServer creates a new admin API server
func NewAdminServer(cfg config.AdminConfig, logger *slog.Logger, appConfig *config.Config,
	store *catalog.Store, tcpServer *TCPServer, m *metrics.Metrics) *AdminServer {

	a := &AdminServer{
		logger:    logger,
		config:    appConfig,
		store:     store,
		tcpServer: tcpServer,
		metrics:   m,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	a.setupRoutes(mux)

	a.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a
}

// setupRoutes configures admin API routes
func (a *AdminServer) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", a.withMetrics("/health", a.handleHealth))
	mux.HandleFunc("/stats", a.withMetrics("/stats", a.handleStats))
	mux.HandleFunc("/config", a.withMetrics("/config", a.handleConfig))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/", a.withMetrics("/", a.handleRoot))
}

// withMetrics wraps an HTTP handler with metrics collection
func (a *AdminServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		ww := &responseWriter{ResponseWriter: w, statusCode: 200}
		handler(ww, r)

		duration := time.Since(startTime).Seconds()
		a.metrics.RecordHTTPRequest(r.Method, endpoint, fmt.Sprintf("%d", ww.statusCode), duration)
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the admin API server
func (a *AdminServer) Start() error {
	a.logger.Info("Starting admin API server",
		slog.String("address", a.server.Addr),
	)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("Admin server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the admin API server
func (a *AdminServer) Stop(ctx context.Context) error {
	a.logger.Info("Stopping admin API server...")

	return a.server.Shutdown(ctx)
}

// handleHealth implements the /health endpoint
func (a *AdminServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(a.startTime)
	stats := a.tcpServer.GetStatistics()

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    uptime.String(),
		"components": map[string]interface{}{
			"tcp_server": map[string]interface{}{
				"status":               "running",
				"connections_accepted": stats.ConnectionsAccepted,
				"requests_served":      stats.RequestsServed,
				"parse_errors":         stats.ParseErrors,
			},
			"catalog": map[string]interface{}{
				"status": "loaded",
				"tracks": a.store.Len(),
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// handleStats implements the /stats endpoint
func (a *AdminServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats := map[string]interface{}{
		"uptime":    time.Since(a.startTime).String(),
		"timestamp": time.Now().UTC(),
		"server":    a.tcpServer.GetStatistics(),
		"catalog": map[string]interface{}{
			"tracks": a.store.Len(),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// handleConfig implements the /config endpoint
func (a *AdminServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sanitizedConfig := map[string]interface{}{
		"server": map[string]interface{}{
			"port":         a.config.Server.Port,
			"bind_address": a.config.Server.BindAddress,
			"buffer_size":  a.config.Server.BufferSize,
		},
		"library": map[string]interface{}{
			"music_dir":       a.config.Library.MusicDir,
			"description_ext": a.config.Library.DescriptionExt,
			"probe_tags":      a.config.Library.ProbeTags,
			"watch":           a.config.Library.Watch,
		},
		"logging": map[string]interface{}{
			"level":  a.config.Logging.Level,
			"format": a.config.Logging.Format,
			"output": a.config.Logging.Output,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sanitizedConfig)
}

// handleRoot implements the / endpoint with API documentation
func (a *AdminServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	apiDoc := map[string]interface{}{
		"service": "media streaming server admin API",
		"endpoints": map[string]interface{}{
			"GET /":        "API documentation",
			"GET /health":  "Service health check",
			"GET /stats":   "Server and catalog statistics",
			"GET /config":  "Service configuration",
			"GET /metrics": "Prometheus metrics",
		},
		"timestamp": time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(apiDoc)
}
