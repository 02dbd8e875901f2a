package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/CitroenGames/Server/internal/catalog"
	"github.com/CitroenGames/Server/internal/config"
	"github.com/CitroenGames/Server/internal/metrics"
	"github.com/CitroenGames/Server/internal/protocol"
	"github.com/CitroenGames/Server/internal/stream"
)

// Recognized routes. /catalog and /reload match exactly; the other two are
// prefixes followed by a URL-encoded track id.
const (
	routeCatalog      = "/catalog"
	routeReload       = "/reload"
	descriptionPrefix = "/description/"
	streamPrefix      = "/stream/"
)

// Canned response bodies. Errors for /description are JSON while errors for
// /stream are plain text; clients depend on that asymmetry.
const (
	bodyTrackNotFoundJSON = `{"error": "Track not found"}`
	bodyDescNotFound      = `{"error": "Description file not found"}`
	bodyDescOpenFailed    = `{"error": "Failed to open description file"}`
	bodyTrackNotFoundText = "Track not found"
	bodyAudioNotFound     = "MP3 file not found"
	bodyAudioOpenFailed   = "Failed to open MP3 file"
	bodyNotFound          = "Not Found"
	bodyReloaded          = `{"status": "Catalog reloaded"}`
)

const (
	contentTypeJSON = "application/json"
	contentTypeText = "text/plain"
)

// TCPServer accepts client connections and serves the streaming protocol
type TCPServer struct {
	listener *net.TCPListener
	config   *config.ServerConfig
	logger   *slog.Logger
	store    *catalog.Store
	loader   *catalog.Loader
	streamer *stream.Streamer
	metrics  *metrics.Metrics

	// Concurrency management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Basic counters
	connectionsAccepted uint64
	requestsServed      uint64
	parseErrors         uint64
	acceptErrors        uint64
	mu                  sync.RWMutex
}

// NewTCPServer creates a new TCP server instance
func NewTCPServer(cfg *config.ServerConfig, logger *slog.Logger, store *catalog.Store,
	loader *catalog.Loader, m *metrics.Metrics) *TCPServer {

	ctx, cancel := context.WithCancel(context.Background())

	return &TCPServer{
		config:   cfg,
		logger:   logger,
		store:    store,
		loader:   loader,
		streamer: stream.NewStreamer(cfg.BufferSize, logger),
		metrics:  m,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins listening for client connections
func (s *TCPServer) Start() error {
	addr, err := net.ResolveTCPAddr("tcp", fmt.Sprintf("%s:%d", s.config.BindAddress, s.config.Port))
	if err != nil {
		return fmt.Errorf("failed to resolve TCP address: %w", err)
	}

	listener, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on TCP: %w", err)
	}

	s.listener = listener

	s.logger.Info("TCP server started",
		slog.String("address", addr.String()),
		slog.Int("buffer_size", s.config.BufferSize),
	)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop stops accepting new connections. In-flight handlers are not joined;
// each one closes its own connection when it finishes.
func (s *TCPServer) Stop() error {
	s.logger.Info("Stopping TCP server...")

	s.cancel()

	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			s.logger.Warn("Error closing listener", slog.String("error", err.Error()))
		}
	}

	s.wg.Wait()

	stats := s.GetStatistics()
	s.logger.Info("TCP server stopped",
		slog.Uint64("connections_accepted", stats.ConnectionsAccepted),
		slog.Uint64("requests_served", stats.RequestsServed),
		slog.Uint64("parse_errors", stats.ParseErrors),
	)

	return nil
}

// acceptLoop is the sequential accept loop: accept, spawn handler, repeat.
// A failed accept is logged and the loop continues.
func (s *TCPServer) acceptLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("Accept loop stopping due to context cancellation")
			return
		default:
		}

		// Deadline so shutdown is noticed promptly
		if err := s.listener.SetDeadline(time.Now().Add(1 * time.Second)); err != nil {
			s.logger.Error("Failed to set accept deadline", slog.String("error", err.Error()))
			continue
		}

		conn, err := s.listener.Accept()
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}

			select {
			case <-s.ctx.Done():
				return
			default:
				s.mu.Lock()
				s.acceptErrors++
				s.mu.Unlock()
				s.metrics.RecordAcceptError()
				s.logger.Error("Failed to accept client connection", slog.String("error", err.Error()))
				continue
			}
		}

		s.mu.Lock()
		s.connectionsAccepted++
		s.mu.Unlock()
		s.metrics.RecordConnectionAccepted()

		connID := uuid.NewString()
		s.logger.Debug("Client connected",
			slog.String("conn_id", connID),
			slog.String("remote_addr", conn.RemoteAddr().String()),
		)

		go s.handleConnection(conn, connID)
	}
}

// handleConnection serves exactly one request and closes the connection.
// The recover boundary guarantees the close even if a handler panics.
func (s *TCPServer) handleConnection(conn net.Conn, connID string) {
	startTime := time.Now()
	s.metrics.ConnectionOpened()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Connection handler panic",
				slog.String("conn_id", connID),
				slog.Any("panic", r),
			)
		}
		conn.Close()
		s.metrics.ConnectionClosed(time.Since(startTime).Seconds())
	}()

	// One bounded read; an oversized request is truncated, not rejected.
	buf := make([]byte, s.config.BufferSize)
	n, err := conn.Read(buf)
	if err != nil || n == 0 {
		return
	}

	req, err := protocol.ParseRequest(buf[:n])
	if err != nil {
		s.mu.Lock()
		s.parseErrors++
		s.mu.Unlock()
		s.metrics.RecordParseError()

		s.logger.Warn("Unparseable request",
			slog.String("conn_id", connID),
			slog.Int("bytes", n),
			slog.String("error", err.Error()),
		)
		s.respond(conn, "other", 404, contentTypeText, []byte(bodyNotFound))
		return
	}

	if req.RangeInvalid {
		s.logger.Warn("Malformed range offset, streaming from start",
			slog.String("conn_id", connID),
			slog.String("path", req.Path),
		)
	}

	s.logger.Info("Request",
		slog.String("conn_id", connID),
		slog.String("method", req.Method),
		slog.String("path", req.Path),
		slog.Int64("range_start", req.RangeStart),
	)

	s.mu.Lock()
	s.requestsServed++
	s.mu.Unlock()

	s.dispatch(conn, req, connID)
}

// dispatch routes a parsed request. The method is not validated or
// dispatched on; only the path drives behavior.
func (s *TCPServer) dispatch(conn net.Conn, req *protocol.Request, connID string) {
	switch {
	case req.Path == routeCatalog:
		s.sendCatalog(conn)

	case strings.HasPrefix(req.Path, descriptionPrefix):
		id := protocol.URLDecode(req.Path[len(descriptionPrefix):])
		s.sendDescription(conn, id, connID)

	case strings.HasPrefix(req.Path, streamPrefix):
		id := protocol.URLDecode(req.Path[len(streamPrefix):])
		s.sendAudio(conn, id, req.RangeStart, connID)

	case req.Path == routeReload:
		s.reloadCatalog(conn)

	default:
		s.respond(conn, "other", 404, contentTypeText, []byte(bodyNotFound))
	}
}

// sendCatalog emits the full catalog as a JSON array. Always 200.
func (s *TCPServer) sendCatalog(conn net.Conn) {
	tracks := s.store.List()

	body, err := json.Marshal(tracks)
	if err != nil {
		s.respond(conn, routeCatalog, 500, contentTypeJSON, []byte(`{"error": "Failed to encode catalog"}`))
		return
	}

	s.respond(conn, routeCatalog, 200, contentTypeJSON, body)
}

// sendDescription streams a track's description document. All error bodies
// on this route are JSON.
func (s *TCPServer) sendDescription(conn net.Conn, id, connID string) {
	track, ok := s.store.Get(id)
	if !ok {
		s.respond(conn, descriptionPrefix, 404, contentTypeJSON, []byte(bodyTrackNotFoundJSON))
		return
	}

	// Catalog and disk can diverge between load and request.
	if !fileExists(track.DescriptionPath) {
		s.respond(conn, descriptionPrefix, 404, contentTypeJSON, []byte(bodyDescNotFound))
		return
	}

	written, headerSent, err := s.streamer.SendDescription(conn, track.DescriptionPath)
	if err != nil {
		if !headerSent {
			s.respond(conn, descriptionPrefix, 500, contentTypeJSON, []byte(bodyDescOpenFailed))
			return
		}
		s.metrics.RecordStreamAbort()
		s.logger.Warn("Description stream aborted",
			slog.String("conn_id", connID),
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
	}

	s.metrics.RecordRequest(descriptionPrefix, 200)
	s.metrics.RecordBytesStreamed(written)
}

// sendAudio streams track bytes from the requested offset. All error bodies
// on this route are plain text.
func (s *TCPServer) sendAudio(conn net.Conn, id string, rangeStart int64, connID string) {
	track, ok := s.store.Get(id)
	if !ok {
		s.respond(conn, streamPrefix, 404, contentTypeText, []byte(bodyTrackNotFoundText))
		return
	}

	if !fileExists(track.Filepath) {
		s.respond(conn, streamPrefix, 404, contentTypeText, []byte(bodyAudioNotFound))
		return
	}

	written, headerSent, err := s.streamer.SendFile(conn, track.Filepath, rangeStart, stream.MediaTypeAudio)
	if err != nil {
		if !headerSent {
			s.respond(conn, streamPrefix, 500, contentTypeText, []byte(bodyAudioOpenFailed))
			return
		}
		s.metrics.RecordStreamAbort()
		s.logger.Warn("Audio stream aborted",
			slog.String("conn_id", connID),
			slog.String("id", id),
			slog.Int64("range_start", rangeStart),
			slog.String("error", err.Error()),
		)
	}

	s.metrics.RecordRequest(streamPrefix, 200)
	s.metrics.RecordBytesStreamed(written)
}

// reloadCatalog synchronously rebuilds the catalog from disk. The response
// is 200 even when the scan failed; load errors are logged and the previous
// catalog stays in place.
func (s *TCPServer) reloadCatalog(conn net.Conn) {
	startTime := time.Now()
	_ = s.loader.Reload(s.store)
	s.metrics.RecordReload(time.Since(startTime).Seconds(), s.store.Len())

	s.respond(conn, routeReload, 200, contentTypeJSON, []byte(bodyReloaded))
}

// respond writes a complete in-memory response and records it.
func (s *TCPServer) respond(conn net.Conn, route string, status int, contentType string, body []byte) {
	if err := protocol.WriteResponse(conn, status, contentType, body); err != nil {
		s.logger.Debug("Failed to write response", slog.String("error", err.Error()))
		return
	}
	s.metrics.RecordRequest(route, status)
	s.metrics.RecordBytesStreamed(int64(len(body)))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// GetStatistics returns current server statistics
func (s *TCPServer) GetStatistics() ServerStatistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ServerStatistics{
		ConnectionsAccepted: s.connectionsAccepted,
		RequestsServed:      s.requestsServed,
		ParseErrors:         s.parseErrors,
		AcceptErrors:        s.acceptErrors,
		CatalogTracks:       uint64(s.store.Len()),
	}
}

// ServerStatistics represents server counters exposed on the admin API
type ServerStatistics struct {
	ConnectionsAccepted uint64 `json:"connections_accepted"`
	RequestsServed      uint64 `json:"requests_served"`
	ParseErrors         uint64 `json:"parse_errors"`
	AcceptErrors        uint64 `json:"accept_errors"`
	CatalogTracks       uint64 `json:"catalog_tracks"`
}
