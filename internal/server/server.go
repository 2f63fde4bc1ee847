package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/jpalmerr/envmon/internal/feed"
	"github.com/jpalmerr/envmon/internal/override"
	"github.com/jpalmerr/envmon/internal/sampler"
	"github.com/jpalmerr/envmon/internal/state"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// This prevents goroutine leaks when clients are slow or disconnected.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	// shutdownTimeout bounds graceful shutdown.
	shutdownTimeout = 5 * time.Second

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "envmon"
)

// Panel is the override surface the server drives.
type Panel interface {
	Set(name string, on bool) error
	States() []override.ActuatorState
}

// Config holds the server's collaborators.
type Config struct {
	// Port is the TCP port to listen on; 0 picks a free port.
	Port int

	// Title is shown on the panel (defaults to "envmon").
	Title string

	// Assets holds the panel template (may be nil to disable "/").
	Assets fs.FS

	// TemplatePath is the template's path inside Assets.
	TemplatePath string

	// State is the snapshot source, read-only.
	State state.Reader

	// Panel applies overrides.
	Panel Panel

	// Hub feeds "/api/sse" (may be nil to disable it). Actuator events reach
	// it from the panel's change hook, not from the handlers.
	Hub *feed.Hub

	// Stats reports sampler counters for "/api/state" (optional).
	Stats func() sampler.Stats
}

// Server handles HTTP requests for the override panel and API.
type Server struct {
	cfg        Config
	tmpl       *template.Template
	httpServer *http.Server
	addr       net.Addr
	logger     *slog.Logger
}

// NewServer creates a new HTTP [Server].
//
// The panel template is parsed here so a broken asset fails at startup
// instead of on the first request. The server is not started until
// [Server.Start] is called.
func NewServer(cfg Config, logger *slog.Logger) (*Server, error) {
	if cfg.State == nil {
		return nil, errors.New("server requires a state reader")
	}
	if cfg.Panel == nil {
		return nil, errors.New("server requires an override panel")
	}
	if cfg.Title == "" {
		cfg.Title = defaultTitle
	}

	s := &Server{cfg: cfg, logger: logger}

	if cfg.Assets != nil {
		tmpl, err := template.ParseFS(cfg.Assets, cfg.TemplatePath)
		if err != nil {
			return nil, fmt.Errorf("failed to parse panel template: %w", err)
		}
		s.tmpl = tmpl
	}
	return s, nil
}

// Handler builds the routed, logged and recovered HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/state", s.handleState).Methods(http.MethodGet)
	r.HandleFunc("/actuators/{name}/{state:on|off}", s.handleActuator).Methods(http.MethodGet, http.MethodPost)
	if s.cfg.Hub != nil {
		r.HandleFunc("/api/sse", s.handleSSE).Methods(http.MethodGet)
	}
	if s.tmpl != nil {
		r.HandleFunc("/", s.handlePanel).Methods(http.MethodGet)
	}

	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{s.logger}),
		handlers.PrintRecoveryStack(false),
	)
	return handlers.CustomLoggingHandler(io.Discard, recovery(r), s.logRequest)
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a 5-second
// timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.cfg.Port, err)
	}
	s.addr = ln.Addr()

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// BaseContext derives all request contexts from the server context.
		// When ctx is cancelled, all request contexts are also cancelled,
		// enabling graceful shutdown of long-running handlers like SSE.
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	// shutdown on context cancellation
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	s.logger.Info("override panel listening", "addr", s.addr.String())
	return nil
}

// Addr returns the bound address once [Server.Start] has succeeded.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// logRequest is the gorilla/handlers formatter; it ignores the writer and
// logs through slog instead.
func (s *Server) logRequest(_ io.Writer, p handlers.LogFormatterParams) {
	s.logger.Debug("http request",
		"method", p.Request.Method,
		"path", p.URL.Path,
		"status", p.StatusCode,
		"size", p.Size,
		"duration_ms", time.Since(p.TimeStamp).Milliseconds(),
	)
}
