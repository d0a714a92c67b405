// Package server exposes the distributor over HTTP: one-shot text and JSON
// reads, WebSocket and Server-Sent Events push streams, Prometheus metrics and
// the embedded dashboard.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/agbru/cpuwatch/internal/distributor"
	apperrors "github.com/agbru/cpuwatch/internal/errors"
	"github.com/agbru/cpuwatch/internal/logging"
	"github.com/agbru/cpuwatch/internal/metrics"
)

const (
	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 60 * time.Second
	// writeWait bounds a single WebSocket frame write.
	writeWait = 10 * time.Second
	// maxClientMessage caps frames read from WebSocket clients, which are
	// only expected to send control frames.
	maxClientMessage = 512
)

// Config holds the server settings derived from the application config.
type Config struct {
	Addr            string
	StaticDir       string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

// Server serves the distributor's snapshots to HTTP clients. It only calls
// the distributor's read and subscribe operations.
type Server struct {
	dist     distributor.Distributor
	metrics  *metrics.Metrics
	logger   logging.Logger
	security SecurityConfig
	static   fs.FS
	upgrader websocket.Upgrader
	started  time.Time

	addr            string
	shutdownTimeout time.Duration
	httpServer      *http.Server
}

// New builds a Server. Nothing listens until Start is called.
func New(cfg Config, dist distributor.Distributor, m *metrics.Metrics, logger logging.Logger) (*Server, error) {
	static, err := staticFS(cfg.StaticDir)
	if err != nil {
		return nil, err
	}

	security := DefaultSecurityConfig()
	if len(cfg.AllowedOrigins) > 0 {
		security.AllowedOrigins = cfg.AllowedOrigins
	}

	s := &Server{
		dist:            dist,
		metrics:         m,
		logger:          logger,
		security:        security,
		static:          static,
		started:         time.Now(),
		addr:            cfg.Addr,
		shutdownTimeout: cfg.ShutdownTimeout,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     security.checkOrigin,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
		ErrorLog:          logging.ErrorLog(logger),
	}
	return s, nil
}

// Handler returns the routed handler with the full middleware chain.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return SecurityMiddleware(s.security, s.metricsMiddleware(next.ServeHTTP))
	})

	r.Get("/healthcheck", s.handleHealthcheck)
	r.Get("/api/cpus/string", s.handleText)
	r.Get("/api/cpus/json", s.handleJSON)
	r.Get("/api/cpus/snapshot", s.handleSnapshot)
	r.Get("/api/cpus/stream", s.handleSSE)
	r.Get("/ws/cpus/json", s.handleWebSocket)
	r.HandleFunc("/metrics", s.handleMetrics)

	for route, asset := range dashboardAssets {
		r.Get(route, s.handleAsset(asset))
	}
	return r
}

// Start listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully within the shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("http server listening", logging.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- s.httpServer.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		_ = s.httpServer.Close()
		if errors.Is(err, context.DeadlineExceeded) {
			return apperrors.TimeoutError{Operation: "http shutdown", Limit: s.shutdownTimeout}
		}
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

func staticFS(dir string) (fs.FS, error) {
	if dir != "" {
		return os.DirFS(dir), nil
	}
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		return nil, fmt.Errorf("embedded assets: %w", err)
	}
	return sub, nil
}
