package http

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/turtacn/graphctx/internal/infrastructure/monitoring/logging"
)

// Default server configuration values.
const (
	defaultHost              = "0.0.0.0"
	defaultPort              = 8080
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 15 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 10 * time.Second
	defaultMaxHeaderBytes    = 1 << 20
	defaultShutdownTimeout   = 10 * time.Second
)

// ServerConfig holds the net/http.Server knobs the API server binds.
type ServerConfig struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	MaxHeaderBytes    int
	ShutdownTimeout   time.Duration

	// TLSCertFile / TLSKeyFile enable HTTPS when both are set.
	TLSCertFile string
	TLSKeyFile  string
}

func (c *ServerConfig) applyDefaults() {
	if c.Host == "" {
		c.Host = defaultHost
	}
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = defaultReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = defaultIdleTimeout
	}
	if c.ReadHeaderTimeout == 0 {
		c.ReadHeaderTimeout = defaultReadHeaderTimeout
	}
	if c.MaxHeaderBytes == 0 {
		c.MaxHeaderBytes = defaultMaxHeaderBytes
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
}

func (c *ServerConfig) isTLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

func (c *ServerConfig) listenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Server wraps net/http.Server with graceful shutdown, optional TLS, and
// structured startup/shutdown logging.
type Server struct {
	httpServer *http.Server
	config     ServerConfig
	listener   net.Listener
	logger     logging.Logger
	started    atomic.Bool
	actualAddr string
}

// NewServer builds a Server around handler. Zero-value config fields are
// replaced with defaults.
func NewServer(cfg ServerConfig, handler http.Handler, logger logging.Logger) *Server {
	cfg.applyDefaults()

	httpSrv := &http.Server{
		Addr:              cfg.listenAddr(),
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	if cfg.isTLSEnabled() {
		httpSrv.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
			CurvePreferences: []tls.CurveID{
				tls.X25519,
				tls.CurveP256,
			},
		}
	}

	return &Server{httpServer: httpSrv, config: cfg, logger: logger}
}

// Start listens and serves until ctx is cancelled, then shuts down
// gracefully within ShutdownTimeout. Returns nil on clean shutdown.
func (s *Server) Start(ctx context.Context) error {
	if s.started.Load() {
		return errors.New("server already started")
	}

	ln, err := net.Listen("tcp", s.config.listenAddr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.listenAddr(), err)
	}
	s.listener = ln
	s.actualAddr = ln.Addr().String()
	s.started.Store(true)

	protocol := "HTTP"
	if s.config.isTLSEnabled() {
		protocol = "HTTPS"
	}
	s.logger.Info("server starting",
		logging.String("protocol", protocol),
		logging.String("address", s.actualAddr),
	)

	serveCh := make(chan error, 1)
	go func() {
		var serveErr error
		if s.config.isTLSEnabled() {
			tlsLn := tls.NewListener(ln, s.httpServer.TLSConfig)
			serveErr = s.httpServer.ServeTLS(tlsLn, s.config.TLSCertFile, s.config.TLSKeyFile)
		} else {
			serveErr = s.httpServer.Serve(ln)
		}
		serveCh <- serveErr
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, initiating graceful shutdown")
		shutdownErr := s.Shutdown(context.Background())
		serveErr := <-serveCh
		if shutdownErr != nil {
			return fmt.Errorf("shutdown error: %w", shutdownErr)
		}
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return serveErr
		}
		return nil

	case err := <-serveCh:
		s.started.Store(false)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown gracefully stops the server, waiting up to ShutdownTimeout for
// active requests to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.started.Load() {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.started.Store(false)
	if err != nil {
		s.logger.Error("server shutdown error", logging.Err(err))
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("server stopped gracefully")
	return nil
}

// Addr returns the actual bound address once the server is listening. A zero
// Port is replaced by the default port (8080), not an ephemeral one.
func (s *Server) Addr() string {
	return s.actualAddr
}

// IsRunning reports whether the server is currently accepting connections.
func (s *Server) IsRunning() bool {
	return s.started.Load()
}
