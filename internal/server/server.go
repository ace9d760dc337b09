package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/labelgen/internal/api"
	"github.com/muurk/labelgen/internal/app"
	"github.com/muurk/labelgen/internal/config"
	"github.com/muurk/labelgen/internal/discovery"
	"github.com/muurk/labelgen/internal/logging"
	"github.com/muurk/labelgen/internal/version"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Config holds the server configuration
type Config struct {
	Host          string
	Port          int
	CertPath      string // Serve HTTPS when both CertPath and KeyPath are set
	KeyPath       string
	Advertise     bool   // Announce the station via mDNS
	Instance      string // mDNS instance name
	WatchWorkbook bool   // Reload the workbook when it changes on disk
}

// ConfigFrom derives a server configuration from the user registry.
func ConfigFrom(reg *config.Registry) *Config {
	s := reg.Server
	return &Config{
		Host:          s.Host,
		Port:          s.Port,
		CertPath:      s.CertFile,
		KeyPath:       s.KeyFile,
		Advertise:     s.Advertise,
		Instance:      s.Instance,
		WatchWorkbook: true,
	}
}

// TLS reports whether the server is configured for HTTPS.
func (c *Config) TLS() bool {
	return c.CertPath != "" && c.KeyPath != ""
}

// Server is a label station: it serves the catalog and generates label
// documents for clients on the local network.
type Server struct {
	config    *Config
	app       *app.App
	tlsConfig *tls.Config
	hub       *Hub
	jobs      *JobManager
	handler   http.Handler
	log       *zap.Logger

	mu       sync.Mutex
	httpSrv  *http.Server
	listener net.Listener
	adv      *discovery.Advertisement
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New creates a new Server instance
func New(cfg *Config, a *app.App) (*Server, error) {
	s := &Server{
		config: cfg,
		app:    a,
		hub:    NewHub(),
		log:    logging.Named("server"),
	}
	s.jobs = NewJobManager(s.hub.Broadcast)

	if cfg.TLS() {
		tlsConfig, err := NewTLSConfig(cfg.CertPath, cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		s.tlsConfig = tlsConfig
	}

	s.handler = s.routes()
	return s, nil
}

// Handler returns the HTTP handler serving the station API.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the listening address once Run has started, or "".
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start runs the server until SIGINT or SIGTERM.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))

	var (
		listener net.Listener
		err      error
	)
	if s.tlsConfig != nil {
		logging.Info("TLS Configuration", zap.Any("tls_info", GetTLSInfo(s.tlsConfig)))
		listener, err = tls.Listen("tcp", addr, s.tlsConfig)
	} else {
		listener, err = net.Listen("tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	httpSrv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(s.log),
	}

	s.mu.Lock()
	s.listener = listener
	s.httpSrv = httpSrv
	s.cancel = cancel
	s.mu.Unlock()

	s.log.Info("Label station listening",
		zap.String("addr", listener.Addr().String()),
		zap.Bool("tls", s.tlsConfig != nil),
		zap.String("workbook", s.app.Store.Path()),
		zap.String("version", version.Version),
	)

	if s.config.Advertise {
		s.advertise(listener.Addr())
	}
	if s.config.WatchWorkbook {
		s.watchWorkbook(runCtx)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- httpSrv.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		s.log.Info("Shutdown signal received, stopping server...")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		cancel()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) advertise(addr net.Addr) {
	port := s.config.Port
	if tcp, ok := addr.(*net.TCPAddr); ok {
		port = tcp.Port
	}
	adv, err := discovery.Advertise(s.config.Instance, port, map[string]string{
		"version": version.Version,
		"tls":     strconv.FormatBool(s.tlsConfig != nil),
	})
	if err != nil {
		// The station still works by address; only discovery is lost.
		s.log.Warn("mDNS advertisement failed", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.adv = adv
	s.mu.Unlock()
	s.log.Info("Advertising via mDNS",
		zap.String("instance", s.config.Instance),
		zap.String("service", discovery.ServiceType),
		zap.Int("port", port))
}

func (s *Server) watchWorkbook(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.app.Store.Watch(ctx, func(err error) {
			msg := "Workbook reloaded"
			if err != nil {
				msg = "Workbook reload failed: " + err.Error()
			}
			s.hub.Broadcast(api.Event{Type: api.EventCatalog, Message: msg})
		})
		if err != nil {
			s.log.Warn("Workbook watcher stopped", zap.Error(err))
		}
	}()
}

// Shutdown stops advertising, finishes in-flight requests and jobs, and
// closes WebSocket clients.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	s.mu.Lock()
	httpSrv, adv, cancel := s.httpSrv, s.adv, s.cancel
	s.adv = nil
	s.mu.Unlock()

	adv.Shutdown()
	if cancel != nil {
		cancel()
	}

	ctx, cancelTimeout := context.WithTimeout(ctx, shutdownTimeout)
	defer cancelTimeout()

	var err error
	if httpSrv != nil {
		err = httpSrv.Shutdown(ctx)
	}
	s.hub.Close()
	s.jobs.Close()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		logging.Info("Server shutdown complete")
	case <-ctx.Done():
		logging.Warn("Server shutdown timed out")
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}
