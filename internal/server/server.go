// Package server exposes the tracker as a local JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/techtrack/internal/core/config"
	"github.com/colonyops/techtrack/internal/core/logging"
	"github.com/colonyops/techtrack/internal/techtrack"
)

const startupGrace = 100 * time.Millisecond

// Server serves the HTTP API.
type Server struct {
	cfg        config.ServerConfig
	httpServer *http.Server
	listener   net.Listener
	log        zerolog.Logger
}

// New builds a server for tracker and explorer. explorer may be nil, in
// which case the explore endpoints answer 503.
func New(cfg config.ServerConfig, tracker *techtrack.Tracker, explorer *techtrack.Explorer, log zerolog.Logger) *Server {
	log = logging.Component(log, "server")
	h := &handlers{
		tracker:  tracker,
		explorer: explorer,
		log:      log,
		now:      time.Now,
	}

	return &Server{
		cfg: cfg,
		httpServer: &http.Server{
			Handler:           h.routes(cfg.Pprof),
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens on the configured address and serves in the background. It
// returns once the server is accepting connections or has failed to start.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	s.listener = listener

	s.log.Info().Str("addr", s.Addr()).Bool("pprof", s.cfg.Pprof).Msg("starting api server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("api server failed to start: %w", err)
	case <-time.After(startupGrace):
		return nil
	}
}

// Addr returns the address the server is listening on, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down api server")
	return s.httpServer.Shutdown(ctx)
}

// Run starts the server and blocks until ctx is cancelled, then shuts down
// within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}
