// Package server runs the API and web HTTP servers side by side and shuts
// them down together.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/10mm-gms/blueprint/internal/config"
)

// Server owns the two HTTP servers.
type Server struct {
	api         *http.Server
	web         *http.Server
	gracePeriod time.Duration
	logger      *zap.Logger
}

// New creates the servers from cfg and the two routers.
func New(cfg *config.Config, apiHandler, webHandler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		api:         newHTTPServer(cfg, cfg.Port, apiHandler),
		web:         newHTTPServer(cfg, cfg.WebPort, webHandler),
		gracePeriod: cfg.ShutdownGracePeriod,
		logger:      logger,
	}
}

func newHTTPServer(cfg *config.Config, port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              listenAddr(port),
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

func listenAddr(port string) string {
	if _, _, err := net.SplitHostPort(port); err == nil {
		return port
	}
	return ":" + port
}

// Run listens on the configured ports and serves until ctx is cancelled or
// either server fails.
func (s *Server) Run(ctx context.Context) error {
	apiLn, err := net.Listen("tcp", s.api.Addr)
	if err != nil {
		return fmt.Errorf("listen api on %s: %w", s.api.Addr, err)
	}
	webLn, err := net.Listen("tcp", s.web.Addr)
	if err != nil {
		_ = apiLn.Close()
		return fmt.Errorf("listen web on %s: %w", s.web.Addr, err)
	}
	return s.Serve(ctx, apiLn, webLn)
}

// Serve serves on the given listeners. When ctx is done, or a server stops
// with an error, both servers are shut down within the grace period and
// force-closed if that fails. The first serve error is returned.
func (s *Server) Serve(ctx context.Context, apiLn, webLn net.Listener) error {
	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	serve := func(name string, srv *http.Server, ln net.Listener) {
		defer wg.Done()
		s.logger.Info("server listening", zap.String("server", name), zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("%s server: %w", name, err)
		}
	}

	wg.Add(2)
	go serve(APIServer, s.api, apiLn)
	go serve(WebServer, s.web, webLn)

	var runErr error
	select {
	case <-ctx.Done():
		s.logger.Info("shutting down servers")
	case runErr = <-errCh:
		s.logger.Error("server failed, shutting down", zap.Error(runErr))
	}

	s.shutdown()
	wg.Wait()
	return runErr
}

func (s *Server) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), s.gracePeriod)
	defer cancel()

	var wg sync.WaitGroup
	for name, srv := range map[string]*http.Server{APIServer: s.api, WebServer: s.web} {
		wg.Add(1)
		go func(name string, srv *http.Server) {
			defer wg.Done()
			if err := srv.Shutdown(ctx); err != nil {
				s.logger.Warn("graceful shutdown failed", zap.String("server", name), zap.Error(err))
				if closeErr := srv.Close(); closeErr != nil {
					s.logger.Error("forced close failed", zap.String("server", name), zap.Error(closeErr))
				}
			}
		}(name, srv)
	}
	wg.Wait()
	s.logger.Info("shutdown complete")
}
