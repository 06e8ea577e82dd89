// Package admin serves health and metrics for operators on a separate
// listener, so scrapers never need the API secret.
package admin

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/qrforge/qrforge/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Server is the ops HTTP server.
type Server struct {
	server *http.Server
	mux    *http.ServeMux
	addr   net.Addr
}

// NewServer creates a new admin server.
func NewServer() *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/metrics", metrics.Handler())

	return &Server{
		mux: mux,
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Start listens on addr and serves in the background. Errors after the
// listener is bound are logged, not returned.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.addr = ln.Addr()

	s.server = &http.Server{
		Handler:      s.mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("admin server stopped")
		}
	}()

	log.Info().Str("addr", s.addr.String()).Msg("admin server listening")
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// Stop gracefully stops the admin server.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}
