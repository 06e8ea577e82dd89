// Package api exposes QR code generation over HTTP and provides a client for it.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/qrforge/qrforge/internal/config"
	"github.com/qrforge/qrforge/internal/contrast"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// SecretHeader carries the shared secret on every generation request.
const SecretHeader = "X-API-Secret"

// Route paths.
const (
	PathHealth         = "/health"
	PathGenerateBasic  = "/generate-basic/"
	PathGenerateCustom = "/generate-custom/"
)

// Server is the QR code HTTP API.
type Server struct {
	cfg       *config.ServerConfig
	mux       *http.ServeMux
	handler   http.Handler
	httpSrv   *http.Server
	validator contrast.Validator
	limiter   *rate.Limiter
	maxUpload int64
	version   string
	startTime time.Time
}

// NewServer creates a server from a validated config.
func NewServer(cfg *config.ServerConfig) (*Server, error) {
	validator, err := contrast.NewValidator(cfg.MinContrastRatio)
	if err != nil {
		return nil, fmt.Errorf("contrast validator: %w", err)
	}

	maxUpload, err := cfg.MaxUploadBytes()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:       cfg,
		mux:       http.NewServeMux(),
		validator: validator,
		maxUpload: maxUpload,
		version:   "dev",
		startTime: time.Now(),
	}

	if cfg.RateLimit.RequestsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
	}

	s.setupRoutes()
	s.handler = s.withRequestLog(gzhttp.GzipHandler(s.withCORS(s.mux)))

	s.httpSrv = &http.Server{
		Addr:              cfg.Listen,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s, nil
}

// SetVersion sets the version reported by the health endpoint.
func (s *Server) SetVersion(v string) {
	s.version = v
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc(PathHealth, s.handleHealth)
	s.mux.Handle(PathGenerateBasic, s.protect(s.handleGenerateBasic))
	s.mux.Handle(PathGenerateCustom, s.protect(s.handleGenerateCustom))
}

// protect applies the rate limit and the secret check to a generation route.
func (s *Server) protect(h http.HandlerFunc) http.Handler {
	return s.withRateLimit(s.requireSecret(h))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves until Shutdown is called.
func (s *Server) ListenAndServe() error {
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: s.version,
		Uptime:  time.Since(s.startTime).Round(time.Second).String(),
	})
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error    string  `json:"error"`
	Kind     string  `json:"kind,omitempty"`
	Ratio    float64 `json:"ratio,omitempty"`
	MinRatio float64 `json:"min_ratio,omitempty"`
}

func (s *Server) jsonError(w http.ResponseWriter, message string, status int) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("write response")
	}
}
