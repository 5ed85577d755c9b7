package http

import (
	"context"
	"errors"
	stdhttp "net/http"
	"time"

	"ghdigest/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// Server pairs a chi mux with a stdlib http.Server
type Server struct {
	mux   *chi.Mux
	srv   *stdhttp.Server
	grace time.Duration
}

// ServerConfig is read by the api binary from API_ADDR and API_SHUTDOWN_GRACE
type ServerConfig struct {
	Addr          string
	ShutdownGrace time.Duration
}

// NewServer builds a server; opts receive the mux so callers can mount routes
func NewServer(cfg ServerConfig, opts ...func(*chi.Mux)) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":4000"
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 10 * time.Second
	}
	m := chi.NewRouter()
	for _, o := range opts {
		o(m)
	}
	return &Server{
		mux:   m,
		grace: cfg.ShutdownGrace,
		srv: &stdhttp.Server{
			Addr:              cfg.Addr,
			Handler:           m,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Router returns the platform seam over the mux
func (s *Server) Router() Router { return AdaptChi(s.mux) }

// Handler exposes the mux for httptest
func (s *Server) Handler() stdhttp.Handler { return s.mux }

// Addr returns the listen address
func (s *Server) Addr() string { return s.srv.Addr }

// Run serves until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	log := logger.Named("http")
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.srv.Addr).Msg("http listening")
		errc <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, stdhttp.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.grace)
	defer cancel()
	log.Info().Msg("http shutting down")
	if err := s.srv.Shutdown(sctx); err != nil {
		return err
	}
	return nil
}
