package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ytfetch/ytfetch/internal/extractor"
	"github.com/ytfetch/ytfetch/internal/media"
)

type server struct {
	cfg        Config
	logger     zerolog.Logger
	capability *extractor.Capability
	previews   *media.MetadataService
	downloads  *media.DownloadProxy
	stats      StatsStore
	metrics    *metrics
	limiter    *rate.Limiter
	startedAt  time.Time
}

func newServer(cfg Config, logger zerolog.Logger, capability *extractor.Capability, stats StatsStore) *server {
	return &server{
		cfg:        cfg,
		logger:     logger,
		capability: capability,
		previews:   media.NewMetadataService(capability, logger.With().Str("component", "preview").Logger()),
		downloads:  media.NewDownloadProxy(capability, logger.With().Str("component", "download").Logger()),
		stats:      stats,
		metrics:    newMetrics(),
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
		startedAt:  time.Now(),
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Group(func(r chi.Router) {
			r.Use(s.rateLimitMiddleware)
			r.Post("/video-info", s.handleVideoInfo)
			r.Get("/download", s.handleDownload)
			r.Get("/stats", s.handleStats)
		})
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.handler())

	if info, err := os.Stat(s.cfg.StaticDir); err == nil && info.IsDir() {
		r.Handle("/*", http.FileServer(http.Dir(s.cfg.StaticDir)))
	} else {
		s.logger.Debug().Str("dir", s.cfg.StaticDir).Msg("static directory not found, not serving client")
	}
	return r
}

// ListenAndServe serves until ctx is canceled, then drains in-flight requests
// for up to ShutdownTimeout.
func (s *server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.routes(),
		ReadHeaderTimeout: ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", srv.Addr).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info().Msg("graceful shutdown initiated")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		// Streams still running are cut off.
		_ = srv.Close()
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info().Msg("graceful shutdown completed")
	return nil
}
