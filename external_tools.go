package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ytfetch/ytfetch/internal/extractor"
)

// bootstrapExtractor locates and verifies yt-dlp, retrying every
// cfg.BootstrapRetry until it succeeds or ctx ends. The verified handle is
// published into capability exactly once.
func bootstrapExtractor(ctx context.Context, cfg Config, capability *extractor.Capability, logger zerolog.Logger) {
	logger = logger.With().Str("component", "bootstrap").Str("binary", cfg.YtDlpPath).Logger()
	for attempt := 1; ; attempt++ {
		ext, err := extractor.New(ctx, cfg.YtDlpPath,
			extractor.WithKillGrace(cfg.KillGrace),
			extractor.WithLogger(logger),
		)
		if err == nil {
			if capability.Publish(ext) {
				logger.Info().
					Str("path", ext.Path()).
					Str("version", ext.Version()).
					Int("attempt", attempt).
					Msg("yt-dlp ready")
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		logger.Error().Err(err).Int("attempt", attempt).Dur("retry_in", cfg.BootstrapRetry).Msg("yt-dlp not available")

		t := time.NewTimer(cfg.BootstrapRetry)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}
