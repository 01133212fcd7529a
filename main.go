package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ytfetch/ytfetch/internal/extractor"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ytfetch:", err)
		os.Exit(1)
	}
}

func run() error {
	if err := loadEnvFile(".env"); err != nil {
		return err
	}
	cfg, err := LoadConfig(os.Getenv)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats := newStatsStore(ctx, cfg, logger)
	defer stats.Close()

	capability := &extractor.Capability{}
	go bootstrapExtractor(ctx, cfg, capability, logger)

	srv := newServer(cfg, logger, capability, stats)
	logger.Info().
		Int("port", cfg.Port).
		Float64("rate_limit_rps", cfg.RateLimitRPS).
		Str("stats_backend", stats.Backend()).
		Msg("starting ytfetch")
	return srv.ListenAndServe(ctx)
}
