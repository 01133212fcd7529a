package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Centralized configuration defaults
const (
	// HTTP
	DefaultPort            = 3000
	DefaultStaticDir       = "public"
	DefaultShutdownTimeout = 10 * time.Second
	ReadHeaderTimeout      = 10 * time.Second
	MaxRequestBodyBytes    = 1 << 20

	// Rate Limiting
	RequestsPerSecond = 100
	BurstSize         = 200

	// Redis Configuration
	RedisPassword = ""
	RedisDB       = 0
	StatsKey      = "ytfetch:stats"

	// Extractor
	DefaultYtDlpPath      = "yt-dlp"
	DefaultBootstrapRetry = 30 * time.Second
	DefaultKillGrace      = 2 * time.Second

	// Logging
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

type Config struct {
	Port            int
	StaticDir       string
	ShutdownTimeout time.Duration

	RateLimitRPS   float64
	RateLimitBurst int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	YtDlpPath      string
	BootstrapRetry time.Duration
	KillGrace      time.Duration

	LogLevel  zerolog.Level
	LogFormat string
}

func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// loadEnvFile loads path into the process environment. A missing file is not
// an error; variables already set win.
func loadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// LoadConfig reads the configuration through getenv, falling back to the
// defaults above for unset keys.
func LoadConfig(getenv func(string) string) (Config, error) {
	cfg := Config{
		Port:            DefaultPort,
		StaticDir:       DefaultStaticDir,
		ShutdownTimeout: DefaultShutdownTimeout,
		RateLimitRPS:    RequestsPerSecond,
		RateLimitBurst:  BurstSize,
		RedisAddr:       getenv("REDIS_ADDR"),
		RedisPassword:   RedisPassword,
		RedisDB:         RedisDB,
		YtDlpPath:       DefaultYtDlpPath,
		BootstrapRetry:  DefaultBootstrapRetry,
		KillGrace:       DefaultKillGrace,
		LogFormat:       DefaultLogFormat,
	}

	var errs []error
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			errs = append(errs, fmt.Errorf("PORT: invalid port %q", v))
		}
		cfg.Port = port
	}
	if v := getenv("STATIC_DIR"); v != "" {
		cfg.StaticDir = v
	}
	if v := getenv("YTDLP_PATH"); v != "" {
		cfg.YtDlpPath = v
	}
	if v := getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := getenv("RATE_LIMIT_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil || rps <= 0 {
			errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS: invalid rate %q", v))
		}
		cfg.RateLimitRPS = rps
	}
	errs = appendInt(errs, getenv, "RATE_LIMIT_BURST", &cfg.RateLimitBurst, 1)
	errs = appendInt(errs, getenv, "REDIS_DB", &cfg.RedisDB, 0)
	errs = appendDuration(errs, getenv, "BOOTSTRAP_RETRY", &cfg.BootstrapRetry)
	errs = appendDuration(errs, getenv, "KILL_GRACE", &cfg.KillGrace)
	errs = appendDuration(errs, getenv, "SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout)

	level := getenv("LOG_LEVEL")
	if level == "" {
		level = DefaultLogLevel
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	cfg.LogLevel = lvl

	if v := getenv("LOG_FORMAT"); v != "" {
		switch v = strings.ToLower(v); v {
		case "json", "console":
			cfg.LogFormat = v
		default:
			errs = append(errs, fmt.Errorf("LOG_FORMAT: must be json or console, got %q", v))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func appendInt(errs []error, getenv func(string) string, key string, dst *int, min int) []error {
	v := getenv(key)
	if v == "" {
		return errs
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min {
		return append(errs, fmt.Errorf("%s: invalid value %q", key, v))
	}
	*dst = n
	return errs
}

func appendDuration(errs []error, getenv func(string) string, key string, dst *time.Duration) []error {
	v := getenv(key)
	if v == "" {
		return errs
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return append(errs, fmt.Errorf("%s: invalid duration %q", key, v))
	}
	*dst = d
	return errs
}

func newLogger(cfg Config, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}
	if cfg.LogFormat == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).
		Level(cfg.LogLevel).
		With().
		Timestamp().
		Str("service", "ytfetch").
		Logger()
}
