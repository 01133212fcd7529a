package main

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Stat counter names, also the redis hash fields.
const (
	StatPreviewOK         = "preview_ok"
	StatPreviewFailed     = "preview_failed"
	StatDownloadCompleted = "download_completed"
	StatDownloadAborted   = "download_aborted"
	StatDownloadFailed    = "download_failed"
	StatBytesStreamed     = "bytes_streamed"
)

var statNames = []string{
	StatPreviewOK,
	StatPreviewFailed,
	StatDownloadCompleted,
	StatDownloadAborted,
	StatDownloadFailed,
	StatBytesStreamed,
}

const statsWriteTimeout = 2 * time.Second

// StatsStore keeps aggregate outcome counters. Nothing per request is stored.
type StatsStore interface {
	Incr(ctx context.Context, name string, delta int64) error
	Snapshot(ctx context.Context) (map[string]int64, error)
	Backend() string
	Close() error
}

type memoryStats struct {
	mu       sync.Mutex
	counters map[string]int64
}

func newMemoryStats() *memoryStats {
	return &memoryStats{counters: make(map[string]int64, len(statNames))}
}

func (m *memoryStats) Incr(_ context.Context, name string, delta int64) error {
	m.mu.Lock()
	m.counters[name] += delta
	m.mu.Unlock()
	return nil
}

func (m *memoryStats) Snapshot(context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(statNames))
	for _, name := range statNames {
		out[name] = m.counters[name]
	}
	return out, nil
}

func (m *memoryStats) Backend() string { return "memory" }
func (m *memoryStats) Close() error    { return nil }

type redisStats struct {
	client *redis.Client
	key    string
}

func (r *redisStats) Incr(ctx context.Context, name string, delta int64) error {
	return r.client.HIncrBy(ctx, r.key, name, delta).Err()
}

func (r *redisStats) Snapshot(ctx context.Context) (map[string]int64, error) {
	vals, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("read stats: %w", err)
	}
	out := make(map[string]int64, len(statNames))
	for _, name := range statNames {
		out[name] = 0
	}
	for name, v := range vals {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("stats field %s: %w", name, err)
		}
		out[name] = n
	}
	return out, nil
}

func (r *redisStats) Backend() string { return "redis" }
func (r *redisStats) Close() error    { return r.client.Close() }

// newStatsStore connects to redis when configured and reachable, otherwise
// falls back to in-memory counters.
func newStatsStore(ctx context.Context, cfg Config, logger zerolog.Logger) StatsStore {
	if cfg.RedisAddr == "" {
		logger.Info().Msg("REDIS_ADDR not set, using in-memory stats")
		return newMemoryStats()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis not available, using in-memory stats")
		_ = client.Close()
		return newMemoryStats()
	}
	logger.Info().Str("addr", cfg.RedisAddr).Msg("redis connected")
	return &redisStats{client: client, key: StatsKey}
}

// record bumps a counter without tying it to the request lifetime, so an
// aborted download is still counted.
func record(ctx context.Context, store StatsStore, logger zerolog.Logger, name string, delta int64) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statsWriteTimeout)
	defer cancel()
	if err := store.Incr(ctx, name, delta); err != nil {
		logger.Warn().Err(err).Str("stat", name).Msg("error recording stat")
	}
}
