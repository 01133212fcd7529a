package main

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStatsConcurrentIncr(t *testing.T) {
	store := newMemoryStats()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Incr(ctx, StatDownloadCompleted, 1))
			assert.NoError(t, store.Incr(ctx, StatBytesStreamed, 1024))
		}()
	}
	wg.Wait()

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(50), snap[StatDownloadCompleted])
	assert.Equal(t, int64(50*1024), snap[StatBytesStreamed])
	assert.Len(t, snap, len(statNames))
	assert.Zero(t, snap[StatPreviewOK])
}

func TestNewStatsStoreFallsBackToMemory(t *testing.T) {
	tests := map[string]string{
		"not configured": "",
		"unreachable":    "127.0.0.1:1",
	}
	for name, addr := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			cfg.RedisAddr = addr
			store := newStatsStore(context.Background(), cfg, zerolog.Nop())
			defer store.Close()
			assert.Equal(t, "memory", store.Backend())
		})
	}
}

func TestRecordSurvivesCanceledContext(t *testing.T) {
	store := newMemoryStats()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	record(ctx, store, zerolog.Nop(), StatDownloadAborted, 1)

	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap[StatDownloadAborted])
}
