package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantlab/meadow/internal/core/observability/log"
	"github.com/verdantlab/meadow/internal/core/sim"
)

func TestWatchPushesParametersOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meadow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("params:\n  radius: 10\n"), 0o644))

	q := sim.NewQueue()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, Path(path), q, log.Nop()) }()

	// Give the watcher a moment to register before touching the file.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("params:\n  radius: 25\n"), 0o644))

	deadline := time.After(3 * time.Second)
	for q.Len() == 0 {
		select {
		case <-deadline:
			t.Fatal("no events after config change")
		case <-time.After(20 * time.Millisecond):
		}
	}
	batch := q.Drain()
	require.NotEmpty(t, batch)
	var found bool
	for _, e := range batch {
		if e.Type == sim.EventSetParameter && e.Key == "radius" {
			assert.Equal(t, 25.0, e.Value)
			found = true
		}
	}
	assert.True(t, found, "radius update missing from %v", batch)

	cancel()
	require.NoError(t, <-done)
}

func TestWatchKeepsParametersOnBrokenReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meadow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("params:\n  radius: 10\n"), 0o644))

	q := sim.NewQueue()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, Path(path), q, log.Nop()) }()

	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("tick_rate: -1\n"), 0o644))
	time.Sleep(500 * time.Millisecond)

	assert.Zero(t, q.Len(), "invalid reload must not emit events")

	cancel()
	require.NoError(t, <-done)
}
