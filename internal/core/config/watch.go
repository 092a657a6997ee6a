package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/verdantlab/meadow/internal/core/observability/log"
	"github.com/verdantlab/meadow/internal/core/sim"
	"github.com/verdantlab/meadow/pkg/sequence"
)

const debounceWindow = 100 * time.Millisecond

// Watch reloads the configuration file whenever it changes and pushes
// the parameter section into the event queue as SetParameter events.
// Only parameters hot-reload; geometry, seed and entities stay fixed
// for the life of the simulation. Blocks until ctx is done.
func Watch(ctx context.Context, path Path, queue *sim.Queue, logger log.Log) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	// Watch the directory; editors often replace the file on save.
	if err := w.Add(filepath.Dir(string(path))); err != nil {
		return err
	}
	target := filepath.Clean(string(path))
	logger = logger.With(log.String("component", "config_watch"))
	var lastReload time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			now := time.Now()
			if now.Sub(lastReload) < debounceWindow {
				continue
			}
			lastReload = now

			cfg, err := Load(path)
			if err != nil {
				logger.Warn("config reload failed, keeping current parameters", log.Error(err))
				continue
			}
			keys := sequence.FromMapKeys(cfg.Params).
				Sort(func(a, b string) bool { return a < b }).
				Collect()
			for _, k := range keys {
				queue.Push(sim.Event{Type: sim.EventSetParameter, Key: k, Value: cfg.Params[k]})
			}
			logger.Info("parameters reloaded", log.Int("count", len(keys)))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", log.Error(err))
		}
	}
}
