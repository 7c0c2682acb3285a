package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay coalesces the burst of events one save produces.
const reloadDelay = 100 * time.Millisecond

// Watch calls onChange with the newly loaded Config each time the file at
// path changes, until ctx is cancelled.
//
// The parent directory is watched so that editors which save by renaming a
// temp file over path keep triggering reloads. A reload that fails validation
// is logged and skipped; the previous config stays in effect.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config: resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: new watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("config: watch %s: %w", filepath.Dir(target), err)
	}
	slog.Info("config: watching for changes", "path", target)

	pending := time.NewTimer(reloadDelay)
	pending.Stop()
	defer pending.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending.Reset(reloadDelay)
			}

		case <-pending.C:
			cfg, err := Load(target)
			if err != nil {
				slog.Error("config: reload failed, keeping previous config", "path", target, "err", err)
				continue
			}
			slog.Info("config: reloaded", "path", target)
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}
