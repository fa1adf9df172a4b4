// internal/config/watch.go
package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads path whenever it is written or replaced and hands every
// version that passes Validate, normalized, to apply. Rejected edits go to
// onErr and are otherwise ignored. Returns nil when ctx ends.
func Watch(ctx context.Context, path string, apply func(*Config), onErr func(error)) error {
	return watch(ctx, path, apply, onErr, nil)
}

func watch(ctx context.Context, path string, apply func(*Config), onErr func(error), ready func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}
	defer w.Close()

	// editors replace files by rename, so the directory is watched
	target := filepath.Clean(path)
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("config: watch %s: %w", target, err)
	}
	if ready != nil {
		ready()
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-w.Errors:
			// lost events are harmless, the next one rereads the whole file
			if err != fsnotify.ErrEventOverflow {
				return fmt.Errorf("config: watch %s: %w", target, err)
			}

		case ev := <-w.Events:
			if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			cfg, err := Load(target)
			if err == nil {
				err = Validate(cfg)
			}
			if err != nil {
				if onErr != nil {
					onErr(err)
				}
				continue
			}

			Normalize(cfg)
			apply(cfg)
		}
	}
}
