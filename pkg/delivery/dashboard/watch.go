package dashboard

import (
	"context"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// edit source files the watcher announces
const editSourcePattern = "*.{csv,json}"

// watchEditSources announces edit-source file changes under dir on the
// hub, so a browser tab notices when a new instruction list lands.
func watchEditSources(ctx context.Context, dir string, hub *Hub) error {
	logger := zerolog.Ctx(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return errors.Errorf("watching %s: %w", dir, err)
	}
	logger.Info().Str("dir", dir).Msg("watching for edit source changes")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			matched, err := doublestar.Match(editSourcePattern, filepath.Base(event.Name))
			if err != nil || !matched {
				continue
			}
			hub.Publish("edit source updated: " + filepath.Base(event.Name))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("watcher error")
		}
	}
}
