package dataset

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watch reloads the dataset at path whenever it is written or re-created and
// hands the result to onChange. A failed reload is logged and the previous
// dataset stays active. Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, onChange func(*Dataset)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Spreadsheet editors save via rename, so watch the directory and filter by name.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	target := filepath.Clean(path)

	log.Info().Str("path", path).Msg("Watching dataset for changes")

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
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			ds, err := Load(path)
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("Dataset reload failed, keeping previous dataset")
				continue
			}
			onChange(ds)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("Dataset watcher error")
		}
	}
}
