package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"tankscope/internal/assessment"
	"tankscope/internal/dataset"
)

// workspace is the shared state of the long-running servers.
type workspace struct {
	store *dataset.Store
	cache *assessment.Cache
}

// openWorkspace loads the register. A missing or unreadable file is logged
// rather than fatal so a watcher can pick it up once it appears.
func openWorkspace() *workspace {
	ds, err := dataset.Load(cfg.DatasetPath)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.DatasetPath).Msg("Failed to load dataset")
	}
	return &workspace{store: dataset.NewStore(ds), cache: assessment.NewCache()}
}

// watch swaps in every successful reload and drops cached cohorts. It blocks
// until ctx is cancelled.
func (w *workspace) watch(ctx context.Context, onReload func(gen uint64)) {
	err := dataset.Watch(ctx, cfg.DatasetPath, func(ds *dataset.Dataset) {
		gen := w.store.Replace(ds)
		w.cache.Reset()
		log.Info().
			Str("path", ds.Source).
			Int("records", ds.Len()).
			Uint64("generation", gen).
			Msg("Dataset reloaded")
		if onReload != nil {
			onReload(gen)
		}
	})
	if err != nil {
		log.Warn().Err(err).Msg("Dataset watcher stopped")
	}
}

// loadDataset is the strict variant used by one-shot commands.
func loadDataset() (*dataset.Dataset, error) {
	ds, err := dataset.Load(cfg.DatasetPath)
	if err != nil {
		return nil, fmt.Errorf("load dataset (set DATASET_PATH or --dataset): %w", err)
	}
	return ds, nil
}
