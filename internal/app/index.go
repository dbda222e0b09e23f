package app

import (
	"context"
	"time"

	"docqa/internal/config"
	"docqa/internal/index"
	"docqa/internal/metrics"
)

func newStore(ctx context.Context, cfg *config.Config) (index.Store, error) {
	switch cfg.IndexBackend {
	case config.BackendQdrant:
		store, err := index.NewQdrantStore(cfg.QdrantURL, cfg.IndexAPIKey)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendPGVector:
		store, err := index.NewPGVectorStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		store, err := index.NewChromemStore(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

func indexSpec(cfg *config.Config) index.Spec {
	return index.Spec{
		Name:      cfg.IndexName,
		Dimension: cfg.EmbedDimension,
		Metric:    cfg.IndexMetric,
		Cloud:     cfg.IndexCloud,
		Region:    cfg.IndexRegion,
	}
}

// EnsureIndex creates the configured index if it is missing.
func (a *App) EnsureIndex(ctx context.Context) (bool, error) {
	defer a.metrics.Observe(metrics.StageEnsure, time.Now())

	created, err := a.index.EnsureIndex(ctx)
	if err != nil {
		a.metrics.Error(metrics.StageEnsure)
		return false, err
	}
	return created, nil
}

// IndexSpec returns the index the application reads and writes.
func (a *App) IndexSpec() index.Spec {
	return a.index.Spec()
}

// ListIndexes returns the index names known to the backend.
func (a *App) ListIndexes(ctx context.Context) ([]string, error) {
	return a.store.ListIndexNames(ctx)
}
