package cli

import (
	"context"
	"fmt"

	"mdindex/config"
	"mdindex/internal/adapter/analyzer"
	"mdindex/internal/adapter/cache"
	"mdindex/internal/adapter/fs"
	"mdindex/internal/adapter/langdetect"
	"mdindex/internal/adapter/metrics"
	"mdindex/internal/adapter/model"
	"mdindex/internal/adapter/store"
	"mdindex/internal/port"
	"mdindex/internal/usecase"
)

// app bundles the components every command shares.
type app struct {
	cfg     *config.Config
	store   port.IndexStore
	metrics *metrics.Metrics
	cache   *cache.QueryCache
	queries *usecase.QueryUseCase
	walker  *fs.Walker
}

func openApp(cfg *config.Config) (*app, error) {
	st, err := store.Open(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index store: %w", err)
	}

	a := &app{
		cfg:     cfg,
		store:   st,
		metrics: metrics.New(),
		walker:  fs.NewWalker(cfg.Scan.Includes, cfg.Scan.Excludes, logger),
	}

	a.queries = usecase.NewQueryUseCase(st, fs.Reader{})
	a.queries.SetMetrics(a.metrics)
	if cfg.Query.CacheSize > 0 {
		a.cache = cache.NewQueryCache(cfg.Query.CacheSize, cfg.Query.CacheTTL)
		a.cache.SetMetrics(a.metrics)
		a.queries.SetCache(a.cache)
	}
	return a, nil
}

// indexer builds the indexing pipeline. It fails when the fallback model
// cannot be loaded, since nothing could be indexed.
func (a *app) indexer(ctx context.Context) (*usecase.IndexUseCase, *model.Registry, error) {
	registry, err := model.NewRegistry(a.cfg.Models.Names, analyzer.NewLoader(), logger)
	if err != nil {
		return nil, nil, err
	}
	if err := registry.Warm(ctx); err != nil {
		return nil, nil, err
	}

	uc := usecase.NewIndexUseCase(
		a.store,
		a.walker,
		fs.Reader{},
		langdetect.NewDetector(logger),
		usecase.NewExtractor(registry),
		logger,
	)
	uc.SetMetrics(a.metrics)
	if a.cache != nil {
		uc.OnChange(a.cache.Invalidate)
	}
	return uc, registry, nil
}

// writerLock takes the single-writer lock for persistent stores. The
// returned release function is never nil.
func (a *app) writerLock() (func(), error) {
	if a.cfg.Store.Driver == store.DriverMemory {
		return func() {}, nil
	}
	lock := store.NewWriterLock(a.cfg.Store.Path)
	if err := lock.Acquire(); err != nil {
		return func() {}, err
	}
	return func() {
		if err := lock.Release(); err != nil {
			logger.Warn("failed to release writer lock", "path", lock.Path(), "error", err)
		}
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
