package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"mdindex/internal/domain"
	"mdindex/internal/port"
)

// Registry resolves a language code to a loaded tagging model. Models are
// loaded on first use and kept for the lifetime of the registry.
type Registry struct {
	names  []string
	loader port.ModelLoader
	logger *slog.Logger

	mu     sync.RWMutex
	loaded map[string]port.Model
	group  singleflight.Group
}

// NewRegistry creates a registry over the configured model names. The first
// name is the fallback used for unknown or unmatched languages.
func NewRegistry(names []string, loader port.ModelLoader, logger *slog.Logger) (*Registry, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no models configured", domain.ErrFallbackUnavailable)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		names:  append([]string(nil), names...),
		loader: loader,
		logger: logger.With("component", "model-registry"),
		loaded: make(map[string]port.Model),
	}, nil
}

// Fallback returns the name of the fallback model.
func (r *Registry) Fallback() string {
	return r.names[0]
}

// Names returns the configured model names in priority order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Resolve returns the first configured model whose name starts with
// lang + "_" and loads successfully, or the fallback model. An error
// wrapping domain.ErrFallbackUnavailable means no model can be used.
func (r *Registry) Resolve(ctx context.Context, lang string) (port.Model, error) {
	if lang != "" && lang != domain.UnknownLanguage {
		prefix := lang + "_"
		for _, name := range r.names {
			if !strings.HasPrefix(name, prefix) {
				continue
			}
			m, err := r.load(ctx, name)
			if err == nil {
				return m, nil
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.logger.Warn("model unavailable, trying next", "model", name, "lang", lang, "error", err)
		}
	}

	m, err := r.load(ctx, r.names[0])
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrFallbackUnavailable, r.names[0], err)
	}
	return m, nil
}

// Warm loads the fallback model and tries the others, logging which are
// available. Only a missing fallback is an error.
func (r *Registry) Warm(ctx context.Context) error {
	if _, err := r.load(ctx, r.names[0]); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrFallbackUnavailable, r.names[0], err)
	}
	for _, name := range r.names[1:] {
		if _, err := r.load(ctx, name); err != nil {
			if errors.Is(err, domain.ErrModelNotInstalled) {
				r.logger.Warn("model not installed", "model", name)
				continue
			}
			r.logger.Warn("model failed to load", "model", name, "error", err)
			continue
		}
	}
	r.logger.Info("models ready", "fallback", r.names[0], "loaded", r.Loaded())
	return nil
}

// Loaded returns the names of the models loaded so far.
func (r *Registry) Loaded() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.loaded))
	for _, name := range r.names {
		if _, ok := r.loaded[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

func (r *Registry) load(ctx context.Context, name string) (port.Model, error) {
	r.mu.RLock()
	m, ok := r.loaded[name]
	r.mu.RUnlock()
	if ok {
		return m, nil
	}

	ch := r.group.DoChan(name, func() (interface{}, error) {
		r.mu.RLock()
		m, ok := r.loaded[name]
		r.mu.RUnlock()
		if ok {
			return m, nil
		}

		m, err := r.loader.Load(name)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.loaded[name] = m
		r.mu.Unlock()
		r.logger.Debug("model loaded", "model", name)
		return m, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(port.Model), nil
	}
}
