package layout

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/layouts/pkg/domain"
)

// HydrateOption tunes a single Hydrate call.
type HydrateOption func(*hydrateOptions)

type hydrateOptions struct {
	overwrite bool
}

// Overwrite replaces the layout data with the result instead of merging it.
func Overwrite() HydrateOption {
	return func(o *hydrateOptions) {
		o.overwrite = true
	}
}

// Hydrate (re)computes key from its dependencies.
//
// The call is synchronous up to the dependency gate: the layout is marked as
// loading with its error cleared, and if a dependency has no data the layout
// settles right away with a missing-dependency error. Otherwise the hydrator runs
// on its own goroutine and the returned Pending settles once the result (or error)
// has been committed.
//
// Concurrent Hydrate calls on the same key are not deduplicated: each one commits
// in completion order, so sequence results are appended once per call.
func (m *Manager) Hydrate(ctx context.Context, key string, opts ...HydrateOption) *Pending {
	def := m.Definition(key)
	if def.Hydrator == nil {
		return settled(key, nil)
	}

	var o hydrateOptions
	for _, opt := range opts {
		opt(&o)
	}

	started := time.Now()
	m.dispatch(hydrateStartAction{layout: key})
	m.emitStart(ctx, key)

	deps, missing := m.dependencyData(def)
	if missing != "" {
		err := domain.MissingDependency(missing, key)
		m.dispatch(hydrateFailureAction{layout: key, err: err})
		m.logger.Debug("hydration blocked", "layout", key, "missing", missing)
		m.emitSettle(ctx, key, started, err)
		return settled(key, err)
	}

	p := newPending(key)
	go func() {
		result, err := invoke(ctx, def, deps)
		if err != nil {
			m.dispatch(hydrateFailureAction{layout: key, err: err})
			m.logger.Debug("hydration failed", "layout", key, "err", err)
		} else {
			m.dispatch(hydrateSuccessAction{layout: key, result: result, overwrite: o.overwrite})
			m.logger.Debug("hydration settled", "layout", key, "duration", time.Since(started))
		}
		m.emitSettle(ctx, key, started, err)
		p.settle(err)
	}()
	return p
}

// ShouldHydrate reports whether mounting key would hydrate it: the layout has a
// hydrator and either caching is off or it holds no data yet.
func (m *Manager) ShouldHydrate(key string) bool {
	def := m.Definition(key)
	if def.Hydrator == nil {
		return false
	}
	if !def.Cache {
		return true
	}
	return IsEmpty(m.Node(key).Data)
}

// Mount hydrates key when ShouldHydrate allows it. A cached layout settles immediately.
func (m *Manager) Mount(ctx context.Context, key string) *Pending {
	if !m.ShouldHydrate(key) {
		if m.Definition(key).Hydrator != nil {
			// Cached data is served as is.
			m.Update(key, SetLoading(false))
		}
		return settled(key, nil)
	}
	return m.Hydrate(ctx, key)
}

// MountAll mounts every key and returns the pending hydrations.
func (m *Manager) MountAll(ctx context.Context, keys ...string) Batch {
	batch := make(Batch, 0, len(keys))
	for _, key := range keys {
		batch = append(batch, m.Mount(ctx, key))
	}
	return batch
}

// dependencyData collects the data of def's dependencies in declaration order and
// returns the first dependency without data, if any.
func (m *Manager) dependencyData(def Definition) ([]any, string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	deps := make([]any, 0, len(def.Deps))
	for _, dep := range def.Deps {
		data := m.store.node(dep).Data
		if IsEmpty(data) {
			return nil, dep
		}
		deps = append(deps, data)
	}
	return deps, ""
}

// invoke runs the hydrator and both transforms. Panics become errors of the layout;
// a panicking error transform yields its panic instead of the original error.
func invoke(ctx context.Context, def Definition, deps []any) (result any, err error) {
	result, err = call(func() (any, error) {
		raw, err := def.Hydrator(ctx, deps...)
		if err != nil {
			return nil, err
		}
		return def.transformResponse(raw), nil
	}, "hydrator")
	if err == nil {
		return result, nil
	}
	_, terr := call(func() (any, error) {
		return nil, def.transformError(err)
	}, "error transform")
	return nil, terr
}

func call(fn func() (any, error), what string) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("%s panicked: %v", what, r)
		}
	}()
	return fn()
}

func (m *Manager) emitStart(ctx context.Context, key string) {
	if m.hooks.OnHydrateStart == nil {
		return
	}
	m.hooks.OnHydrateStart(ctx, &domain.HydrationEvent{
		EventBase: m.event(domain.EventHydrateStart),
		Layout:    key,
	})
}

func (m *Manager) emitSettle(ctx context.Context, key string, started time.Time, err error) {
	if m.hooks.OnHydrateSettle == nil {
		return
	}
	m.hooks.OnHydrateSettle(ctx, &domain.HydrationEvent{
		EventBase: m.event(domain.EventHydrateSettle),
		Layout:    key,
		Duration:  time.Since(started),
		Err:       err,
	})
}
