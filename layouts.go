package layouts

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/layouts/internal/logging"
	"github.com/aretw0/layouts/pkg/domain"
	"github.com/aretw0/layouts/pkg/ports"
	"github.com/aretw0/layouts/pkg/registry"
	"github.com/aretw0/layouts/pkg/schema"
	"github.com/aretw0/layouts/pkg/session"
)

// Engine is the high-level entry point: a catalog of compiled workflows and
// the sessions opened from them.
type Engine struct {
	catalog  schema.Catalog
	sessions *session.Manager
	registry *registry.Registry
	store    ports.SnapshotStore
	locker   ports.DistributedLocker
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithRegistry sets the producer registry workflows are compiled against.
// Defaults to registry.NewDefault().
func WithRegistry(r *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithCatalog injects already compiled workflows, bypassing directory loading.
func WithCatalog(c schema.Catalog) Option {
	return func(e *Engine) {
		e.catalog = c
	}
}

// WithStore enables draft persistence.
func WithStore(s ports.SnapshotStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLocker enables distributed session locking.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New loads every workflow document in dir and prepares a session manager.
// dir is ignored when WithCatalog is given.
func New(dir string, opts ...Option) (*Engine, error) {
	e := &Engine{
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = registry.NewDefault()
	}

	if e.catalog == nil {
		catalog, err := schema.LoadDir(dir, e.registry)
		if err != nil {
			return nil, fmt.Errorf("failed to load workflows: %w", err)
		}
		e.catalog = catalog
	}
	if len(e.catalog) == 0 {
		return nil, fmt.Errorf("no workflows found in %q", dir)
	}

	sessionOpts := []session.Option{
		session.WithLogger(e.logger),
		session.WithLifecycleHooks(e.hooks),
	}
	if e.store != nil {
		sessionOpts = append(sessionOpts, session.WithStore(e.store))
	}
	if e.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(e.locker))
	}
	e.sessions = session.NewManager(e.catalog, sessionOpts...)

	e.logger.Debug("engine ready", "workflows", e.catalog.Names())
	return e, nil
}

// Catalog returns the loaded workflows.
func (e *Engine) Catalog() schema.Catalog {
	return e.catalog
}

// Sessions returns the session manager.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}

// Registry returns the producer registry.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Workflow returns a compiled workflow by name.
func (e *Engine) Workflow(name string) (*schema.Workflow, error) {
	wf, ok := e.catalog.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrWorkflowNotFound, name)
	}
	return wf, nil
}

// Start opens a new session of the named workflow and mounts its first step.
func (e *Engine) Start(ctx context.Context, workflow string) (*session.Session, error) {
	return e.sessions.Create(ctx, workflow)
}

// Resume restores a saved draft into a live session.
func (e *Engine) Resume(ctx context.Context, sessionID string) (*session.Session, error) {
	return e.sessions.Restore(ctx, sessionID)
}
