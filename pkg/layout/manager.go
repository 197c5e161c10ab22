package layout

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/layouts/internal/logging"
	"github.com/aretw0/layouts/pkg/domain"
)

// Change describes a committed mutation of one layout.
type Change struct {
	Version uint64
	Action  string
	Layout  string
	State   NodeState
}

// Manager is the façade over the layout store of one screen session.
// Every mutation is funneled through a single serialized dispatch path,
// hydrators run on their own goroutines and settle through the same path.
type Manager struct {
	defs Definitions

	mu      sync.Mutex
	store   *store
	version uint64

	// notifyMu is taken before mu is released so subscribers observe commit order.
	notifyMu sync.Mutex
	subsMu   sync.Mutex
	subs     map[int]func(Change)
	nextSub  int

	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	sessionID string
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = hooks
	}
}

// WithSessionID tags emitted events with the owning session.
func WithSessionID(id string) Option {
	return func(m *Manager) {
		m.sessionID = id
	}
}

// New validates defs and seeds one NodeState per declared layout.
func New(defs Definitions, opts ...Option) (*Manager, error) {
	if err := defs.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout definitions: %w", err)
	}

	// Private copy, callers may keep mutating their map.
	own := make(Definitions, len(defs))
	for k, def := range defs {
		def.Deps = append([]string(nil), def.Deps...)
		own[k] = def
	}

	m := &Manager{
		defs:   own,
		store:  newStore(own),
		subs:   make(map[int]func(Change)),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.sessionID != "" {
		m.logger = m.logger.With("session_id", m.sessionID)
	}
	return m, nil
}

// MustNew is like New but panics on invalid definitions.
func MustNew(defs Definitions, opts ...Option) *Manager {
	m, err := New(defs, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// SessionID returns the session the manager was tagged with, if any.
func (m *Manager) SessionID() string {
	return m.sessionID
}

// Has reports whether key is a declared layout.
func (m *Manager) Has(key string) bool {
	_, ok := m.defs[key]
	return ok
}

// Keys returns the declared layouts in lexical order.
func (m *Manager) Keys() []string {
	return m.defs.Keys()
}

// Definition returns the definition of key. Unknown keys panic.
func (m *Manager) Definition(key string) Definition {
	def, ok := m.defs[key]
	if !ok {
		panic(fmt.Sprintf("layout: unknown layout %q", key))
	}
	return def
}

// Deps returns a copy of the declared dependencies of key.
func (m *Manager) Deps(key string) []string {
	return append([]string(nil), m.Definition(key).Deps...)
}

// Node returns the current state of key. Unknown keys panic.
func (m *Manager) Node(key string) NodeState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.node(key)
}

// Snapshot returns a copy of every layout state.
func (m *Manager) Snapshot() map[string]NodeState {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]NodeState, len(m.store.nodes))
	for k, v := range m.store.nodes {
		out[k] = v
	}
	return out
}

// Version returns the number of committed mutations.
func (m *Manager) Version() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version
}

// Subscribe registers fn to be called after every committed change, in commit order.
// fn must not call mutating methods of the Manager synchronously.
func (m *Manager) Subscribe(fn func(Change)) (cancel func()) {
	m.subsMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.subsMu.Unlock()

	return func() {
		m.subsMu.Lock()
		delete(m.subs, id)
		m.subsMu.Unlock()
	}
}

// Assign replaces the data of key and marks it as not loading.
func (m *Manager) Assign(key string, value any) {
	m.dispatch(assignAction{layout: key, value: value})
}

// Update applies patches to the top-level state of key.
func (m *Manager) Update(key string, patches ...Patch) {
	m.dispatch(updateAction{layout: key, patches: patches})
}

// Reset puts every layout back to its empty default with IsLoading set,
// so consumers hydrate again instead of rendering empty data as loaded.
func (m *Manager) Reset() {
	m.dispatch(resetAction{})
	m.logger.Debug("layouts reset")
}

// Restore assigns persisted layout data back into the store.
// Layouts unknown to this manager are skipped.
func (m *Manager) Restore(layouts map[string]domain.LayoutSnapshot) {
	for key, snap := range layouts {
		if !m.Has(key) {
			m.logger.Debug("skipping unknown layout in snapshot", "layout", key)
			continue
		}
		if !IsEmpty(snap.Data) {
			m.Assign(key, snap.Data)
		}
		if snap.Error != nil {
			m.Update(key, SetError(snap.Error), SetLoading(false))
		}
	}
}

// Export converts the current store into persistable layout snapshots.
func (m *Manager) Export() map[string]domain.LayoutSnapshot {
	out := make(map[string]domain.LayoutSnapshot)
	for key, node := range m.Snapshot() {
		snap := domain.LayoutSnapshot{Data: node.Data}
		if node.Err != nil {
			snap.Error = domain.AsError(node.Err)
		}
		out[key] = snap
	}
	return out
}

func (m *Manager) dispatch(a action) {
	changes := m.commit(a)
	defer m.notifyMu.Unlock()

	m.subsMu.Lock()
	subs := make([]func(Change), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.subsMu.Unlock()

	for _, c := range changes {
		for _, fn := range subs {
			fn(c)
		}
	}
}

func (m *Manager) event(t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: time.Now(),
		Type:      t,
		SessionID: m.sessionID,
	}
}

// commit runs the reducer under m.mu and returns with notifyMu held, so changes
// are delivered in commit order. A panicking reducer releases both locks.
func (m *Manager) commit(a action) []Change {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := m.store.reduce(a)
	m.version++
	changes := make([]Change, 0, len(keys))
	for _, key := range keys {
		changes = append(changes, Change{
			Version: m.version,
			Action:  a.actionName(),
			Layout:  key,
			State:   m.store.nodes[key],
		})
	}
	m.notifyMu.Lock()
	return changes
}
