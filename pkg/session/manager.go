package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/layouts/internal/logging"
	"github.com/aretw0/layouts/pkg/domain"
	"github.com/aretw0/layouts/pkg/ports"
	"github.com/aretw0/layouts/pkg/schema"
	"github.com/google/uuid"
)

// ErrNoStore is returned by Save and Restore when no snapshot store is configured.
var ErrNoStore = errors.New("no snapshot store configured")

// DefaultLockTTL bounds how long a distributed session lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// Catalog resolves workflow names.
type Catalog interface {
	Lookup(name string) (*schema.Workflow, bool)
	Names() []string
}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	catalog Catalog
	store   ports.SnapshotStore

	mu    sync.Mutex            // Global lock for the maps
	locks map[string]*lockEntry // Map of active locks
	live  map[string]*Session

	locker  ports.DistributedLocker
	lockTTL time.Duration
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithStore enables draft persistence.
func WithStore(store ports.SnapshotStore) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLifecycleHooks registers hooks passed down to every session.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = hooks
	}
}

// WithLogger configures a logger for the Manager and its sessions.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a session manager over the given workflows.
func NewManager(catalog Catalog, opts ...Option) *Manager {
	m := &Manager{
		catalog: catalog,
		locks:   make(map[string]*lockEntry),
		live:    make(map[string]*Session),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Catalog returns the workflows sessions can be created from.
func (m *Manager) Catalog() Catalog {
	return m.catalog
}

// Store returns the snapshot store, nil when persistence is disabled.
func (m *Manager) Store() ports.SnapshotStore {
	return m.store
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock executes fn while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Do runs fn against a live session while holding its lock.
func (m *Manager) Do(ctx context.Context, sessionID string, fn func(context.Context, *Session) error) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := m.Get(sessionID)
		if err != nil {
			return err
		}
		return fn(ctx, s)
	})
}

// Create opens a new session of the named workflow and mounts its first step.
func (m *Manager) Create(ctx context.Context, workflow string) (*Session, error) {
	wf, ok := m.catalog.Lookup(workflow)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrWorkflowNotFound, workflow)
	}
	s, err := m.open(uuid.NewString(), wf)
	if err != nil {
		return nil, err
	}
	s.mounted = s.Wizard.Start(ctx)
	m.register(ctx, s)
	return s, nil
}

// Get returns a live session.
func (m *Manager) Get(sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.live[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	return s, nil
}

// List returns the IDs of live sessions, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.live))
	for id := range m.live {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Drafts lists the session IDs held by the store.
func (m *Manager) Drafts(ctx context.Context) ([]string, error) {
	if m.store == nil {
		return nil, ErrNoStore
	}
	return m.store.List(ctx)
}

// Delete drops the live session and its draft.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := m.Get(sessionID)
		if err == nil {
			m.unregister(ctx, s)
		}
		if m.store == nil {
			return err
		}
		return m.store.Delete(ctx, sessionID)
	})
}

// Save persists the session draft and returns what changed since the last save.
func (m *Manager) Save(ctx context.Context, sessionID string) (*domain.SnapshotDiff, error) {
	if m.store == nil {
		return nil, ErrNoStore
	}
	var diff *domain.SnapshotDiff
	err := m.Do(ctx, sessionID, func(ctx context.Context, s *Session) error {
		snap := s.Snapshot()
		if err := m.store.Save(ctx, snap); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		diff = s.markSaved(snap)
		m.logger.Debug("session saved", "session_id", sessionID, "active_step", snap.ActiveStep)
		return nil
	})
	return diff, err
}

// Restore rebuilds a live session from its stored draft, replacing any live
// session with the same ID. The restored session is not hydrated: data comes
// from the draft and the active step is not remounted.
func (m *Manager) Restore(ctx context.Context, sessionID string) (*Session, error) {
	if m.store == nil {
		return nil, ErrNoStore
	}
	var restored *Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		snap, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		wf, ok := m.catalog.Lookup(snap.Workflow)
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrWorkflowNotFound, snap.Workflow)
		}
		s, err := m.open(sessionID, wf)
		if err != nil {
			return err
		}
		s.Layouts.Restore(snap.Layouts)
		s.Wizard.Restore(snap.ActiveStep, snap.Warnings)
		s.markSaved(snap)

		if old, err := m.Get(sessionID); err == nil {
			m.unregister(ctx, old)
		}
		m.register(ctx, s)
		restored = s
		return nil
	})
	return restored, err
}

func (m *Manager) open(id string, wf *schema.Workflow) (*Session, error) {
	layouts, ctrl, err := wf.Open(schema.OpenOptions{
		SessionID: id,
		Logger:    m.logger,
		Hooks:     m.hooks,
	})
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:        id,
		Workflow:  wf,
		Layouts:   layouts,
		Wizard:    ctrl,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (m *Manager) register(ctx context.Context, s *Session) {
	m.mu.Lock()
	m.live[s.ID] = s
	m.mu.Unlock()

	m.logger.Info("session started", "session_id", s.ID, "workflow", s.Workflow.Name)
	if m.hooks.OnSessionStart != nil {
		m.hooks.OnSessionStart(ctx, m.event(domain.EventSessionStart, s))
	}
}

func (m *Manager) unregister(ctx context.Context, s *Session) {
	m.mu.Lock()
	delete(m.live, s.ID)
	m.mu.Unlock()

	m.logger.Info("session ended", "session_id", s.ID, "workflow", s.Workflow.Name)
	if m.hooks.OnSessionEnd != nil {
		m.hooks.OnSessionEnd(ctx, m.event(domain.EventSessionEnd, s))
	}
}

func (m *Manager) event(t domain.EventType, s *Session) *domain.SessionEvent {
	return &domain.SessionEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Type:      t,
			SessionID: s.ID,
		},
		Workflow: s.Workflow.Name,
	}
}
