package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/aretw0/lobster/internal/logging"
	"github.com/aretw0/lobster/pkg/domain"
	"github.com/aretw0/lobster/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed process can hold a key's distributed lock.
const DefaultLockTTL = 30 * time.Second

// Observation is the outcome of one DiffAndStore call.
type Observation struct {
	// Changed is true on the first observation of a key and whenever the new
	// value differs structurally from the previous snapshot.
	Changed bool `json:"changed"`
	// Found reports whether a previous snapshot existed.
	Found bool `json:"found"`
	// Before is the previous snapshot (nil when Found is false).
	Before any `json:"before"`
	// After is the recorded value in normalized form.
	After any `json:"after"`
}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates snapshot access, serializing read-compare-write cycles
// per key. Unused per-key locks are released by reference counting.
type Manager struct {
	store ports.SnapshotStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking around each update.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager over store.
func NewManager(store ports.SnapshotStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ErrNoStore is returned when a command needs snapshots but the run has no store.
var ErrNoStore = errors.New("no state store configured (set --state-dir or --redis-url)")

// FromRunContext builds a Manager over the run's store and locker.
func FromRunContext(rc ports.RunContext) (*Manager, error) {
	if rc.Store == nil {
		return nil, ErrNoStore
	}
	opts := []Option{}
	if rc.Locker != nil {
		opts = append(opts, WithLocker(rc.Locker))
	}
	if rc.Logger != nil {
		opts = append(opts, WithLogger(rc.Logger))
	}
	return NewManager(rc.Store, opts...), nil
}

// DiffAndStore is a one-shot helper equivalent to NewManager(store, opts...).DiffAndStore.
func DiffAndStore(ctx context.Context, store ports.SnapshotStore, key string, value any, opts ...Option) (Observation, error) {
	return NewManager(store, opts...).DiffAndStore(ctx, key, value)
}

// DiffAndStore compares value with the snapshot stored under key, records
// value as the new snapshot and reports what it saw.
func (m *Manager) DiffAndStore(ctx context.Context, key string, value any) (Observation, error) {
	after, err := domain.NormalizeJSON(value)
	if err != nil {
		return Observation{}, fmt.Errorf("snapshot %q: %w", key, err)
	}

	var obs Observation
	err = m.WithLock(ctx, key, func(ctx context.Context) error {
		before, err := m.store.Load(ctx, key)
		switch {
		case errors.Is(err, domain.ErrSnapshotNotFound):
			obs = Observation{Changed: true, After: after}
		case err != nil:
			return fmt.Errorf("failed to load snapshot %q: %w", key, err)
		default:
			obs = Observation{
				Changed: !reflect.DeepEqual(before, after),
				Found:   true,
				Before:  before,
				After:   after,
			}
		}

		if err := m.store.Save(ctx, key, after); err != nil {
			return fmt.Errorf("failed to save snapshot %q: %w", key, err)
		}
		return nil
	})
	if err != nil {
		return Observation{}, err
	}

	m.logger.Debug("snapshot observed", "key", key, "found", obs.Found, "changed", obs.Changed)
	return obs, nil
}

// Get returns the snapshot for key. ok is false when none was recorded.
func (m *Manager) Get(ctx context.Context, key string) (value any, ok bool, err error) {
	value, err = m.store.Load(ctx, key)
	if errors.Is(err, domain.ErrSnapshotNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set records value under key without comparing.
func (m *Manager) Set(ctx context.Context, key string, value any) error {
	return m.WithLock(ctx, key, func(ctx context.Context) error {
		return m.store.Save(ctx, key, value)
	})
}

// Delete forgets key, so the next observation counts as a first one.
func (m *Manager) Delete(ctx context.Context, key string) error {
	return m.WithLock(ctx, key, func(ctx context.Context) error {
		return m.store.Delete(ctx, key)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying snapshot store.
func (m *Manager) Store() ports.SnapshotStore {
	return m.store
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(key) after unlocking.
func (m *Manager) acquire(key string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		entry = &lockEntry{}
		m.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, key)
	}
}

// WithLock executes fn while holding the lock for key.
func (m *Manager) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := m.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(key)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, key, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"key", key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
