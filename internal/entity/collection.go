// Package entity implements a generic, indexed, typed collection over the
// key-value store. Each entity type holds one JSON record per instance at
// "{type}/{id}" plus a "{type}-index" key with the ordered set of live IDs.
package entity

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"expensehub/internal/domain"
	"expensehub/internal/kvstore"
)

// Definition statically configures a Collection for one entity type.
// Each entity type is a value describing its own schema.
type Definition[T any] struct {
	// Name is the entity type name ("user", "expense"); it prefixes every
	// record key.
	Name string

	// IndexKey is the key holding the ID set. Defaults to Name + "-index".
	IndexKey string

	// ID returns the record's ID.
	ID func(*T) string

	// SetID assigns a generated ID to a record that was created without one.
	SetID func(*T, string)

	// NewID generates a fresh unique ID. Defaults to uuid.NewString.
	NewID func() string
}

// Collection provides typed CRUD, idempotent seeding, and atomic mutation
// for one entity type.
//
// Concurrency discipline: every mutating operation on a given id holds that
// id's lock, so mutations on one id are linearizable while different ids
// proceed in parallel. Create and Delete additionally hold the index lock
// across the paired record/index writes, so the index and record set never
// diverge observably.
type Collection[T any] struct {
	def    Definition[T]
	store  kvstore.Store
	logger *slog.Logger

	locks   lockTable
	indexMu sync.Mutex
	seeded  atomic.Bool
}

// NewCollection creates a Collection over store. A nil logger falls back to
// slog.Default.
func NewCollection[T any](store kvstore.Store, def Definition[T], logger *slog.Logger) *Collection[T] {
	if def.IndexKey == "" {
		def.IndexKey = def.Name + "-index"
	}
	if def.NewID == nil {
		def.NewID = uuid.NewString
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Collection[T]{
		def:    def,
		store:  store,
		logger: logger.With("entity", def.Name),
	}
}

// Name returns the entity type name.
func (c *Collection[T]) Name() string { return c.def.Name }

func (c *Collection[T]) recordKey(id string) string {
	return c.def.Name + "/" + id
}

// Exists reports whether id is present in the type's index.
func (c *Collection[T]) Exists(ctx context.Context, id string) (bool, error) {
	ids, err := c.loadIndex(ctx)
	if err != nil {
		return false, err
	}
	for _, existing := range ids {
		if existing == id {
			return true, nil
		}
	}
	return false, nil
}

// Get returns the stored record for id. It never substitutes a zero value
// for a missing record: absence is a NotFoundError.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	raw, ok, err := c.store.Get(ctx, c.recordKey(id))
	if err != nil {
		return zero, domain.ErrStorage(err, "load %s %q", c.def.Name, id)
	}
	if !ok {
		return zero, domain.ErrNotFound("%s %q not found", c.def.Name, id)
	}
	var rec T
	if err := json.Unmarshal(raw, &rec); err != nil {
		return zero, domain.ErrStorage(err, "decode %s %q", c.def.Name, id)
	}
	return rec, nil
}

// Create writes the record and inserts its ID into the index as one
// observable unit. An empty ID is replaced with a generated one. Creating
// an ID that already exists is a ConflictError, never a silent overwrite.
func (c *Collection[T]) Create(ctx context.Context, rec T) (T, error) {
	var zero T
	id := c.def.ID(&rec)
	if id == "" {
		id = c.def.NewID()
		c.def.SetID(&rec, id)
	}

	unlock := c.locks.lock(id)
	defer unlock()

	c.indexMu.Lock()
	defer c.indexMu.Unlock()

	ids, err := c.loadIndex(ctx)
	if err != nil {
		return zero, err
	}
	for _, existing := range ids {
		if existing == id {
			return zero, domain.ErrConflict("%s %q already exists", c.def.Name, id)
		}
	}

	// Record first, index second: readers resolve through the index, so the
	// record must be durable before its ID becomes visible.
	raw, err := json.Marshal(rec)
	if err != nil {
		return zero, domain.ErrStorage(err, "encode %s %q", c.def.Name, id)
	}
	if err := c.store.Put(ctx, c.recordKey(id), raw); err != nil {
		return zero, domain.ErrStorage(err, "store %s %q", c.def.Name, id)
	}
	if err := c.saveIndex(ctx, append(ids, id)); err != nil {
		// Roll the record back so index and record set stay in sync.
		if delErr := c.store.Delete(ctx, c.recordKey(id)); delErr != nil {
			c.logger.Error("rollback of orphaned record failed", "id", id, "error", delErr)
		}
		return zero, err
	}
	return rec, nil
}

// List resolves every ID in the index to its record, preserving index
// order. IDs the index references but the store lacks are skipped and
// logged: divergence is a data-integrity signal, not a user-visible fault.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	ids, err := c.loadIndex(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		rec, err := c.Get(ctx, id)
		if err != nil {
			var notFound *domain.NotFoundError
			if errors.As(err, &notFound) {
				c.logger.Warn("index references missing record", "id", id)
				continue
			}
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Delete removes the record and its index entry together. Deleting an
// absent id is a NotFoundError so callers can distinguish.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	unlock := c.locks.lock(id)
	defer unlock()

	c.indexMu.Lock()
	defer c.indexMu.Unlock()

	ids, err := c.loadIndex(ctx)
	if err != nil {
		return err
	}
	found := false
	remaining := make([]string, 0, len(ids))
	for _, existing := range ids {
		if existing == id {
			found = true
			continue
		}
		remaining = append(remaining, existing)
	}
	if !found {
		return domain.ErrNotFound("%s %q not found", c.def.Name, id)
	}

	// Index entry first, record second: once the ID is gone from the index
	// no reader resolves the record, so the pair never diverges observably.
	if err := c.saveIndex(ctx, remaining); err != nil {
		return err
	}
	if err := c.store.Delete(ctx, c.recordKey(id)); err != nil {
		// Restore the index entry rather than leaving an orphaned record.
		if restoreErr := c.saveIndex(ctx, ids); restoreErr != nil {
			c.logger.Error("index restore after failed delete", "id", id, "error", restoreErr)
		}
		return domain.ErrStorage(err, "delete %s %q", c.def.Name, id)
	}
	return nil
}

// Mutate atomically applies fn to the record with the given id and persists
// the result. The read-modify-write is serialized against every other
// Mutate/Create/Delete on the same id: the second of two concurrent calls
// always sees the effect of the first.
//
// The contract has three outcomes: applied (fn returns nil, the new state
// is written and returned), rejected (fn returns an error, nothing is
// written and the error propagates unchanged), and NotFoundError when the
// id has no record. A rejected mutation never touches the stored value.
func (c *Collection[T]) Mutate(ctx context.Context, id string, fn func(*T) error) (T, error) {
	var zero T

	unlock := c.locks.lock(id)
	defer unlock()

	rec, err := c.Get(ctx, id)
	if err != nil {
		return zero, err
	}
	if err := fn(&rec); err != nil {
		return zero, err
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return zero, domain.ErrStorage(err, "encode %s %q", c.def.Name, id)
	}
	if err := c.store.Put(ctx, c.recordKey(id), raw); err != nil {
		return zero, domain.ErrStorage(err, "store %s %q", c.def.Name, id)
	}
	return rec, nil
}

// EnsureSeed bulk-loads the given records (and their index) if the type's
// index is currently absent or empty. It is idempotent and safe to call on
// every request path: after the first successful run a process-local flag
// short-circuits without touching the store.
func (c *Collection[T]) EnsureSeed(ctx context.Context, records []T) error {
	if c.seeded.Load() {
		return nil
	}

	c.indexMu.Lock()
	defer c.indexMu.Unlock()

	ids, err := c.loadIndex(ctx)
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		c.seeded.Store(true)
		return nil
	}

	ids = make([]string, 0, len(records))
	for i := range records {
		rec := records[i]
		id := c.def.ID(&rec)
		if id == "" {
			return domain.ErrValidation("seed %s record %d has no id", c.def.Name, i)
		}
		raw, err := json.Marshal(rec)
		if err != nil {
			return domain.ErrStorage(err, "encode seed %s %q", c.def.Name, id)
		}
		if err := c.store.Put(ctx, c.recordKey(id), raw); err != nil {
			return domain.ErrStorage(err, "store seed %s %q", c.def.Name, id)
		}
		ids = append(ids, id)
	}
	if err := c.saveIndex(ctx, ids); err != nil {
		return err
	}
	c.seeded.Store(true)
	c.logger.Info("seeded collection", "records", len(ids))
	return nil
}

func (c *Collection[T]) loadIndex(ctx context.Context) ([]string, error) {
	raw, ok, err := c.store.Get(ctx, c.def.IndexKey)
	if err != nil {
		return nil, domain.ErrStorage(err, "load %s index", c.def.Name)
	}
	if !ok {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, domain.ErrStorage(err, "decode %s index", c.def.Name)
	}
	return ids, nil
}

func (c *Collection[T]) saveIndex(ctx context.Context, ids []string) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return domain.ErrStorage(err, "encode %s index", c.def.Name)
	}
	if err := c.store.Put(ctx, c.def.IndexKey, raw); err != nil {
		return domain.ErrStorage(err, "store %s index", c.def.Name)
	}
	return nil
}

// lockTable hands out one mutex per entity id. Entries are created lazily
// and kept for the life of the process; the population of ids bounds the
// table size.
type lockTable struct {
	locks sync.Map // map[string]*sync.Mutex
}

func (l *lockTable) lock(id string) (unlock func()) {
	v, _ := l.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
