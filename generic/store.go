/*
store.go - Persistence interface for clock points

PURPOSE:
  Defines the interface between the accrual engine and the database.
  The store is an append-only log of ClockEvents per user. Different
  implementations can use SQLite or in-memory storage.

KEY INTERFACES:
  PointStore:   Append + range reads (the "point source")
  TxPointStore: Atomic read-then-append for registration
  Locker:       Per-user serialization of registrations

APPEND-ONLY CONTRACT:
  - Append(): the only write
  - NO Update() or Delete() methods exist

IDEMPOTENCY:
  A point may carry an idempotency key. Appending a second point with the
  same key fails with ErrDuplicateIdempotencyKey; registration turns a
  retried key into a replay of the original point.

ATOMIC APPEND-AND-DECIDE:
  The kind of a new point depends on the last point. Reading the last point
  and appending the new one happen inside WithTx while the user's lock is
  held, so two concurrent registrations can never observe the same "last".

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite
  - generic/store: In-memory for testing

SEE ALSO:
  - ledger.go: Registrar built on TxPointStore
  - store/redis: Distributed Locker
*/
package generic

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// =============================================================================
// STORE - Interface for point persistence (append-only)
// =============================================================================

// PointStore handles persistence of clock points.
// IMPORTANT: PointStore is APPEND-ONLY. No Update, No Delete.
type PointStore interface {
	// Append persists a point. Returns ErrDuplicateIdempotencyKey if the
	// point's idempotency key exists.
	Append(ctx context.Context, e ClockEvent) error

	// LoadRange returns the user's points with from <= At < to, ascending by At.
	LoadRange(ctx context.Context, userID UserID, from, to time.Time) ([]ClockEvent, error)

	// LastBefore returns the user's latest point with At <= at, and At >= since
	// when since is non-nil. Returns nil when there is none.
	LastBefore(ctx context.Context, userID UserID, since *time.Time, at time.Time) (*ClockEvent, error)

	// FindByIdempotencyKey returns nil when no point carries key.
	FindByIdempotencyKey(ctx context.Context, key string) (*ClockEvent, error)
}

// TxPointStore wraps PointStore with transaction support.
type TxPointStore interface {
	PointStore

	// WithTx executes fn within a transaction.
	// If fn returns error, the transaction is rolled back.
	WithTx(ctx context.Context, fn func(PointStore) error) error
}

// =============================================================================
// LOCKER - Per-key mutual exclusion
// =============================================================================

// Locker serializes work per key. The returned unlock func must be called
// exactly once; calling it more than once is a no-op.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// KeyedMutex is an in-process Locker. The zero value is ready to use.
type KeyedMutex struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

func (k *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	if k.slots == nil {
		k.slots = make(map[string]*lockSlot)
	}
	slot, ok := k.slots[key]
	if !ok {
		slot = &lockSlot{ch: make(chan struct{}, 1)}
		k.slots[key] = slot
	}
	slot.refs++
	k.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-slot.ch
				k.release(key, slot)
			})
		}, nil
	case <-ctx.Done():
		k.release(key, slot)
		return nil, fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
	}
}

func (k *KeyedMutex) release(key string, slot *lockSlot) {
	k.mu.Lock()
	defer k.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(k.slots, key)
	}
}
