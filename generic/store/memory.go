// Package store provides in-memory PointStore implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/timeclock-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	points      map[generic.UserID][]generic.ClockEvent
	idempotency map[string]generic.ClockEvent
}

func NewMemory() *Memory {
	return &Memory{
		points:      make(map[generic.UserID][]generic.ClockEvent),
		idempotency: make(map[string]generic.ClockEvent),
	}
}

// Append adds a single point. Append-only.
func (m *Memory) Append(_ context.Context, e generic.ClockEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendLocked(e)
}

func (m *Memory) appendLocked(e generic.ClockEvent) error {
	if e.IdempotencyKey != "" {
		if _, ok := m.idempotency[e.IdempotencyKey]; ok {
			return generic.ErrDuplicateIdempotencyKey
		}
	}

	points := m.points[e.UserID]

	// Insert after every point with the same instant so equal timestamps keep
	// insertion order.
	i := sort.Search(len(points), func(i int) bool {
		return points[i].At.After(e.At)
	})
	points = append(points, generic.ClockEvent{})
	copy(points[i+1:], points[i:])
	points[i] = e
	m.points[e.UserID] = points

	if e.IdempotencyKey != "" {
		m.idempotency[e.IdempotencyKey] = e
	}
	return nil
}

func (m *Memory) LoadRange(_ context.Context, userID generic.UserID, from, to time.Time) ([]generic.ClockEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadRangeLocked(userID, from, to), nil
}

func (m *Memory) loadRangeLocked(userID generic.UserID, from, to time.Time) []generic.ClockEvent {
	result := []generic.ClockEvent{}
	for _, e := range m.points[userID] {
		if !e.At.Before(from) && e.At.Before(to) {
			result = append(result, e)
		}
	}
	return result
}

func (m *Memory) LastBefore(_ context.Context, userID generic.UserID, since *time.Time, at time.Time) (*generic.ClockEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastBeforeLocked(userID, since, at), nil
}

func (m *Memory) lastBeforeLocked(userID generic.UserID, since *time.Time, at time.Time) *generic.ClockEvent {
	points := m.points[userID]
	for i := len(points) - 1; i >= 0; i-- {
		e := points[i]
		if e.At.After(at) {
			continue
		}
		if since != nil && e.At.Before(*since) {
			return nil
		}
		return &e
	}
	return nil
}

func (m *Memory) FindByIdempotencyKey(_ context.Context, key string) (*generic.ClockEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findLocked(key), nil
}

func (m *Memory) findLocked(key string) *generic.ClockEvent {
	e, ok := m.idempotency[key]
	if !ok {
		return nil
	}
	return &e
}

// Reset drops every point. Used by demo scenarios.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points = make(map[generic.UserID][]generic.ClockEvent)
	m.idempotency = make(map[string]generic.ClockEvent)
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (tm *TxMemory) WithTx(_ context.Context, fn func(generic.PointStore) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()
	if err := fn(&txMemoryView{parent: tm}); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	points      map[generic.UserID][]generic.ClockEvent
	idempotency map[string]generic.ClockEvent
}

func (tm *TxMemory) snapshot() memorySnapshot {
	points := make(map[generic.UserID][]generic.ClockEvent, len(tm.points))
	for k, v := range tm.points {
		points[k] = append([]generic.ClockEvent{}, v...)
	}
	idemp := make(map[string]generic.ClockEvent, len(tm.idempotency))
	for k, v := range tm.idempotency {
		idemp[k] = v
	}
	return memorySnapshot{points: points, idempotency: idemp}
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.points = s.points
	tm.idempotency = s.idempotency
}

// txMemoryView runs with the parent's write lock already held.
type txMemoryView struct {
	parent *TxMemory
}

func (tv *txMemoryView) Append(_ context.Context, e generic.ClockEvent) error {
	return tv.parent.appendLocked(e)
}

func (tv *txMemoryView) LoadRange(_ context.Context, userID generic.UserID, from, to time.Time) ([]generic.ClockEvent, error) {
	return tv.parent.loadRangeLocked(userID, from, to), nil
}

func (tv *txMemoryView) LastBefore(_ context.Context, userID generic.UserID, since *time.Time, at time.Time) (*generic.ClockEvent, error) {
	return tv.parent.lastBeforeLocked(userID, since, at), nil
}

func (tv *txMemoryView) FindByIdempotencyKey(_ context.Context, key string) (*generic.ClockEvent, error) {
	return tv.parent.findLocked(key), nil
}
