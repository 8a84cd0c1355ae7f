package timesheet

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/warp/timeclock-engine/generic"
)

// MemoryUsers is an in-memory UserStore for tests and development.
type MemoryUsers struct {
	mu    sync.RWMutex
	users map[generic.UserID]User
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{users: make(map[generic.UserID]User)}
}

func (m *MemoryUsers) CreateUser(_ context.Context, u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; ok {
		return fmt.Errorf("user %s already exists", u.ID)
	}
	m.users[u.ID] = u
	return nil
}

func (m *MemoryUsers) GetUser(_ context.Context, id generic.UserID) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, generic.ErrUserNotFound)
	}
	return &u, nil
}

func (m *MemoryUsers) ListUsers(_ context.Context) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	users := make([]User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (m *MemoryUsers) UpdateSchedule(_ context.Context, id generic.UserID, code generic.ScheduleCode, anchor *generic.Date) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, generic.ErrUserNotFound)
	}
	u.ScheduleCode = code
	u.ShiftAnchor = anchor
	m.users[id] = u
	return nil
}
