/*
ledger.go - Point registration state machine

PURPOSE:
  Registers clock points for a user. The caller never chooses the kind of
  a point: it is always the opposite of the user's most recent prior point
  in the alternation scope, or "in" when there is none.

STATES:
  next = in   --register-->  point(in),  next = out
  next = out  --register-->  point(out), next = in

ALTERNATION SCOPE:
  ScopeDay:    the search for the prior point starts at local midnight of
               the new point's date, so every day starts with "in".
  ScopeGlobal: the search covers the user's whole history; an open "in"
               from yesterday makes today's first point an "out".

  The scope is a single explicit setting of the Registrar, never inferred
  per call.

CONCURRENCY:
  Register takes the user's Locker key, then reads the prior point and
  appends the new one inside TxPointStore.WithTx. Two simultaneous
  registrations for the same user therefore always alternate.

IDEMPOTENCY:
  A retried IdempotencyKey returns the point created by the first call.

SEE ALSO:
  - store.go: TxPointStore, Locker
  - api/handlers.go: automatic and manual registration endpoints
*/
package generic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ALTERNATION SCOPE
// =============================================================================

type AlternationScope string

const (
	ScopeDay    AlternationScope = "day"
	ScopeGlobal AlternationScope = "global"
)

func ParseAlternationScope(s string) (AlternationScope, error) {
	switch AlternationScope(strings.ToLower(strings.TrimSpace(s))) {
	case ScopeDay:
		return ScopeDay, nil
	case ScopeGlobal:
		return ScopeGlobal, nil
	}
	return "", fmt.Errorf("unknown alternation scope %q (want %q or %q)", s, ScopeDay, ScopeGlobal)
}

// NextKind is the state machine's transition: the kind that follows last.
func NextKind(last *ClockEvent) PointKind {
	if last == nil {
		return KindIn
	}
	return last.Kind.Opposite()
}

// =============================================================================
// REGISTRAR
// =============================================================================

// RegisterInput describes one registration. At nil means "now".
type RegisterInput struct {
	UserID         UserID
	At             *time.Time
	Location       *GeoLocation
	IdempotencyKey string
}

type Registrar struct {
	Store    TxPointStore
	Locker   Locker
	Calendar Calendar
	Scope    AlternationScope

	// Now and NewID are injectable for tests.
	Now   func() time.Time
	NewID func() PointID
}

// NewRegistrar uses an in-process KeyedMutex; replace Locker for
// multi-instance deployments.
func NewRegistrar(store TxPointStore, cal Calendar, scope AlternationScope) *Registrar {
	return &Registrar{
		Store:    store,
		Locker:   &KeyedMutex{},
		Calendar: cal,
		Scope:    scope,
		Now:      time.Now,
		NewID:    func() PointID { return PointID(uuid.NewString()) },
	}
}

// Register creates the user's next point.
func (r *Registrar) Register(ctx context.Context, in RegisterInput) (ClockEvent, error) {
	if in.UserID == "" {
		return ClockEvent{}, fmt.Errorf("register point: %w", ErrUserNotFound)
	}
	if in.Location != nil && !in.Location.Valid() {
		return ClockEvent{}, fmt.Errorf("register point: %w: (%v, %v)",
			ErrInvalidLocation, in.Location.Latitude, in.Location.Longitude)
	}

	unlock, err := r.Locker.Lock(ctx, "points:"+string(in.UserID))
	if err != nil {
		return ClockEvent{}, err
	}
	defer unlock()

	// Read the clock under the lock so automatic points follow lock order.
	now := r.Now()
	at := now
	source := SourceAuto
	if in.At != nil {
		at = *in.At
		source = SourceManual
	}

	var created ClockEvent
	err = r.Store.WithTx(ctx, func(s PointStore) error {
		if in.IdempotencyKey != "" {
			existing, err := s.FindByIdempotencyKey(ctx, in.IdempotencyKey)
			if err != nil {
				return err
			}
			if existing != nil {
				if existing.UserID != in.UserID {
					return ErrDuplicateIdempotencyKey
				}
				created = *existing
				return nil
			}
		}

		last, err := s.LastBefore(ctx, in.UserID, r.scopeStart(at), at)
		if err != nil {
			return err
		}

		created = ClockEvent{
			ID:             r.NewID(),
			UserID:         in.UserID,
			At:             at,
			Kind:           NextKind(last),
			Source:         source,
			Location:       in.Location,
			IdempotencyKey: in.IdempotencyKey,
			CreatedAt:      now,
		}
		return s.Append(ctx, created)
	})
	if err != nil {
		return ClockEvent{}, err
	}
	return created, nil
}

// scopeStart is the lower bound of the prior-point search.
func (r *Registrar) scopeStart(at time.Time) *time.Time {
	if r.Scope == ScopeGlobal {
		return nil
	}
	start := r.Calendar.DateOf(at).StartIn(r.Calendar.location())
	return &start
}
