package generic_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timeclock-engine/generic"
	"github.com/warp/timeclock-engine/generic/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newTestRegistrar(scope generic.AlternationScope) (*generic.Registrar, *store.TxMemory, *fixedClock) {
	mem := store.NewTxMemory()
	clock := &fixedClock{now: at(monday, 8, 0)}
	var seq atomic.Int64

	r := generic.NewRegistrar(mem, utc, scope)
	r.Now = clock.Now
	r.NewID = func() generic.PointID {
		return generic.PointID(fmt.Sprintf("p%d", seq.Add(1)))
	}
	return r, mem, clock
}

func registerAt(t *testing.T, r *generic.Registrar, ts time.Time) generic.ClockEvent {
	t.Helper()
	e, err := r.Register(context.Background(), generic.RegisterInput{UserID: "u1", At: &ts})
	require.NoError(t, err)
	return e
}

// =============================================================================
// STATE MACHINE
// =============================================================================

func TestRegister_AlternatesWithinADay(t *testing.T) {
	for _, scope := range []generic.AlternationScope{generic.ScopeDay, generic.ScopeGlobal} {
		t.Run(string(scope), func(t *testing.T) {
			// GIVEN: a user with no points
			r, _, _ := newTestRegistrar(scope)

			// WHEN: four points are registered on the same day
			var kinds []generic.PointKind
			for _, h := range []int{8, 12, 13, 17} {
				kinds = append(kinds, registerAt(t, r, at(monday, h, 0)).Kind)
			}

			// THEN: in, out, in, out
			assert.Equal(t, []generic.PointKind{
				generic.KindIn, generic.KindOut, generic.KindIn, generic.KindOut,
			}, kinds)
		})
	}
}

func TestRegister_DayScopeResetsAtMidnight(t *testing.T) {
	// GIVEN: an open "in" late on Monday
	r, _, _ := newTestRegistrar(generic.ScopeDay)
	registerAt(t, r, at(monday, 22, 0))

	// WHEN: the next point is registered after midnight
	e := registerAt(t, r, at(monday.AddDays(1), 2, 0))

	// THEN: the new day starts with "in"
	assert.Equal(t, generic.KindIn, e.Kind)
}

func TestRegister_GlobalScopeCarriesAcrossMidnight(t *testing.T) {
	// GIVEN: an open "in" late on Monday
	r, _, _ := newTestRegistrar(generic.ScopeGlobal)
	registerAt(t, r, at(monday, 22, 0))

	// WHEN: the next point is registered after midnight
	e := registerAt(t, r, at(monday.AddDays(1), 2, 0))

	// THEN: it closes the open shift
	assert.Equal(t, generic.KindOut, e.Kind)
}

func TestRegister_DayScopeFollowsCalendarZone(t *testing.T) {
	// GIVEN: a Sao Paulo calendar and an "in" at 20:00 local (23:00 UTC)
	cal, err := generic.NewCalendar("America/Sao_Paulo", generic.LocaleEnglish)
	require.NoError(t, err)
	r, _, _ := newTestRegistrar(generic.ScopeDay)
	r.Calendar = cal
	registerAt(t, r, time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC))

	// WHEN: 01:00 UTC next day, still Monday in Sao Paulo
	e := registerAt(t, r, time.Date(2024, 1, 2, 1, 0, 0, 0, time.UTC))

	// THEN: same local day, so it alternates
	assert.Equal(t, generic.KindOut, e.Kind)
}

func TestRegister_BackdatedPointUsesPriorPoint(t *testing.T) {
	// GIVEN: in at 08:00 and out at 12:00
	r, _, _ := newTestRegistrar(generic.ScopeDay)
	registerAt(t, r, at(monday, 8, 0))
	registerAt(t, r, at(monday, 12, 0))

	// WHEN: a manual point is registered at 10:00
	e := registerAt(t, r, at(monday, 10, 0))

	// THEN: the point before 10:00 is "in", so this one is "out"
	assert.Equal(t, generic.KindOut, e.Kind)
	assert.Equal(t, generic.SourceManual, e.Source)
}

func TestRegister_AutomaticUsesNow(t *testing.T) {
	r, mem, clock := newTestRegistrar(generic.ScopeDay)
	clock.Set(at(monday, 9, 15))
	loc := &generic.GeoLocation{Latitude: -23.55, Longitude: -46.63}

	e, err := r.Register(context.Background(), generic.RegisterInput{UserID: "u1", Location: loc})
	require.NoError(t, err)

	assert.Equal(t, at(monday, 9, 15), e.At)
	assert.Equal(t, generic.SourceAuto, e.Source)
	assert.Equal(t, generic.KindIn, e.Kind)
	assert.Equal(t, loc, e.Location)

	from, to := generic.SingleDay(monday).Bounds(time.UTC)
	stored, err := mem.LoadRange(context.Background(), "u1", from, to)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, e.ID, stored[0].ID)
}

func TestRegister_RejectsInvalidInput(t *testing.T) {
	r, _, _ := newTestRegistrar(generic.ScopeDay)
	ctx := context.Background()

	_, err := r.Register(ctx, generic.RegisterInput{})
	assert.ErrorIs(t, err, generic.ErrUserNotFound)

	_, err = r.Register(ctx, generic.RegisterInput{
		UserID:   "u1",
		Location: &generic.GeoLocation{Latitude: 91, Longitude: 0},
	})
	assert.ErrorIs(t, err, generic.ErrInvalidLocation)
}

func TestNextKind(t *testing.T) {
	assert.Equal(t, generic.KindIn, generic.NextKind(nil))
	assert.Equal(t, generic.KindOut, generic.NextKind(&generic.ClockEvent{Kind: generic.KindIn}))
	assert.Equal(t, generic.KindIn, generic.NextKind(&generic.ClockEvent{Kind: generic.KindOut}))
}

func TestParseAlternationScope(t *testing.T) {
	s, err := generic.ParseAlternationScope(" Global ")
	require.NoError(t, err)
	assert.Equal(t, generic.ScopeGlobal, s)

	_, err = generic.ParseAlternationScope("week")
	assert.Error(t, err)
}

// =============================================================================
// IDEMPOTENCY AND CONCURRENCY
// =============================================================================

func TestRegister_IdempotencyKeyReplaysFirstPoint(t *testing.T) {
	// GIVEN: a point registered with a key
	r, mem, _ := newTestRegistrar(generic.ScopeDay)
	ctx := context.Background()
	ts := at(monday, 8, 0)
	first, err := r.Register(ctx, generic.RegisterInput{UserID: "u1", At: &ts, IdempotencyKey: "k1"})
	require.NoError(t, err)

	// WHEN: the request is retried
	later := at(monday, 8, 1)
	second, err := r.Register(ctx, generic.RegisterInput{UserID: "u1", At: &later, IdempotencyKey: "k1"})
	require.NoError(t, err)

	// THEN: the original point is returned and nothing new is stored
	assert.Equal(t, first, second)
	from, to := generic.SingleDay(monday).Bounds(time.UTC)
	stored, err := mem.LoadRange(ctx, "u1", from, to)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestRegister_IdempotencyKeyOfAnotherUserIsRejected(t *testing.T) {
	r, _, _ := newTestRegistrar(generic.ScopeDay)
	ctx := context.Background()
	_, err := r.Register(ctx, generic.RegisterInput{UserID: "u1", IdempotencyKey: "k1"})
	require.NoError(t, err)

	_, err = r.Register(ctx, generic.RegisterInput{UserID: "u2", IdempotencyKey: "k1"})
	assert.ErrorIs(t, err, generic.ErrDuplicateIdempotencyKey)
}

func TestRegister_ConcurrentRegistrationsAlternate(t *testing.T) {
	// GIVEN: many simultaneous "now" registrations for one user
	r, mem, _ := newTestRegistrar(generic.ScopeDay)
	var tick atomic.Int64
	r.Now = func() time.Time {
		return at(monday, 8, 0).Add(time.Duration(tick.Add(1)) * time.Second)
	}

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Register(context.Background(), generic.RegisterInput{UserID: "u1"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// THEN: stored points strictly alternate in time order
	from, to := generic.SingleDay(monday).Bounds(time.UTC)
	stored, err := mem.LoadRange(context.Background(), "u1", from, to)
	require.NoError(t, err)
	require.Len(t, stored, n)
	for i, e := range stored {
		want := generic.KindIn
		if i%2 == 1 {
			want = generic.KindOut
		}
		assert.Equal(t, want, e.Kind, "point %d", i)
	}
}

func TestKeyedMutex_HonoursContext(t *testing.T) {
	var km generic.KeyedMutex
	unlock, err := km.Lock(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = km.Lock(ctx, "a")
	assert.ErrorIs(t, err, generic.ErrLockTimeout)

	other, err := km.Lock(context.Background(), "b")
	require.NoError(t, err, "distinct keys do not contend")
	other()

	unlock()
	unlock()
	again, err := km.Lock(context.Background(), "a")
	require.NoError(t, err)
	again()
}

func TestTxMemory_RollsBackOnError(t *testing.T) {
	mem := store.NewTxMemory()
	ctx := context.Background()

	err := mem.WithTx(ctx, func(s generic.PointStore) error {
		require.NoError(t, s.Append(ctx, point(monday, 8, 0, generic.KindIn)))
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	from, to := generic.SingleDay(monday).Bounds(time.UTC)
	stored, err := mem.LoadRange(ctx, "u1", from, to)
	require.NoError(t, err)
	assert.Empty(t, stored)
}
