package redis_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timeclock-engine/config"
	"github.com/warp/timeclock-engine/generic"
	"github.com/warp/timeclock-engine/generic/store"
	"github.com/warp/timeclock-engine/store/redis"
)

func newLocker(t *testing.T, wait time.Duration) *redis.Locker {
	t.Helper()
	addr := os.Getenv("TIMECLOCK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TIMECLOCK_TEST_REDIS_ADDR not set")
	}
	client, err := redis.NewClient(config.RedisConfig{Addr: addr}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return redis.NewLocker(client, 5*time.Second, wait)
}

func TestLocker_ExcludesSecondHolder(t *testing.T) {
	// GIVEN: a held lock
	locker := newLocker(t, 100*time.Millisecond)
	key := "test:" + uuid.NewString()
	unlock, err := locker.Lock(context.Background(), key)
	require.NoError(t, err)

	// WHEN: another caller tries the same key
	_, err = locker.Lock(context.Background(), key)

	// THEN: it times out
	assert.ErrorIs(t, err, generic.ErrLockTimeout)

	// AND: after release it can be taken again
	unlock()
	unlock()
	again, err := locker.Lock(context.Background(), key)
	require.NoError(t, err)
	again()
}

func TestLocker_SerializesRegistrar(t *testing.T) {
	// GIVEN: a registrar whose per-user lock lives in Redis
	locker := newLocker(t, 5*time.Second)
	points := store.NewTxMemory()
	r := generic.NewRegistrar(points, generic.DefaultCalendar(), generic.ScopeGlobal)
	r.Locker = locker
	user := generic.UserID("redis-" + uuid.NewString())

	// WHEN: registering concurrently
	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Register(context.Background(), generic.RegisterInput{UserID: user})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// THEN: kinds alternate
	all, err := points.LoadRange(context.Background(), user, time.Time{}, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, all, n)
	for i, p := range all {
		want := generic.KindIn
		if i%2 == 1 {
			want = generic.KindOut
		}
		assert.Equal(t, want, p.Kind, "point %d", i)
	}
}

func TestNewClient_FailsWithoutServer(t *testing.T) {
	_, err := redis.NewClient(config.RedisConfig{Addr: "127.0.0.1:1"}, nil)
	assert.Error(t, err)
}
