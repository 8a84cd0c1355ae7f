/*
Package redis provides a Redis-backed generic.Locker.

PURPOSE:
  The in-process generic.KeyedMutex only serializes registrations inside
  one server. When several instances share a database, the per-user
  registration lock lives in Redis instead.

LOCK PROTOCOL:
  Acquire: SET <prefix><key> <token> NX PX <ttl>, retried until lock_wait
  Release: compare-and-delete script, so an expired lock taken over by
           another holder is never released by the old one

  The TTL bounds how long a crashed holder blocks the user.

SEE ALSO:
  - generic/store.go: Locker interface
  - generic/ledger.go: Registrar
*/
package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/warp/timeclock-engine/config"
	"github.com/warp/timeclock-engine/generic"
)

const lockPrefix = "timeclock:lock:"

// Client wraps the Redis connection.
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient connects and pings Redis.
func NewClient(cfg config.RedisConfig, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info("redis connected", zap.String("addr", cfg.Addr))
	return &Client{rdb: rdb, logger: logger}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// =============================================================================
// LOCKER (generic.Locker interface)
// =============================================================================

var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Locker struct {
	client *Client
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
}

var _ generic.Locker = (*Locker)(nil)

// NewLocker holds each lock for at most ttl and waits up to wait to
// acquire one.
func NewLocker(client *Client, ttl, wait time.Duration) *Locker {
	return &Locker{client: client, ttl: ttl, wait: wait, retry: 25 * time.Millisecond}
}

func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := lockPrefix + key
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	for {
		ok, err := l.client.rdb.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %s", generic.ErrLockTimeout, key)
			}
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return l.unlockFunc(redisKey, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s", generic.ErrLockTimeout, key)
		case <-time.After(l.retry):
		}
	}
}

func (l *Locker) unlockFunc(redisKey, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() { l.release(redisKey, token) })
	}
}

func (l *Locker) release(redisKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := releaseScript.Run(ctx, l.client.rdb, []string{redisKey}, token).Err()
	if err != nil && !errors.Is(err, goredis.Nil) {
		l.client.logger.Warn("release registration lock failed",
			zap.String("key", redisKey), zap.Error(err))
	}
}
