package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker holds SET NX PX leases, released only by their owner.
type RedisLocker struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	wait   time.Duration
}

func NewRedisLocker(rdb *redis.Client, prefix string, ttl, wait time.Duration) *RedisLocker {
	if prefix == "" {
		prefix = "lock"
	}
	return &RedisLocker{rdb: rdb, prefix: prefix, ttl: ttl, wait: wait}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (ReleaseFunc, error) {
	waitCtx, cancel := waitContext(ctx, l.wait)
	defer cancel()

	redisKey := l.prefix + ":" + key
	owner := uuid.NewString()
	for {
		acquired, err := l.rdb.SetNX(waitCtx, redisKey, owner, l.ttl).Result()
		if err != nil {
			if waitCtx.Err() != nil {
				return nil, notAcquired(key, waitCtx.Err())
			}
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if acquired {
			return l.releaser(redisKey, owner), nil
		}

		select {
		case <-time.After(retryInterval):
		case <-waitCtx.Done():
			return nil, notAcquired(key, waitCtx.Err())
		}
	}
}

func (l *RedisLocker) releaser(redisKey, owner string) ReleaseFunc {
	var once sync.Once
	var err error
	return func(ctx context.Context) error {
		once.Do(func() {
			err = releaseScript.Run(ctx, l.rdb, []string{redisKey}, owner).Err()
		})
		return err
	}
}
