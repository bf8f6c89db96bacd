// Package lock guards a publication run against overlapping invocations.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ReleaseFunc releases a held lock.
type ReleaseFunc func(ctx context.Context) error

// releaseScript deletes the key only while it still holds our token, so a run
// that outlived its TTL cannot release a lock taken by the next run.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ErrInvalidTTL is returned for non-positive lock TTLs.
var ErrInvalidTTL = errors.New("lock ttl must be positive")

// RedisLock is a single-key mutex with expiry held in Redis.
type RedisLock struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

// NewRedisLock creates a lock on key. The TTL bounds how long a crashed run can
// block the following ones.
func NewRedisLock(client redis.Cmdable, key string, ttl time.Duration) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if key == "" {
		return nil, errors.New("lock key cannot be empty")
	}
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}
	return &RedisLock{client: client, key: key, ttl: ttl}, nil
}

// TryAcquire takes the lock without waiting. It reports false when another
// holder has it.
func (l *RedisLock) TryAcquire(ctx context.Context) (ReleaseFunc, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock %s: %w", l.key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to release lock %s: %w", l.key, err)
		}
		return nil
	}
	return release, true, nil
}
