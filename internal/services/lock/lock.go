package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long a crashed holder can block a session.
const DefaultTTL = 30 * time.Second

// Only delete if we own the lock
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Locker serializes rounds per session.
type Locker interface {
	Acquire(ctx context.Context, sessionID uuid.UUID) (bool, error)
	Release(ctx context.Context, sessionID uuid.UUID) error
}

// RedisLocker is a per-session lock stored under session-lock:<id>.
type RedisLocker struct {
	rdb   *redis.Client
	owner string
	ttl   time.Duration
}

var _ Locker = (*RedisLocker)(nil)

// NewRedisLocker creates a locker that holds locks as owner.
func NewRedisLocker(rdb *redis.Client, owner string, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLocker{
		rdb:   rdb,
		owner: owner,
		ttl:   ttl,
	}
}

func lockKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("session-lock:%s", sessionID.String())
}

// Acquire attempts to acquire the lock for a session.
// Returns true if lock was acquired, false if already locked.
func (l *RedisLocker) Acquire(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, lockKey(sessionID), l.owner, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire session lock: %w", err)
	}
	return ok, nil
}

// Release drops the lock if this locker still owns it.
func (l *RedisLocker) Release(ctx context.Context, sessionID uuid.UUID) error {
	if err := releaseScript.Run(ctx, l.rdb, []string{lockKey(sessionID)}, l.owner).Err(); err != nil {
		return fmt.Errorf("failed to release session lock: %w", err)
	}
	return nil
}
