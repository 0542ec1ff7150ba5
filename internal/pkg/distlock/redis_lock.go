package distlock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotHeld reports that the lock expired or changed hands. A batch that
// sees this from Extend has lost its exclusivity window and should assume
// another orchestrator may be claiming.
var ErrNotHeld = errors.New("distlock: lock not held")

const keyPrefix = "pressroom:lock:"

// RedisLock is a Redis SET NX lock with a TTL. The stored value names the
// owning process (the orchestrator worker id) plus a random suffix, and
// release/extend run as Lua scripts that verify ownership first, so one
// orchestrator can never free or prolong a lock another one holds.
type RedisLock struct {
	client *redis.Client
	key    string
	owner  string
	ttl    time.Duration
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

var extendScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0
`)

// NewRedisLock creates a lock on key owned by the named process. The random
// suffix keeps two locks created by the same process distinct.
func NewRedisLock(client *redis.Client, key, owner string, ttl time.Duration) *RedisLock {
	b := make([]byte, 8)
	rand.Read(b)
	return &RedisLock{
		client: client,
		key:    keyPrefix + key,
		owner:  owner + "/" + hex.EncodeToString(b),
		ttl:    ttl,
	}
}

// Acquire tries to take the lock. Returns false without error when another
// owner holds it.
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.owner, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	return ok, nil
}

// Release frees the lock if this instance still owns it. Releasing a lock
// that already expired or changed hands is a no-op, not an error.
func (l *RedisLock) Release(ctx context.Context) error {
	_, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.owner).Result()
	return err
}

// Extend pushes the lock's expiry out to ttl from now. Returns ErrNotHeld
// when the lock is no longer ours.
func (l *RedisLock) Extend(ctx context.Context, ttl time.Duration) error {
	n, err := extendScript.Run(ctx, l.client, []string{l.key}, l.owner, ttl.Milliseconds()).Result()
	if err != nil {
		return fmt.Errorf("extend %s: %w", l.key, err)
	}
	if v, ok := n.(int64); !ok || v == 0 {
		return ErrNotHeld
	}
	return nil
}
