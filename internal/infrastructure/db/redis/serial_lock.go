package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultLockTTL = 5 * time.Second

// releaseScript deletes the claim only if it still carries the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SerialLock claims serial numbers across API instances with SET NX.
// Key format: lock:serial:<serial_number>
type SerialLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSerialLock returns a lock whose claims expire after ttl.
func NewSerialLock(client *redis.Client, ttl time.Duration) *SerialLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &SerialLock{client: client, ttl: ttl}
}

// Acquire reports false when another request holds the claim. Each claim
// gets its own token, so a late Release cannot drop a newer claim.
func (l *SerialLock) Acquire(ctx context.Context, serial string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, lockKey(serial), token, l.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("serial lock acquire: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release drops the claim identified by token. A claim that already expired,
// or was taken over by another request, is left alone.
func (l *SerialLock) Release(ctx context.Context, serial, token string) error {
	if err := releaseScript.Run(ctx, l.client, []string{lockKey(serial)}, token).Err(); err != nil {
		return fmt.Errorf("serial lock release: %w", err)
	}
	return nil
}

func lockKey(serial string) string {
	return "lock:serial:" + serial
}
