package redis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// memoryStore answers the commands SerialLock issues without a server.
type memoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memoryStore) DialHook(next redis.DialHook) redis.DialHook { return next }

func (m *memoryStore) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (m *memoryStore) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		m.mu.Lock()
		defer m.mu.Unlock()

		args := cmd.Args()
		switch strings.ToLower(cmd.Name()) {
		case "set":
			key, val := fmt.Sprint(args[1]), fmt.Sprint(args[2])
			if _, held := m.data[key]; held {
				cmd.(*redis.BoolCmd).SetVal(false)
				return nil
			}
			m.data[key] = val
			cmd.(*redis.BoolCmd).SetVal(true)
		case "evalsha", "eval":
			key, token := fmt.Sprint(args[3]), fmt.Sprint(args[4])
			if m.data[key] == token {
				delete(m.data, key)
				cmd.(*redis.Cmd).SetVal(int64(1))
				return nil
			}
			cmd.(*redis.Cmd).SetVal(int64(0))
		default:
			return next(ctx, cmd)
		}
		return nil
	}
}

func newMemoryLock(t *testing.T) (*SerialLock, *memoryStore) {
	t.Helper()
	store := &memoryStore{data: make(map[string]string)}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	client.AddHook(store)
	t.Cleanup(func() { _ = client.Close() })
	return NewSerialLock(client, time.Second), store
}

func TestNewSerialLock_DefaultTTL(t *testing.T) {
	l := NewSerialLock(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), 0)
	if l.ttl != defaultLockTTL {
		t.Fatalf("expected default ttl, got %v", l.ttl)
	}
	if got := lockKey("SN-1"); got != "lock:serial:SN-1" {
		t.Fatalf("unexpected key: %q", got)
	}
}

func TestSerialLock_AcquireAndRelease(t *testing.T) {
	l, store := newMemoryLock(t)
	ctx := context.Background()

	token, ok, err := l.Acquire(ctx, "SN-1")
	if err != nil || !ok || token == "" {
		t.Fatalf("first acquire: token=%q ok=%v err=%v", token, ok, err)
	}
	if _, ok, err := l.Acquire(ctx, "SN-1"); err != nil || ok {
		t.Fatalf("second acquire must fail while held: ok=%v err=%v", ok, err)
	}
	if err := l.Release(ctx, "SN-1", token); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, held := store.data[lockKey("SN-1")]; held {
		t.Fatalf("claim should be gone after release")
	}
}

func TestSerialLock_StaleReleaseKeepsNewerClaim(t *testing.T) {
	l, store := newMemoryLock(t)
	ctx := context.Background()

	first, ok, err := l.Acquire(ctx, "SN-1")
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	// The first claim expires and another request of the same process takes it.
	delete(store.data, lockKey("SN-1"))
	second, ok, err := l.Acquire(ctx, "SN-1")
	if err != nil || !ok {
		t.Fatalf("second acquire: ok=%v err=%v", ok, err)
	}
	if first == second {
		t.Fatalf("each claim needs its own token")
	}

	if err := l.Release(ctx, "SN-1", first); err != nil {
		t.Fatalf("stale Release: %v", err)
	}
	if store.data[lockKey("SN-1")] != second {
		t.Fatalf("stale release dropped the newer claim")
	}

	if err := l.Release(ctx, "SN-1", second); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, held := store.data[lockKey("SN-1")]; held {
		t.Fatalf("claim should be gone after its owner released it")
	}
}

func TestSerialLock_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	l := NewSerialLock(client, time.Second)

	token, ok, err := l.Acquire(context.Background(), "SN-1")
	if err == nil || ok || token != "" {
		t.Fatalf("expected error from unreachable server, token=%q ok=%v err=%v", token, ok, err)
	}
	if err := l.Release(context.Background(), "SN-1", "t"); err == nil {
		t.Fatalf("expected release error from unreachable server")
	}
}
