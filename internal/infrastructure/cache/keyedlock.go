package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hatchery-inc/hatchery/internal/shared/logger"
)

// ErrLeaseLost is returned by Lease.Extend once the key expired or was taken
// by another holder.
var ErrLeaseLost = errors.New("lock lease lost")

// Lease is one holder's claim on a key. Release is safe to call more than once.
type Lease interface {
	Extend(ctx context.Context, ttl time.Duration) error
	Release()
}

// KeyedLock is a non-blocking mutual-exclusion lock per key with a TTL.
type KeyedLock interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (lease Lease, acquired bool, err error)
}

// releaseScript deletes the key only if it still holds our token, so a lock
// that expired and was taken by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript moves the expiry only while the key still holds our token.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

const releaseTimeout = 3 * time.Second

// RedisKeyedLock implements KeyedLock with SET NX PX and a token compare-and-delete release.
type RedisKeyedLock struct {
	client *redis.Client
	prefix string
	logger logger.Interface
}

func NewRedisKeyedLock(client *redis.Client, prefix string, log logger.Interface) *RedisKeyedLock {
	return &RedisKeyedLock{client: client, prefix: prefix, logger: log}
}

func (l *RedisKeyedLock) TryAcquire(ctx context.Context, key string, ttl time.Duration) (Lease, bool, error) {
	fullKey := l.prefix + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock %s: %w", fullKey, err)
	}
	if !ok {
		return nil, false, nil
	}
	return &redisLease{lock: l, key: fullKey, token: token}, true, nil
}

type redisLease struct {
	lock  *RedisKeyedLock
	key   string
	token string
	once  sync.Once
}

func (r *redisLease) Extend(ctx context.Context, ttl time.Duration) error {
	n, err := extendScript.Run(ctx, r.lock.client, []string{r.key}, r.token, ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("failed to extend lock %s: %w", r.key, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", r.key, ErrLeaseLost)
	}
	return nil
}

func (r *redisLease) Release() {
	r.once.Do(func() {
		rctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if err := releaseScript.Run(rctx, r.lock.client, []string{r.key}, r.token).Err(); err != nil {
			r.lock.logger.Warnw("failed to release lock", "key", r.key, "error", err)
		}
	})
}

// MemoryKeyedLock is the single-process KeyedLock used when Redis is disabled.
type MemoryKeyedLock struct {
	mu    sync.Mutex
	held  map[string]memoryLease
	nowFn func() time.Time
}

type memoryLease struct {
	token     string
	expiresAt time.Time
}

func NewMemoryKeyedLock() *MemoryKeyedLock {
	return &MemoryKeyedLock{held: make(map[string]memoryLease), nowFn: time.Now}
}

func (l *MemoryKeyedLock) TryAcquire(_ context.Context, key string, ttl time.Duration) (Lease, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFn()
	if lease, ok := l.held[key]; ok && now.Before(lease.expiresAt) {
		return nil, false, nil
	}

	token := uuid.NewString()
	l.held[key] = memoryLease{token: token, expiresAt: now.Add(ttl)}
	return &memoryHandle{lock: l, key: key, token: token}, true, nil
}

type memoryHandle struct {
	lock  *MemoryKeyedLock
	key   string
	token string
	once  sync.Once
}

func (h *memoryHandle) Extend(_ context.Context, ttl time.Duration) error {
	h.lock.mu.Lock()
	defer h.lock.mu.Unlock()

	now := h.lock.nowFn()
	lease, ok := h.lock.held[h.key]
	if !ok || lease.token != h.token || !now.Before(lease.expiresAt) {
		return fmt.Errorf("%s: %w", h.key, ErrLeaseLost)
	}
	h.lock.held[h.key] = memoryLease{token: h.token, expiresAt: now.Add(ttl)}
	return nil
}

func (h *memoryHandle) Release() {
	h.once.Do(func() {
		h.lock.mu.Lock()
		defer h.lock.mu.Unlock()
		if lease, ok := h.lock.held[h.key]; ok && lease.token == h.token {
			delete(h.lock.held, h.key)
		}
	})
}
