package lock

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned by TryLock when another holder owns the key.
var ErrNotAcquired = errors.New("lock: not acquired")

const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`

// Locker provides a Redis-backed distributed lock keyed by an arbitrary
// string. Checkout uses it to serialize concurrent submissions of the same
// cart.
type Locker struct {
	Client       *redis.Client
	RetryBackoff time.Duration
}

// TryLock runs fn if the key is free, otherwise returns ErrNotAcquired
// without waiting.
func (l Locker) TryLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if l.Client == nil {
		return errors.New("lock: redis client not configured")
	}
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	token := uuid.NewString()
	ok, err := l.Client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAcquired
	}
	defer l.release(context.Background(), key, token)
	return fn(ctx)
}

// WithLock executes fn while holding a lock for the provided key, retrying
// until acquisition or context cancellation. The lock is released when fn
// returns, error or not.
func (l Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	retry := l.RetryBackoff
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	for {
		err := l.TryLock(ctx, key, ttl, fn)
		if !errors.Is(err, ErrNotAcquired) {
			return err
		}
		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l Locker) release(ctx context.Context, key, token string) {
	if err := l.Client.Eval(ctx, releaseScript, []string{key}, token).Err(); err != nil {
		// Fallback for servers without scripting support.
		if strings.Contains(strings.ToLower(err.Error()), "unknown command") {
			_ = l.Client.Del(ctx, key).Err()
		}
	}
}
