package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld 锁已被其他请求持有
var ErrLockHeld = errors.New("cache: lock is held")

const releaseLockScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`

// Locker 基于 Redis 的分布式锁，Redis 未启用时直接执行回调
type Locker struct {
	R *redis.Client
}

// NewLocker 使用全局 Redis 客户端创建锁
func NewLocker() *Locker {
	return &Locker{R: Client()}
}

// TryWithLock 尝试获取锁并执行 fn，锁被占用时立即返回 ErrLockHeld
func (l *Locker) TryWithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if fn == nil {
		return errors.New("cache: lock callback not provided")
	}
	if l == nil || l.R == nil {
		return fn(ctx)
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	fullKey := buildKey("lock:" + strings.TrimSpace(key))
	token := uuid.NewString()
	ok, err := l.R.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrLockHeld
	}
	defer l.release(fullKey, token)
	return fn(ctx)
}

func (l *Locker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.R.Eval(ctx, releaseLockScript, []string{key}, token).Err(); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unknown command") {
			_ = l.R.Del(ctx, key).Err()
		}
	}
}
