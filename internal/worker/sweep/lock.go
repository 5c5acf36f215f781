package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker は日次監査の多重実行を防ぐ分散ロックのインターフェース。
// 複数インスタンスでワーカーを動かす構成で使用する。
type Locker interface {
	// TryLock はロックの取得を試みる。取得できた場合はtrueを返す。
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Unlock はロックを解放する。
	Unlock(ctx context.Context, key string) error
}

// RedisLocker はRedisのSET NXによる分散ロック実装。
// TTLにより、ロックを保持したままクラッシュしても自動的に回復する。
type RedisLocker struct {
	client *redis.Client
}

// NewRedisLocker はRedisLockerを生成する。
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

// TryLock はSET NXでロックの取得を試みる。
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	acquired, err := l.client.SetNX(ctx, key, "locked", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire sweep lock: %w", err)
	}
	return acquired, nil
}

// Unlock はロックキーを削除する。
func (l *RedisLocker) Unlock(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to release sweep lock: %w", err)
	}
	return nil
}

// NoopLocker は単一インスタンス構成用の何もしないロック実装。
// Redisが設定されていない場合に使用する。
type NoopLocker struct{}

// TryLock は常にロック取得成功を返す。
func (NoopLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return true, nil
}

// Unlock は何もしない。
func (NoopLocker) Unlock(ctx context.Context, key string) error {
	return nil
}

// compile-time interface checks
var (
	_ Locker = (*RedisLocker)(nil)
	_ Locker = NoopLocker{}
)
