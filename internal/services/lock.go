package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const questionLockTTL = 2 * time.Minute

// GenerationLock guards question generation so one request per chapter key
// calls the completion service at a time.
type GenerationLock interface {
	// TryAcquire reports whether the caller now holds key. release is
	// non-nil only when ok is true.
	TryAcquire(ctx context.Context, key string) (release func(), ok bool, err error)
}

// releaseScript deletes the lock only if it still holds our token, so an
// expired holder cannot free a lock taken over by someone else.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisGenerationLock struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisGenerationLock(client *redis.Client) *RedisGenerationLock {
	return &RedisGenerationLock{redis: client, ttl: questionLockTTL}
}

func (l *RedisGenerationLock) TryAcquire(ctx context.Context, key string) (func(), bool, error) {
	lockKey := fmt.Sprintf("question_gen_lock:%s", key)
	token := uuid.NewString()

	locked, err := l.redis.SetNX(ctx, lockKey, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire %s: %w", lockKey, err)
	}
	if !locked {
		return nil, false, nil
	}

	release := func() {
		// The request context may already be done; the lock must still go.
		releaseScript.Run(context.Background(), l.redis, []string{lockKey}, token)
	}
	return release, true, nil
}

// noopLock always grants the lock. Used when Redis is not configured.
type noopLock struct{}

func NewNoopLock() GenerationLock { return noopLock{} }

func (noopLock) TryAcquire(context.Context, string) (func(), bool, error) {
	return func() {}, true, nil
}
