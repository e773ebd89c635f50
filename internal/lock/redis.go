package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"weekgrid-service/internal/models"
)

// Locker hands out a token per acquisition. Unlock only releases the lock
// while the token still owns it.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Unlock(ctx context.Context, key, token string) error
}

// Deletes KEYS[1] only if it still holds ARGV[1]. A holder whose ttl lapsed
// must not release the lock another caller has since taken.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// SlotKey guards a single record against concurrent toggles.
func SlotKey(k models.SlotKey) string {
	return fmt.Sprintf("slot:%s", k)
}

// RecurrenceKey guards the (person, day, slot) tuple a propagation rewrites.
func RecurrenceKey(person models.Person, day models.Day, slot models.TimeSlot) string {
	return fmt.Sprintf("recurrence:%s/%s/%s", person, day, slot)
}

type RedisLock struct {
	client *redis.Client
}

func NewRedisLock(redisAddr string) (*RedisLock, error) {
	const op = "lock.NewRedisLock"

	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RedisLock{client: client}, nil
}

func (r *RedisLock) Lock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	const op = "lock.RedisLock.Lock"

	token := uuid.NewString()
	result, err := r.client.SetNX(ctx, redisKey(key), token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	if !result {
		return "", false, nil
	}

	return token, true, nil
}

func (r *RedisLock) Unlock(ctx context.Context, key, token string) error {
	const op = "lock.RedisLock.Unlock"

	if err := releaseScript.Run(ctx, r.client, []string{redisKey(key)}, token).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RedisLock) Close() error {
	return r.client.Close()
}

func redisKey(key string) string {
	return fmt.Sprintf("lock:%s", key)
}

// Nop always grants the lock. Used when no Redis address is configured;
// writes then fall back to plain last-write-wins.
type Nop struct{}

func (Nop) Lock(context.Context, string, time.Duration) (string, bool, error) { return "", true, nil }

func (Nop) Unlock(context.Context, string, string) error { return nil }
