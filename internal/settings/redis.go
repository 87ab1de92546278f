package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore is the Redis backed store. Values live under a fixed prefix
// with no expiry; documents persist until replaced or deleted.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs a RedisStore.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get returns the stored value for name. found is false when the key is
// absent.
func (s *RedisStore) Get(ctx context.Context, name string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.key(name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("settings: get %s: %w", name, err)
	}
	return value, true, nil
}

// Upsert stores the value under name.
func (s *RedisStore) Upsert(ctx context.Context, name, value string) error {
	if err := s.client.Set(ctx, s.key(name), value, 0).Err(); err != nil {
		return fmt.Errorf("settings: upsert %s: %w", name, err)
	}
	return nil
}

// Delete removes the value under name.
func (s *RedisStore) Delete(ctx context.Context, name string) error {
	if err := s.client.Del(ctx, s.key(name)).Err(); err != nil {
		return fmt.Errorf("settings: delete %s: %w", name, err)
	}
	return nil
}

func (s *RedisStore) key(name string) string {
	return "meridian:settings:" + name
}
