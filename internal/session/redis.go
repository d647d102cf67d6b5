package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps session identity in a redis hash with two string
// fields, name and email, deleted as a unit on logout.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(id string) string {
	return "session:" + id
}

func (s *RedisStore) Get(ctx context.Context, id string) (Data, bool, error) {
	values, err := s.client.HGetAll(ctx, sessionKey(id)).Result()
	if err != nil {
		return Data{}, false, fmt.Errorf("session get: %w", err)
	}
	if len(values) == 0 {
		return Data{}, false, nil
	}
	return Data{Name: values["name"], Email: values["email"]}, true, nil
}

func (s *RedisStore) Put(ctx context.Context, id string, data Data) error {
	key := sessionKey(id)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, "name", data.Name, "email", data.Email)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session put: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}
