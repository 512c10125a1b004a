package credentials

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces the token keys.
const DefaultKeyPrefix = "rbac-console"

// RedisStore keeps the tokens under two keys sharing a prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(name string) string {
	return s.prefix + ":" + name
}

// Put sets both keys in one MULTI/EXEC.
func (s *RedisStore) Put(ctx context.Context, accessToken, refreshToken string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(KeyAccessToken), accessToken, 0)
		pipe.Set(ctx, s.key(KeyRefreshToken), refreshToken, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("credentials: redis put: %w", err)
	}
	return nil
}

// Read fetches both keys with MGET.
func (s *RedisStore) Read(ctx context.Context) (Tokens, error) {
	values, err := s.client.MGet(ctx, s.key(KeyAccessToken), s.key(KeyRefreshToken)).Result()
	if err != nil {
		return Tokens{}, fmt.Errorf("credentials: redis read: %w", err)
	}
	return Tokens{AccessToken: stringValue(values, 0), RefreshToken: stringValue(values, 1)}, nil
}

// Clear deletes both keys.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key(KeyAccessToken), s.key(KeyRefreshToken)).Err(); err != nil {
		return fmt.Errorf("credentials: redis clear: %w", err)
	}
	return nil
}

func stringValue(values []interface{}, idx int) string {
	if idx >= len(values) || values[idx] == nil {
		return ""
	}
	if s, ok := values[idx].(string); ok {
		return s
	}
	return ""
}
