package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	session "github.com/goliatone/go-social-session"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "social:session:"

// RedisTokenStore implements session.TokenStore on Redis.
type RedisTokenStore struct {
	cli *redis.Client
	key string
	ttl time.Duration
}

var _ session.TokenStore = (*RedisTokenStore)(nil)

// NewRedisTokenStore parses url, pings the server and returns a store for
// key. A zero ttl keeps the token until it is deleted.
func NewRedisTokenStore(ctx context.Context, url, key string, ttl time.Duration) (*RedisTokenStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis parse url: %w", err)
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(ctx).Err(); err != nil {
		if closeErr := cli.Close(); closeErr != nil {
			return nil, fmt.Errorf("redis ping: %w (close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisTokenStoreFromClient(cli, key, ttl), nil
}

func NewRedisTokenStoreFromClient(cli *redis.Client, key string, ttl time.Duration) *RedisTokenStore {
	if key == "" {
		key = session.DefaultTokenKey
	}
	return &RedisTokenStore{cli: cli, key: redisKeyPrefix + key, ttl: ttl}
}

func (s *RedisTokenStore) Close() error {
	return s.cli.Close()
}

// Get implements session.TokenStore.
func (s *RedisTokenStore) Get(ctx context.Context) (string, error) {
	val, err := s.cli.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

// Set implements session.TokenStore.
func (s *RedisTokenStore) Set(ctx context.Context, token string) error {
	return s.cli.Set(ctx, s.key, token, s.ttl).Err()
}

// Delete implements session.TokenStore.
func (s *RedisTokenStore) Delete(ctx context.Context) error {
	return s.cli.Del(ctx, s.key).Err()
}
