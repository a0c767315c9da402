package redisstore

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/possuite/go-pos-server/session"
)

var _ session.KV = (*Store)(nil)

// Store implements session.KV over a Redis client. Individual GET/SETEX/DEL
// atomicity is the only consistency primitive the session manager relies on.
type Store struct {
	client *redis.Client
}

// New connects to Redis using a redis:// URL and verifies the connection.
func New(ctx context.Context, redisURL string) (*Store, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "redisstore.New parse url")
	}

	client := redis.NewClient(opt)
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, errors.Wrap(err, "redisstore.New ping")
	}

	return &Store{client: client}, nil
}

// NewWithClient wraps an existing client, for tests and shared pools.
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", session.ErrNotFound
	}
	if err != nil {
		return "", errors.Wrap(err, "redisstore.Get")
	}
	return value, nil
}

func (s *Store) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return errors.Wrap(err, "redisstore.SetEx")
	}
	return nil
}

func (s *Store) Del(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return errors.Wrap(err, "redisstore.Del")
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
