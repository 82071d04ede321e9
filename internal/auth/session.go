package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "portal:admin_session:"

type SessionStore interface {
	Create(ctx context.Context, ttl time.Duration) (string, error)
	Exists(ctx context.Context, id string) (bool, error)
	Revoke(ctx context.Context, id string) error
}

// RedisClient is the subset of *redis.Client the session store calls.
type RedisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type RedisSessionStore struct {
	client RedisClient
}

func NewRedisSessionStore(client RedisClient) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (s *RedisSessionStore) Create(ctx context.Context, ttl time.Duration) (string, error) {
	id := uuid.NewString()

	ok, err := s.client.SetNX(ctx, sessionKeyPrefix+id, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return "", errors.Wrap(err, "create session")
	}
	if !ok {
		return "", errors.New("session id collision")
	}
	return id, nil
}

func (s *RedisSessionStore) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, sessionKeyPrefix+id).Result()
	if err != nil {
		return false, errors.Wrap(err, "check session")
	}
	return n == 1, nil
}

func (s *RedisSessionStore) Revoke(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return errors.Wrap(err, "revoke session")
	}
	return nil
}
