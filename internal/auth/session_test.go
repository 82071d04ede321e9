package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRedisClient struct {
	mock.Mock
}

func (m *MockRedisClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	args := m.Called(ctx, key, value, expiration)
	return args.Get(0).(*redis.BoolCmd)
}

func (m *MockRedisClient) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(ctx, keys)
	return args.Get(0).(*redis.IntCmd)
}

func (m *MockRedisClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(ctx, keys)
	return args.Get(0).(*redis.IntCmd)
}

func TestRedisSessionStore_Create(t *testing.T) {
	client := new(MockRedisClient)
	client.On("SetNX", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, sessionKeyPrefix)
	}), mock.Anything, 2*time.Hour).Return(redis.NewBoolResult(true, nil))

	store := NewRedisSessionStore(client)

	id, err := store.Create(context.Background(), 2*time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	client.AssertExpectations(t)
}

func TestRedisSessionStore_CreateFailure(t *testing.T) {
	client := new(MockRedisClient)
	client.On("SetNX", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(redis.NewBoolResult(false, errors.New("connection refused")))

	_, err := NewRedisSessionStore(client).Create(context.Background(), time.Hour)
	assert.ErrorContains(t, err, "connection refused")
}

func TestRedisSessionStore_ExistsAndRevoke(t *testing.T) {
	client := new(MockRedisClient)
	client.On("Exists", mock.Anything, []string{sessionKeyPrefix + "s1"}).Return(redis.NewIntResult(1, nil)).Once()
	client.On("Del", mock.Anything, []string{sessionKeyPrefix + "s1"}).Return(redis.NewIntResult(1, nil))
	client.On("Exists", mock.Anything, []string{sessionKeyPrefix + "s1"}).Return(redis.NewIntResult(0, nil)).Once()

	store := NewRedisSessionStore(client)

	ok, err := store.Exists(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Revoke(context.Background(), "s1"))

	ok, err = store.Exists(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, ok)
	client.AssertExpectations(t)
}
