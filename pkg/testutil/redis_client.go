package testutil

import (
	"context"
	"time"
)

type MockRedisClient struct {
	SetNXFunc         func(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	CompareAndDelFunc func(ctx context.Context, key, value string) (bool, error)
}

func (m *MockRedisClient) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if m.SetNXFunc != nil {
		return m.SetNXFunc(ctx, key, value, ttl)
	}

	return true, nil
}

func (m *MockRedisClient) CompareAndDel(ctx context.Context, key, value string) (bool, error) {
	if m.CompareAndDelFunc != nil {
		return m.CompareAndDelFunc(ctx, key, value)
	}

	return true, nil
}
