package xredis

import (
	"context"
	"time"

	"github.com/questx-lab/raffle/pkg/xcontext"
	"github.com/redis/go-redis/v9"
)

type Client interface {
	// SetNX stores value only if key does not exist yet, and reports whether
	// the value was stored.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// CompareAndDel deletes key only if it still holds value.
	CompareAndDel(ctx context.Context, key, value string) (bool, error)
}

var compareAndDelScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type client struct {
	redisClient *redis.Client
}

func NewClient(ctx context.Context) (*client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:            xcontext.Configs(ctx).Redis.Addr,
		MaxRetries:      5,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		PoolFIFO:        false,
		PoolSize:        5,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &client{redisClient: redisClient}, nil
}

func (c *client) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return c.redisClient.SetNX(ctx, key, value, ttl).Result()
}

func (c *client) CompareAndDel(ctx context.Context, key, value string) (bool, error) {
	n, err := compareAndDelScript.Run(ctx, c.redisClient, []string{key}, value).Int64()
	if err != nil {
		return false, err
	}

	return n == 1, nil
}
