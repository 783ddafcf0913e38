package db

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisClientName  = "offer-watcher"
	redisPoolSize    = 4 // one publisher, one subscription, headroom
	redisDialTimeout = 5 * time.Second
	redisPingTimeout = 5 * time.Second
)

// NewRedisClient connects the event publisher and command subscriber.
// The URL's own settings win over the watcher's defaults.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redisOptions(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return rdb, nil
}

func redisOptions(redisURL string) (*redis.Options, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		// The URL may carry a password, so it is not echoed back.
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	if opts.ClientName == "" {
		opts.ClientName = redisClientName
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = redisPoolSize
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = redisDialTimeout
	}
	return opts, nil
}
