package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"eventx/internal/domain"
)

const uploadKeyPrefix = "eventx:upload:"

// uploadGuard holds a short-lived marker per in-flight event upload so a
// double-submitted form is rejected across every instance.
type uploadGuard struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewUploadGuard returns an UploadGuard whose markers expire after ttl.
func NewUploadGuard(client *goredis.Client, ttl time.Duration) domain.UploadGuard {
	return &uploadGuard{client: client, ttl: ttl}
}

func (g *uploadGuard) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, uploadKeyPrefix+key, "in-flight", g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire upload marker: %w", err)
	}
	return ok, nil
}

func (g *uploadGuard) Release(ctx context.Context, key string) error {
	if err := g.client.Del(ctx, uploadKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("release upload marker: %w", err)
	}
	return nil
}

// NewClient parses url and returns a connected client.
func NewClient(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		opts = &goredis.Options{Addr: url}
	}
	opts.MaxRetries = 3
	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
