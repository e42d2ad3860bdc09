package mylock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisLocker struct {
	client *redis.Client
}

func NewRedisLocker(c context.Context, redisURL string) (*redisLocker, func(), error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, func() {}, fmt.Errorf("invalid redis url: %s", err)
	}

	client := redis.NewClient(opts)
	err = client.Ping(c).Err()
	if err != nil {
		client.Close()
		return nil, func() {}, fmt.Errorf("error connecting to redis: %s", err)
	}

	return &redisLocker{client: client}, func() { client.Close() }, nil
}

func (l *redisLocker) Claim(c context.Context, key string, ttl time.Duration) (bool, error) {
	claimed, err := l.client.SetNX(c, key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("error claiming %s: %s", key, err)
	}
	return claimed, nil
}
