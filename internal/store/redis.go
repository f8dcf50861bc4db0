package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis backs the shared rate limiter. The ledger itself never touches it.
type Redis struct {
	Client *redis.Client
}

// NewRedis builds a client with short timeouts; an empty addr yields nil so
// callers can fall back to in-process limiting.
func NewRedis(addr string) *Redis {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

func (r *Redis) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
