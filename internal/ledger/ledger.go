// Package ledger records which daily exports were already delivered.
package ledger

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Ledger claims delivery keys so a day is not exported twice
type Ledger interface {
	// Claim marks key as delivered. It returns false if key was already claimed.
	Claim(ctx context.Context, key string) (bool, error)
	// Release removes a claim, e.g. after a failed delivery.
	Release(ctx context.Context, key string) error
}

type redisLedger struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisLedger stores claims as keys with the given prefix and TTL
func NewRedisLedger(client *redis.Client, prefix string, ttl time.Duration) Ledger {
	return &redisLedger{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (l *redisLedger) Claim(ctx context.Context, key string) (bool, error) {
	return l.client.SetNX(ctx, l.prefix+key, time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
}

func (l *redisLedger) Release(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.prefix+key).Err()
}
