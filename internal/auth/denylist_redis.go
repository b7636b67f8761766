package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisDenylistPrefix = "denylist:jti:"

// RedisDenylist stores revocations as expiring Redis keys so that every
// instance sharing the Redis database sees the same denylist.
type RedisDenylist struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisDenylist wraps an existing client.
func NewRedisDenylist(client redis.UniversalClient) *RedisDenylist {
	return &RedisDenylist{client: client, prefix: redisDenylistPrefix}
}

// IsRevoked reports whether a revocation key exists for jti.
func (d *RedisDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := d.client.Exists(ctx, d.prefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Revoke writes the key with the given ttl; an existing key gets the new ttl.
func (d *RedisDenylist) Revoke(ctx context.Context, jti string, ttlSeconds float64) error {
	seconds, err := validateRevocation(jti, ttlSeconds)
	if err != nil {
		return err
	}
	return d.client.Set(ctx, d.prefix+jti, time.Now().Unix(), time.Duration(seconds)*time.Second).Err()
}

// Clear removes every revocation key under the denylist prefix.
func (d *RedisDenylist) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := d.client.Scan(ctx, cursor, d.prefix+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := d.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

var _ Denylist = (*RedisDenylist)(nil)
