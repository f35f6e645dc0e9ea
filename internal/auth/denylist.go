package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const denylistPrefix = "denylist:"

// Denylist records token ids revoked before their natural expiry.
type Denylist interface {
	Revoked(ctx context.Context, tokenID string) (bool, error)
	Revoke(ctx context.Context, tokenID string, until time.Time) error
}

// NoopDenylist never revokes anything; tokens live for their full lifetime.
type NoopDenylist struct{}

func (NoopDenylist) Revoked(context.Context, string) (bool, error) { return false, nil }

func (NoopDenylist) Revoke(context.Context, string, time.Time) error { return nil }

// RedisDenylist stores revoked token ids with a TTL matching the token's remaining lifetime.
type RedisDenylist struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisDenylist wraps a go-redis client.
func NewRedisDenylist(client *redis.Client) *RedisDenylist {
	return &RedisDenylist{client: client, now: time.Now}
}

// Revoked reports whether tokenID has been revoked.
func (d *RedisDenylist) Revoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	n, err := d.client.Exists(ctx, denylistPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Revoke denies tokenID until the given expiry. Already expired tokens are ignored.
func (d *RedisDenylist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	if tokenID == "" {
		return errors.New("token id required")
	}
	ttl := until.Sub(d.now())
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, denylistPrefix+tokenID, 1, ttl).Err()
}
