package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const denylistKeyPrefix = "auth:revoked:"

// DenylistStore is the subset of redis commands the denylist needs.
// *redis.Client satisfies it.
type DenylistStore interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

// Denylist tracks revoked token IDs until their natural expiry. Logout
// and refresh push the old token here; the middleware rejects anything
// still listed.
type Denylist struct {
	store DenylistStore
}

// NewDenylist wraps a revocation store. A nil store degrades to a no-op
// denylist (tokens stay valid until expiry).
func NewDenylist(store DenylistStore) *Denylist {
	return &Denylist{store: store}
}

// Revoke marks the token ID as revoked until the given expiry.
func (d *Denylist) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if d == nil || d.store == nil || tokenID == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return d.store.Set(ctx, denylistKeyPrefix+tokenID, "1", ttl).Err()
}

// IsRevoked reports whether the token ID has been revoked. Lookup errors
// fail open so an unavailable redis does not lock every caller out.
func (d *Denylist) IsRevoked(ctx context.Context, tokenID string) bool {
	if d == nil || d.store == nil || tokenID == "" {
		return false
	}
	n, err := d.store.Exists(ctx, denylistKeyPrefix+tokenID).Result()
	if err != nil {
		return false
	}
	return n > 0
}
