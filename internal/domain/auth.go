package domain

import "time"

// Identity is the authenticated caller resolved from a verified bearer token.
// It lives for a single request and is never persisted.
type Identity struct {
	ID        string
	Role      Role
	TokenID   string
	IssuedAt  int64
	ExpiresAt int64
}

// RemainingLifetime returns the whole seconds until the token expires, floored at 1.
func (i Identity) RemainingLifetime(now time.Time) int64 {
	ttl := i.ExpiresAt - now.Unix()
	if ttl < 1 {
		ttl = 1
	}
	return ttl
}
