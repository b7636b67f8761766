package auth

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisDenylist(t *testing.T) (*RedisDenylist, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisDenylist(client), mr, client
}

func TestRedisDenylist_RevokeAndExpire(t *testing.T) {
	d, mr, _ := newTestRedisDenylist(t)
	ctx := context.Background()

	assert.False(t, revoked(t, d, "JTI_A"))
	require.NoError(t, d.Revoke(ctx, "JTI_A", 2.7))
	assert.True(t, revoked(t, d, "JTI_A"))
	assert.Equal(t, 2*time.Second, mr.TTL(redisDenylistPrefix+"JTI_A"))

	mr.FastForward(2 * time.Second)
	assert.False(t, revoked(t, d, "JTI_A"))
}

func TestRedisDenylist_ReRevokeReplacesTTL(t *testing.T) {
	d, mr, _ := newTestRedisDenylist(t)
	ctx := context.Background()

	require.NoError(t, d.Revoke(ctx, "JTI_C", 1))
	require.NoError(t, d.Revoke(ctx, "JTI_C", 3))
	assert.Equal(t, 3*time.Second, mr.TTL(redisDenylistPrefix+"JTI_C"))

	mr.FastForward(2 * time.Second)
	assert.True(t, revoked(t, d, "JTI_C"))
	mr.FastForward(time.Second)
	assert.False(t, revoked(t, d, "JTI_C"))
}

func TestRedisDenylist_RejectsInvalidTTL(t *testing.T) {
	d, mr, _ := newTestRedisDenylist(t)
	ctx := context.Background()

	for _, ttl := range []float64{0, -3, math.NaN(), math.Inf(1)} {
		requireCode(t, d.Revoke(ctx, "JTI_B", ttl), CodeRevocationInvalid)
	}
	assert.Empty(t, mr.Keys())
}

func TestRedisDenylist_ClearOnlyTouchesDenylistKeys(t *testing.T) {
	d, mr, client := newTestRedisDenylist(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "unrelated", "keep", 0).Err())
	for _, jti := range []string{"a", "b", "c"} {
		require.NoError(t, d.Revoke(ctx, jti, 60))
	}

	require.NoError(t, d.Clear(ctx))
	assert.False(t, revoked(t, d, "a"))
	assert.Equal(t, []string{"unrelated"}, mr.Keys())
}

func TestRedisDenylist_ErrorsSurface(t *testing.T) {
	d, mr, _ := newTestRedisDenylist(t)
	mr.Close()

	_, err := d.IsRevoked(context.Background(), "JTI_X")
	assert.Error(t, err)
}
