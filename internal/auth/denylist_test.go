package auth

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func revoked(t *testing.T, d Denylist, jti string) bool {
	t.Helper()
	ok, err := d.IsRevoked(context.Background(), jti)
	require.NoError(t, err)
	return ok
}

func TestMemoryDenylist_RevokeAndExpire(t *testing.T) {
	clock := newFakeClock()
	d := newFakeDenylist(clock)
	ctx := context.Background()

	assert.False(t, revoked(t, d, "JTI_A"))

	require.NoError(t, d.Revoke(ctx, "JTI_A", 1))
	assert.True(t, revoked(t, d, "JTI_A"))

	clock.Advance(900 * time.Millisecond)
	assert.True(t, revoked(t, d, "JTI_A"))

	clock.Advance(200 * time.Millisecond)
	assert.False(t, revoked(t, d, "JTI_A"))
	assert.Equal(t, 0, d.Len())
}

func TestMemoryDenylist_RejectsInvalidTTL(t *testing.T) {
	d := newFakeDenylist(newFakeClock())
	ctx := context.Background()

	for _, ttl := range []float64{0, -1, -0.5, math.NaN(), math.Inf(1), math.Inf(-1)} {
		err := d.Revoke(ctx, "JTI_B", ttl)
		requireCode(t, err, CodeRevocationInvalid)
	}
	assert.False(t, revoked(t, d, "JTI_B"))

	requireCode(t, d.Revoke(ctx, "  ", 10), CodeRevocationInvalid)
}

func TestMemoryDenylist_FractionalTTLFloorsToOneSecond(t *testing.T) {
	clock := newFakeClock()
	d := newFakeDenylist(clock)

	require.NoError(t, d.Revoke(context.Background(), "JTI_F", 0.3))
	clock.Advance(999 * time.Millisecond)
	assert.True(t, revoked(t, d, "JTI_F"))
	clock.Advance(time.Millisecond)
	assert.False(t, revoked(t, d, "JTI_F"))
}

func TestMemoryDenylist_ReRevokeExtendsToLatestTTL(t *testing.T) {
	clock := newFakeClock()
	d := newFakeDenylist(clock)
	ctx := context.Background()

	require.NoError(t, d.Revoke(ctx, "JTI_C", 1))
	clock.Advance(900 * time.Millisecond)
	require.NoError(t, d.Revoke(ctx, "JTI_C", 3))

	clock.Advance(200 * time.Millisecond) // 1.1s after the first revoke
	assert.True(t, revoked(t, d, "JTI_C"))

	clock.Advance(2700 * time.Millisecond) // 3.8s, 2.9s after the second revoke
	assert.True(t, revoked(t, d, "JTI_C"))

	clock.Advance(100 * time.Millisecond)
	assert.False(t, revoked(t, d, "JTI_C"))
}

func TestMemoryDenylist_ReRevokeWithShorterTTL(t *testing.T) {
	clock := newFakeClock()
	d := newFakeDenylist(clock)
	ctx := context.Background()

	require.NoError(t, d.Revoke(ctx, "JTI_S", 10))
	require.NoError(t, d.Revoke(ctx, "JTI_S", 2))

	clock.Advance(2 * time.Second)
	assert.False(t, revoked(t, d, "JTI_S"))
}

func TestMemoryDenylist_LongTTLSurvivesTimerCap(t *testing.T) {
	clock := newFakeClock()
	d := newFakeDenylist(clock)
	thirtyDays := 30 * 24 * time.Hour

	require.NoError(t, d.Revoke(context.Background(), "JTI_L", thirtyDays.Seconds()))

	clock.Advance(maxTimerDelay + time.Second)
	assert.True(t, revoked(t, d, "JTI_L"))
	assert.Equal(t, 1, d.Len())
	assert.Equal(t, 1, clock.pending())

	clock.Advance(thirtyDays - maxTimerDelay)
	assert.False(t, revoked(t, d, "JTI_L"))
	assert.Equal(t, 0, d.Len())
}

func TestMemoryDenylist_Clear(t *testing.T) {
	clock := newFakeClock()
	d := newFakeDenylist(clock)
	ctx := context.Background()

	require.NoError(t, d.Revoke(ctx, "JTI_D", 5))
	require.NoError(t, d.Revoke(ctx, "JTI_E", 50))

	require.NoError(t, d.Clear(ctx))
	assert.False(t, revoked(t, d, "JTI_D"))
	assert.False(t, revoked(t, d, "JTI_E"))
	assert.Equal(t, 0, clock.pending())

	require.NoError(t, d.Revoke(ctx, "JTI_D", 60))
	clock.Advance(10 * time.Second)
	assert.True(t, revoked(t, d, "JTI_D"))
}

func TestMemoryDenylist_StaleCallbackIsIgnored(t *testing.T) {
	clock := newFakeClock()
	d := newFakeDenylist(clock)
	ctx := context.Background()

	require.NoError(t, d.Revoke(ctx, "JTI_G", 1))
	staleGen := d.entries["JTI_G"].gen
	require.NoError(t, d.Revoke(ctx, "JTI_G", 60))

	clock.Advance(2 * time.Second)
	d.expire("JTI_G", staleGen)
	assert.True(t, revoked(t, d, "JTI_G"))

	require.NoError(t, d.Clear(ctx))
	d.expire("JTI_G", staleGen)
	assert.Equal(t, 0, d.Len())
}

func TestMemoryDenylist_RealTimers(t *testing.T) {
	d := NewMemoryDenylist()
	ctx := context.Background()
	t.Cleanup(func() { _ = d.Clear(ctx) })

	require.NoError(t, d.Revoke(ctx, "JTI_R", 1))
	assert.True(t, revoked(t, d, "JTI_R"))

	assert.Eventually(t, func() bool {
		return d.Len() == 0
	}, 3*time.Second, 50*time.Millisecond)
	assert.False(t, revoked(t, d, "JTI_R"))
}

func TestMemoryDenylist_ConcurrentAccess(t *testing.T) {
	d := NewMemoryDenylist()
	ctx := context.Background()
	t.Cleanup(func() { _ = d.Clear(ctx) })

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			jti := fmt.Sprintf("jti-%d", i%4)
			for j := 0; j < 100; j++ {
				_ = d.Revoke(ctx, jti, 60)
				_, _ = d.IsRevoked(ctx, jti)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 4, d.Len())
	for i := 0; i < 4; i++ {
		assert.True(t, revoked(t, d, fmt.Sprintf("jti-%d", i)))
	}
}
