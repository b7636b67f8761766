package auth

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	apperrors "github.com/spec-kit/user-service/pkg/util"
)

// Denylist tracks revoked token identifiers until the tokens expire naturally.
//
// The in-memory implementation is process-local: revocations are lost on
// restart and are not shared between instances. RedisDenylist provides the
// same contract backed by a shared store.
type Denylist interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
	Revoke(ctx context.Context, jti string, ttlSeconds float64) error
	Clear(ctx context.Context) error
}

// maxTimerDelay bounds a single scheduled delay (2^31-1 ms). Longer
// revocations re-arm when the bounded timer fires.
const maxTimerDelay = time.Duration(math.MaxInt32) * time.Millisecond

const maxRevocationSeconds = math.MaxInt64 / int64(time.Second)

type stopper interface {
	Stop() bool
}

type afterFunc func(d time.Duration, f func()) stopper

func realAfterFunc(d time.Duration, f func()) stopper {
	return time.AfterFunc(d, f)
}

type denylistEntry struct {
	expiresAt time.Time
	timer     stopper
	gen       uint64
}

// MemoryDenylist is an in-process denylist keyed by jti.
type MemoryDenylist struct {
	mu      sync.Mutex
	entries map[string]*denylistEntry
	gen     uint64

	now       func() time.Time
	afterFunc afterFunc
}

// NewMemoryDenylist returns an empty denylist.
func NewMemoryDenylist() *MemoryDenylist {
	return &MemoryDenylist{
		entries:   make(map[string]*denylistEntry),
		now:       time.Now,
		afterFunc: realAfterFunc,
	}
}

// IsRevoked reports whether jti is currently revoked.
func (d *MemoryDenylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	entry, ok := d.entries[jti]
	if !ok {
		return false, nil
	}
	return d.now().Before(entry.expiresAt), nil
}

// Revoke marks jti as revoked for ttlSeconds (floored to whole seconds, minimum 1).
// Revoking an already revoked jti replaces its expiry with the new ttl.
func (d *MemoryDenylist) Revoke(_ context.Context, jti string, ttlSeconds float64) error {
	seconds, err := validateRevocation(jti, ttlSeconds)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if old, ok := d.entries[jti]; ok && old.timer != nil {
		old.timer.Stop()
	}

	d.gen++
	entry := &denylistEntry{
		expiresAt: d.now().Add(time.Duration(seconds) * time.Second),
		gen:       d.gen,
	}
	d.entries[jti] = entry
	d.schedule(jti, entry, time.Duration(seconds)*time.Second)
	return nil
}

// Clear cancels all pending expirations and forgets every revocation.
func (d *MemoryDenylist) Clear(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, entry := range d.entries {
		if entry.timer != nil {
			entry.timer.Stop()
		}
	}
	d.entries = make(map[string]*denylistEntry)
	return nil
}

// Len returns the number of tracked revocations.
func (d *MemoryDenylist) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

// schedule must be called with d.mu held.
func (d *MemoryDenylist) schedule(jti string, entry *denylistEntry, delay time.Duration) {
	if delay > maxTimerDelay {
		delay = maxTimerDelay
	}
	gen := entry.gen
	entry.timer = d.afterFunc(delay, func() {
		d.expire(jti, gen)
	})
}

func (d *MemoryDenylist) expire(jti string, gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry, ok := d.entries[jti]
	if !ok || entry.gen != gen {
		// superseded by a later Revoke or removed by Clear
		return
	}
	if remaining := entry.expiresAt.Sub(d.now()); remaining > 0 {
		d.schedule(jti, entry, remaining)
		return
	}
	delete(d.entries, jti)
}

func validateRevocation(jti string, ttlSeconds float64) (int64, error) {
	if strings.TrimSpace(jti) == "" {
		return 0, apperrors.NewDomainError(CodeRevocationInvalid, "token identifier is required", http.StatusBadRequest, "jti")
	}
	if math.IsNaN(ttlSeconds) || math.IsInf(ttlSeconds, 0) || ttlSeconds <= 0 {
		return 0, apperrors.NewDomainError(CodeRevocationInvalid,
			fmt.Sprintf("ttlSeconds must be a positive number of seconds, got %v", ttlSeconds),
			http.StatusBadRequest, "ttlSeconds")
	}
	if ttlSeconds > float64(maxRevocationSeconds) {
		return maxRevocationSeconds, nil
	}
	seconds := int64(math.Floor(ttlSeconds))
	if seconds < 1 {
		seconds = 1
	}
	return seconds, nil
}

var _ Denylist = (*MemoryDenylist)(nil)
