package keyhealth

import (
	"sync"
	"testing"
	"time"

	"quiz-forge/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestRegistry() (*Registry, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	return NewRegistry(WithClock(clock.Now)), clock
}

func TestRegistry_EnsureIsIdempotent(t *testing.T) {
	reg, _ := newTestRegistry()
	cred := domain.Credential{Value: "system-key-0001", Origin: domain.KeyOriginSystem}

	reg.Ensure(cred)
	reg.RecordSuccess(cred)
	reg.Ensure(domain.Credential{Value: "system-key-0001", Origin: domain.KeyOriginUser})

	rec, ok := reg.Get(cred)
	require.True(t, ok)
	assert.Equal(t, 1, rec.UsageCount)
	assert.Equal(t, domain.KeyOriginSystem, rec.Origin)
	assert.Len(t, reg.Snapshot(), 1)
}

func TestRegistry_RecordSuccessResetsErrors(t *testing.T) {
	reg, clock := newTestRegistry()
	cred := domain.Credential{Value: "abcdefgh1234"}

	reg.RecordFailure(cred, FailureThrottled)
	reg.RecordFailure(cred, FailureError)
	clock.Advance(time.Second)
	reg.RecordSuccess(cred)

	rec, ok := reg.Get(cred)
	require.True(t, ok)
	assert.Equal(t, 0, rec.ErrorCount)
	assert.Equal(t, 1, rec.UsageCount)
	assert.Equal(t, domain.KeyStatusActive, rec.Status)
	require.NotNil(t, rec.LastUsedAt)
	assert.Equal(t, clock.Now(), *rec.LastUsedAt)
	require.NotNil(t, rec.LastErrorAt)
}

func TestRegistry_RecordFailureStatus(t *testing.T) {
	tests := []struct {
		name   string
		kind   Failure
		status domain.KeyStatus
	}{
		{name: "throttled", kind: FailureThrottled, status: domain.KeyStatusRateLimited},
		{name: "generic", kind: FailureError, status: domain.KeyStatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, _ := newTestRegistry()
			cred := domain.Credential{Value: "key-" + tt.name}
			reg.RecordFailure(cred, tt.kind)

			rec, ok := reg.Get(cred)
			require.True(t, ok)
			assert.Equal(t, tt.status, rec.Status)
			assert.Equal(t, 1, rec.ErrorCount)
		})
	}
}

func TestRegistry_IsCoolingDown(t *testing.T) {
	reg, clock := newTestRegistry()
	throttled := domain.Credential{Value: "throttled-key"}
	broken := domain.Credential{Value: "broken-key"}
	unknown := domain.Credential{Value: "never-seen"}

	reg.RecordFailure(throttled, FailureThrottled)
	reg.RecordFailure(broken, FailureError)

	assert.True(t, reg.IsCoolingDown(throttled, clock.Now(), DefaultCooldownWindow))
	assert.False(t, reg.IsCoolingDown(broken, clock.Now(), DefaultCooldownWindow))
	assert.False(t, reg.IsCoolingDown(unknown, clock.Now(), DefaultCooldownWindow))

	clock.Advance(59 * time.Second)
	assert.True(t, reg.IsCoolingDown(throttled, clock.Now(), DefaultCooldownWindow))

	clock.Advance(time.Second)
	assert.False(t, reg.IsCoolingDown(throttled, clock.Now(), DefaultCooldownWindow))
}

func TestRegistry_SnapshotMasksAndCopies(t *testing.T) {
	reg, _ := newTestRegistry()
	first := domain.Credential{Value: "AIzaSyFirstSecret9999", Origin: domain.KeyOriginUser}
	second := domain.Credential{Value: "AIzaSySecondSecret0000", Origin: domain.KeyOriginSystem}

	reg.RecordSuccess(first)
	reg.RecordFailure(second, FailureThrottled)

	snap := reg.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "...9999", snap[0].MaskedID)
	assert.Equal(t, domain.KeyOriginUser, snap[0].Origin)
	assert.Equal(t, "...0000", snap[1].MaskedID)
	for _, rec := range snap {
		assert.NotContains(t, rec.MaskedID, "Secret")
	}

	*snap[0].LastUsedAt = time.Time{}
	rec, _ := reg.Get(first)
	assert.False(t, rec.LastUsedAt.IsZero())
}

func TestRegistry_ConcurrentUpdates(t *testing.T) {
	reg, _ := newTestRegistry()
	cred := domain.Credential{Value: "shared-key-1234"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg.RecordSuccess(cred)
			_ = reg.Snapshot()
		}()
	}
	wg.Wait()

	rec, ok := reg.Get(cred)
	require.True(t, ok)
	assert.Equal(t, 50, rec.UsageCount)
}
