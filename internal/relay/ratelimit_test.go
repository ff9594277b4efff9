package relay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewRateLimiter_DisabledIsNil(t *testing.T) {
	r := NewRateLimiter(0)
	assert.Nil(t, r)
	for i := 0; i < 100; i++ {
		assert.True(t, r.Allow("o"))
	}
}

func TestRateLimiter_Burst(t *testing.T) {
	r := NewRateLimiter(60)
	now := time.Unix(1000, 0)
	r.now = func() time.Time { return now }

	allowed := 0
	for i := 0; i < 20; i++ {
		if r.Allow("o") {
			allowed++
		}
	}
	// Burst is a tenth of the per-minute budget; the refill within the loop
	// is at most one token.
	assert.GreaterOrEqual(t, allowed, 6)
	assert.LessOrEqual(t, allowed, 7)
}

func TestRateLimiter_CleansIdleOrigins(t *testing.T) {
	r := NewRateLimiter(60)
	now := time.Unix(1000, 0)
	r.now = func() time.Time { return now }

	r.Allow("old")
	now = now.Add(10 * time.Minute)
	r.Allow("new")

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.NotContains(t, r.origins, "old")
	assert.Contains(t, r.origins, "new")
}
