package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_BurstThenDeny(t *testing.T) {
	rl := newRateLimiter(5, 1)

	for i := 0; i < 5; i++ {
		assert.True(t, rl.allow(), "request %d within the burst must pass", i)
	}
	assert.False(t, rl.allow(), "request past the burst must be dropped")
}

func TestRateLimiter_Refill(t *testing.T) {
	rl := newRateLimiter(2, 10)
	assert.True(t, rl.allow())
	assert.True(t, rl.allow())
	assert.False(t, rl.allow())

	// Rewind the refill clock instead of sleeping.
	rl.mu.Lock()
	rl.lastRefill = rl.lastRefill.Add(-time.Second)
	rl.mu.Unlock()

	assert.True(t, rl.allow())
}

func TestRateLimiter_CapsAtMaxTokens(t *testing.T) {
	rl := newRateLimiter(3, 100)

	rl.mu.Lock()
	rl.lastRefill = rl.lastRefill.Add(-time.Minute)
	rl.mu.Unlock()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.allow())
	}
	assert.False(t, rl.allow(), "refill must never exceed the bucket size")
}
