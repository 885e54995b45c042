package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterEnforcesBudget(t *testing.T) {
	current := time.Unix(1_700_000_000, 0)
	r := NewRateLimiter(30, time.Minute)
	r.now = func() time.Time { return current }

	for i := 0; i < 30; i++ {
		assert.True(t, r.Allow(1), "mutation %d should fit the budget", i+1)
	}
	assert.False(t, r.Allow(1), "31st mutation within the window must be rejected")

	// Another user is unaffected
	assert.True(t, r.Allow(2))

	// After the window elapses the budget refills
	current = current.Add(61 * time.Second)
	assert.True(t, r.Allow(1))
}

func TestRateLimiterWindowSlides(t *testing.T) {
	current := time.Unix(1_700_000_000, 0)
	r := NewRateLimiter(30, time.Minute)
	r.now = func() time.Time { return current }

	for i := 0; i < 15; i++ {
		assert.True(t, r.Allow(1))
	}
	current = current.Add(30 * time.Second)
	for i := 0; i < 15; i++ {
		assert.True(t, r.Allow(1))
	}

	current = current.Add(15 * time.Second)
	assert.False(t, r.Allow(1), "all 30 mutations still inside the window")

	// 61s after the first batch: those 15 have expired, the later 15 remain
	current = current.Add(16 * time.Second)
	assert.True(t, r.Allow(1))
}

func TestRateLimiterRejectionConsumesNoBudget(t *testing.T) {
	current := time.Unix(1_700_000_000, 0)
	r := NewRateLimiter(2, time.Minute)
	r.now = func() time.Time { return current }

	assert.True(t, r.Allow(1))
	assert.True(t, r.Allow(1))
	assert.False(t, r.Allow(1))

	// The two allowed mutations expire together; the rejections in between
	// must not have extended the window.
	current = current.Add(61 * time.Second)
	assert.True(t, r.Allow(1))
}
