package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiterSlidingWindow(t *testing.T) {
	now := time.Now()
	rl := newRateLimiter(3)
	rl.nowTime = func() time.Time { return now }

	require.True(t, rl.Allow("10.0.0.1"))
	require.True(t, rl.Allow("10.0.0.1"))
	require.True(t, rl.Allow("10.0.0.1"))
	require.False(t, rl.Allow("10.0.0.1"))

	// A different client is not affected.
	require.True(t, rl.Allow("10.0.0.2"))

	// Once the window slides past the earlier hits, the client recovers.
	now = now.Add(61 * time.Second)
	require.True(t, rl.Allow("10.0.0.1"))
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := newRateLimiter(0)
	for i := 0; i < 1000; i++ {
		require.True(t, rl.Allow("10.0.0.1"))
	}
}
