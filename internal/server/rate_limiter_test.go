package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllowsBurstThenDenies(t *testing.T) {
	limiter := newRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		require.True(t, limiter.allow(), "token %d should be available", i)
	}
	require.False(t, limiter.allow())
}

func TestRateLimiterRefillsOverTime(t *testing.T) {
	limiter := newRateLimiter(2, 20*time.Millisecond)

	require.True(t, limiter.allow())
	require.True(t, limiter.allow())
	require.False(t, limiter.allow())

	time.Sleep(30 * time.Millisecond)
	require.True(t, limiter.allow())
}

func TestRateLimiterSanitizesBadParameters(t *testing.T) {
	limiter := newRateLimiter(0, 0)

	require.True(t, limiter.allow())
	require.False(t, limiter.allow())
}
