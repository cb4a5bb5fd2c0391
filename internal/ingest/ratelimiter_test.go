package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_FirstWaitNeverSleeps(t *testing.T) {
	rl := NewRateLimiter(50*time.Millisecond, 100*time.Millisecond, 1)

	start := time.Now()
	require.NoError(t, rl.Wait(context.Background()))
	assert.Less(t, time.Since(start), 10*time.Millisecond)
}

func TestRateLimiter_SecondWaitSleepsWithinBounds(t *testing.T) {
	rl := NewRateLimiter(20*time.Millisecond, 40*time.Millisecond, 2)
	ctx := context.Background()

	require.NoError(t, rl.Wait(ctx))
	start := time.Now()
	require.NoError(t, rl.Wait(ctx))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 15*time.Millisecond)
	assert.LessOrEqual(t, elapsed, 60*time.Millisecond)
}

func TestRateLimiter_CancelledContextReturnsEarly(t *testing.T) {
	rl := NewRateLimiter(time.Second, time.Second, 3)
	ctx := context.Background()
	require.NoError(t, rl.Wait(ctx))

	cancelCtx, cancel := context.WithCancel(ctx)
	cancel()

	err := rl.Wait(cancelCtx)
	require.Error(t, err)
}

func TestMaxDuration(t *testing.T) {
	assert.Equal(t, 5*time.Second, maxDuration(5*time.Second, 2*time.Second))
	assert.Equal(t, 2*time.Second, maxDuration(time.Second, 2*time.Second))
}
