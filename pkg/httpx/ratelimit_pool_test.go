package httpx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiterPool_ReserveAndSweep(t *testing.T) {
	t.Parallel()

	pool := newLimiterPool(RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2})
	t0 := pool.lastSweep

	require.Zero(t, pool.reserve("a", t0))
	require.Zero(t, pool.reserve("a", t0))

	delay := pool.reserve("a", t0)
	require.Positive(t, delay)
	require.LessOrEqual(t, delay, 31*time.Second)

	// a denied request does not consume a token
	require.Zero(t, pool.reserve("a", t0.Add(31*time.Second)))

	require.Zero(t, pool.reserve("b", t0))
	require.Len(t, pool.entries, 2)

	// both keys idle past idleAfter: the next call sweeps them
	later := t0.Add(31*time.Second + pool.idleAfter + time.Second)
	require.Zero(t, pool.reserve("c", later))
	require.Len(t, pool.entries, 1)
	require.Contains(t, pool.entries, "c")
}
