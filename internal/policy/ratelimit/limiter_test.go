package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiter_PacesSameHost(t *testing.T) {
	t.Parallel()

	// 10 RPS means one token every 100ms after the initial burst.
	l := New(Config{DefaultRPS: 10, DefaultBurst: 1})
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "https://someone.livejournal.com/1.html"))

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://someone.livejournal.com/2.html"))
	require.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestLimiter_HostsAreIndependent(t *testing.T) {
	t.Parallel()

	l := New(Config{DefaultRPS: 1, DefaultBurst: 1})
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "https://a.livejournal.com/1.html"))

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://b.livejournal.com/1.html"))
	require.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestLimiter_NonPositiveRPSDisablesPacing(t *testing.T) {
	t.Parallel()

	l := New(Config{DefaultRPS: 0})
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Wait(ctx, "https://someone.livejournal.com/"))
	}
	require.Less(t, time.Since(start), time.Second)
}

func TestLimiter_HonorsContext(t *testing.T) {
	t.Parallel()

	l := New(Config{DefaultRPS: 0.001, DefaultBurst: 1})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.NoError(t, l.Wait(ctx, "https://someone.livejournal.com/"))
	require.Error(t, l.Wait(ctx, "https://someone.livejournal.com/"))
}
