package throttle

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/registrar/internal/metrics"
)

func newTestThrottle(t *testing.T, cfg Config) (*Throttle, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})

	return New(NewRedisKV(client), cfg), server
}

func TestLockAfterMaxAttempts(t *testing.T) {
	th, server := newTestThrottle(t, Config{MaxAttempts: 5, LockDuration: 15 * time.Minute, FailOpen: true})
	ctx := context.Background()
	locksBefore := testutil.ToFloat64(metrics.LoginLocksTotal)

	for i := 0; i < 4; i++ {
		th.LoginFailed(ctx, "alice")
		assert.False(t, th.IsBlocked(ctx, "alice"), "blocked after %d failures", i+1)
	}
	assert.Equal(t, 1, th.RemainingAttempts(ctx, "alice"))

	th.LoginFailed(ctx, "alice")
	assert.True(t, th.IsBlocked(ctx, "alice"))
	assert.Equal(t, 0, th.RemainingAttempts(ctx, "alice"))
	assert.Equal(t, locksBefore+1, testutil.ToFloat64(metrics.LoginLocksTotal))

	lock, err := server.Get("login_lock:alice")
	require.NoError(t, err)
	assert.Equal(t, "locked", lock)

	ttl := server.TTL("login_lock:alice")
	assert.True(t, ttl > 0 && ttl <= 15*time.Minute, "unexpected lock ttl %v", ttl)

	assert.False(t, th.IsBlocked(ctx, "bob"), "lock must be per username")
}

func TestCounterExpiresFromFirstFailure(t *testing.T) {
	th, server := newTestThrottle(t, Config{MaxAttempts: 3, LockDuration: time.Minute, FailOpen: true})
	ctx := context.Background()

	th.LoginFailed(ctx, "carol")
	assert.Equal(t, time.Minute, server.TTL("login_attempt:carol"))

	server.FastForward(30 * time.Second)
	th.LoginFailed(ctx, "carol")
	// the second failure does not extend the window
	assert.Equal(t, 30*time.Second, server.TTL("login_attempt:carol"))

	server.FastForward(31 * time.Second)
	assert.False(t, server.Exists("login_attempt:carol"))
	assert.Equal(t, 3, th.RemainingAttempts(ctx, "carol"))
}

func TestLockExpires(t *testing.T) {
	th, server := newTestThrottle(t, Config{MaxAttempts: 2, LockDuration: time.Minute, FailOpen: true})
	ctx := context.Background()

	th.LoginFailed(ctx, "dave")
	th.LoginFailed(ctx, "dave")
	require.True(t, th.IsBlocked(ctx, "dave"))

	server.FastForward(time.Minute + time.Second)
	assert.False(t, th.IsBlocked(ctx, "dave"))
}

func TestLoginSucceededResets(t *testing.T) {
	th, server := newTestThrottle(t, Config{MaxAttempts: 3, LockDuration: time.Minute, FailOpen: true})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		th.LoginFailed(ctx, "erin")
	}
	require.True(t, th.IsBlocked(ctx, "erin"))

	th.LoginSucceeded(ctx, "erin")
	assert.False(t, th.IsBlocked(ctx, "erin"))
	assert.False(t, server.Exists("login_attempt:erin"))
	assert.False(t, server.Exists("login_lock:erin"))
	assert.Equal(t, 3, th.RemainingAttempts(ctx, "erin"))
}

func TestDefaults(t *testing.T) {
	th, _ := newTestThrottle(t, Config{})
	assert.Equal(t, DefaultMaxAttempts, th.MaxAttempts())
	assert.Equal(t, DefaultLockDuration, th.lockDuration)
}

func TestStoreUnavailable(t *testing.T) {
	testCases := []struct {
		name        string
		failOpen    bool
		wantBlocked bool
	}{
		{"fail open", true, false},
		{"fail closed", false, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			th, server := newTestThrottle(t, Config{MaxAttempts: 5, LockDuration: time.Minute, FailOpen: tc.failOpen})
			ctx := context.Background()
			server.Close()

			errorsBefore := testutil.ToFloat64(metrics.ThrottleStoreErrorsTotal.WithLabelValues("is_blocked"))

			assert.Equal(t, tc.wantBlocked, th.IsBlocked(ctx, "frank"))
			assert.NotPanics(t, func() {
				th.LoginFailed(ctx, "frank")
				th.LoginSucceeded(ctx, "frank")
			})
			assert.Equal(t, 5, th.RemainingAttempts(ctx, "frank"))
			assert.Equal(t, errorsBefore+1, testutil.ToFloat64(metrics.ThrottleStoreErrorsTotal.WithLabelValues("is_blocked")))
		})
	}
}
