package throttle

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/registrar/internal/metrics"
)

const (
	attemptKeyTpl = "login_attempt:%s" // login_attempt:${username}
	lockKeyTpl    = "login_lock:%s"    // login_lock:${username}
	lockedValue   = "locked"

	DefaultMaxAttempts  = 5
	DefaultLockDuration = 15 * time.Minute
)

type Config struct {
	MaxAttempts  int
	LockDuration time.Duration
	// FailOpen treats an unreachable store as "not blocked".
	FailOpen bool
}

// Throttle counts consecutive failed logins per username and locks the
// username for LockDuration once MaxAttempts is reached.
type Throttle struct {
	kv           KV
	maxAttempts  int
	lockDuration time.Duration
	failOpen     bool
}

func New(kv KV, cfg Config) *Throttle {
	t := &Throttle{
		kv:           kv,
		maxAttempts:  cfg.MaxAttempts,
		lockDuration: cfg.LockDuration,
		failOpen:     cfg.FailOpen,
	}
	if t.maxAttempts <= 0 {
		t.maxAttempts = DefaultMaxAttempts
	}
	if t.lockDuration <= 0 {
		t.lockDuration = DefaultLockDuration
	}
	return t
}

func attemptKey(username string) string { return fmt.Sprintf(attemptKeyTpl, username) }
func lockKey(username string) string    { return fmt.Sprintf(lockKeyTpl, username) }

func (t *Throttle) IsBlocked(ctx context.Context, username string) bool {
	val, ok, err := t.kv.Get(ctx, lockKey(username))
	if err != nil {
		t.storeError("is_blocked", username, err)
		return !t.failOpen
	}
	return ok && val == lockedValue
}

func (t *Throttle) LoginFailed(ctx context.Context, username string) {
	key := attemptKey(username)

	count, err := t.kv.Incr(ctx, key)
	if err != nil {
		t.storeError("incr", username, err)
		return
	}

	// the window starts with the first failure
	if count == 1 {
		if err := t.kv.Expire(ctx, key, t.lockDuration); err != nil {
			t.storeError("expire", username, err)
		}
	}

	if count >= int64(t.maxAttempts) {
		if err := t.kv.SetTTL(ctx, lockKey(username), lockedValue, t.lockDuration); err != nil {
			t.storeError("lock", username, err)
			return
		}
		metrics.LoginLocksTotal.Inc()
		logger.Info.Printf("User %s locked for %s after %d failed logins", username, t.lockDuration, count)
		return
	}

	logger.Debug.Printf("Failed login for %s, attempt %d/%d", username, count, t.maxAttempts)
}

// LoginSucceeded clears both the counter and the lock marker.
func (t *Throttle) LoginSucceeded(ctx context.Context, username string) {
	if err := t.kv.Del(ctx, attemptKey(username), lockKey(username)); err != nil {
		t.storeError("reset", username, err)
	}
}

func (t *Throttle) RemainingAttempts(ctx context.Context, username string) int {
	val, ok, err := t.kv.Get(ctx, attemptKey(username))
	if err != nil {
		t.storeError("remaining", username, err)
		return t.maxAttempts
	}
	if !ok {
		return t.maxAttempts
	}

	count, err := strconv.Atoi(val)
	if err != nil {
		logger.Error.Printf("Attempt counter for %s is not a number: %q", username, val)
		return t.maxAttempts
	}
	if remaining := t.maxAttempts - count; remaining > 0 {
		return remaining
	}
	return 0
}

func (t *Throttle) MaxAttempts() int { return t.maxAttempts }

func (t *Throttle) storeError(op, username string, err error) {
	metrics.ThrottleStoreErrorsTotal.WithLabelValues(op).Inc()
	logger.Error.Printf("Login throttle %s failed for %s: %v", op, username, err)
}
