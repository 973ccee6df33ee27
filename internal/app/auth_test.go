package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/registrar/internal/models"
)

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Auth.Register(ctx, models.RegisterRequest{Username: "alice", Password: "wonderland"})
	require.NoError(t, err)
	require.NotNil(t, pair.User)
	assert.Equal(t, models.RoleStudent, pair.User.Role)
	assert.NotEmpty(t, pair.Token)
	assert.NotEmpty(t, pair.RefreshToken)

	_, err = svc.Auth.Register(ctx, models.RegisterRequest{Username: "alice", Password: "another1"})
	assert.ErrorIs(t, err, models.ErrUsernameTaken)

	pair, err = svc.Auth.Login(ctx, models.LoginRequest{Username: "alice", Password: "wonderland"})
	require.NoError(t, err)

	claims, err := svc.Auth.Authenticate(pair.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, models.RoleStudent, claims.Role)

	me, err := svc.Auth.Me(ctx, claims.UserID)
	require.NoError(t, err)
	assert.NotNil(t, me.LastLoginAt)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Auth.Register(context.Background(), models.RegisterRequest{Username: "al", Password: "x"})
	assert.Equal(t, models.KindInvalidArgument, models.KindOf(err))
}

func TestLoginLocksAfterFiveFailures(t *testing.T) {
	svc, server := newTestService(t)
	ctx := context.Background()

	_, err := svc.Auth.Register(ctx, models.RegisterRequest{Username: "alice", Password: "wonderland"})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := svc.Auth.Login(ctx, models.LoginRequest{Username: "alice", Password: "wrong-password"})
		assert.ErrorIs(t, err, models.ErrBadCredentials, "attempt %d", i+1)
	}
	assert.True(t, svc.Throttle.IsBlocked(ctx, "alice"))

	// the correct password no longer helps while locked
	_, err = svc.Auth.Login(ctx, models.LoginRequest{Username: "alice", Password: "wonderland"})
	assert.ErrorIs(t, err, models.ErrLoginLocked)
	assert.Equal(t, models.KindLocked, models.KindOf(err))

	count, err := server.Get("login_attempt:alice")
	require.NoError(t, err)
	assert.Equal(t, "5", count, "a locked login must not count as another attempt")

	svc.Auth.Unlock(ctx, "alice")
	_, err = svc.Auth.Login(ctx, models.LoginRequest{Username: "alice", Password: "wonderland"})
	require.NoError(t, err)
	assert.False(t, server.Exists("login_attempt:alice"))
}

func TestLoginSuccessResetsCounter(t *testing.T) {
	svc, server := newTestService(t)
	ctx := context.Background()

	_, err := svc.Auth.Register(ctx, models.RegisterRequest{Username: "bob", Password: "builder1"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.Auth.Login(ctx, models.LoginRequest{Username: "bob", Password: "nope-nope"})
		require.ErrorIs(t, err, models.ErrBadCredentials)
	}
	assert.Equal(t, 2, svc.Auth.RemainingAttempts(ctx, "bob"))

	_, err = svc.Auth.Login(ctx, models.LoginRequest{Username: "bob", Password: "builder1"})
	require.NoError(t, err)
	assert.False(t, server.Exists("login_attempt:bob"))
	assert.False(t, server.Exists("login_lock:bob"))
}

func TestUnknownUserCountsAsFailure(t *testing.T) {
	svc, server := newTestService(t)
	ctx := context.Background()

	_, err := svc.Auth.Login(ctx, models.LoginRequest{Username: "ghost", Password: "whatever"})
	assert.ErrorIs(t, err, models.ErrBadCredentials)

	count, err := server.Get("login_attempt:ghost")
	require.NoError(t, err)
	assert.Equal(t, "1", count)
}

func TestRefresh(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Auth.Register(ctx, models.RegisterRequest{Username: "carol", Password: "secret12"})
	require.NoError(t, err)

	refreshed, err := svc.Auth.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.Token)
	assert.Nil(t, refreshed.User)

	_, err = svc.Auth.Refresh(ctx, pair.Token)
	assert.ErrorIs(t, err, models.ErrInvalidToken, "access token must not refresh")

	_, err = svc.Auth.Authenticate(pair.RefreshToken)
	assert.ErrorIs(t, err, models.ErrInvalidToken, "refresh token must not authenticate")
}

func TestTokenManager(t *testing.T) {
	tm := NewTokenManager("secret", time.Minute, time.Hour)
	user := &models.User{ID: 7, Username: "dave", Role: models.RoleTeacher}

	pair, err := tm.Issue(user)
	require.NoError(t, err)

	claims, err := tm.Parse(pair.Token, tokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
	assert.NotEmpty(t, claims.ID)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager("other", time.Minute, time.Hour)
		_, err := other.Parse(pair.Token, tokenTypeAccess)
		assert.ErrorIs(t, err, models.ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewTokenManager("secret", time.Minute, time.Hour)
		expired.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
		stale, err := expired.Issue(user)
		require.NoError(t, err)
		_, err = tm.Parse(stale.Token, tokenTypeAccess)
		assert.ErrorIs(t, err, models.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tm.Parse("not.a.token", tokenTypeAccess)
		assert.ErrorIs(t, err, models.ErrInvalidToken)
	})
}

func TestRegisterRejectsTakenEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Auth.Register(ctx, models.RegisterRequest{Username: "dave", Password: "secret12", Email: "dave@example.com"})
	require.NoError(t, err)

	_, err = svc.Auth.Register(ctx, models.RegisterRequest{Username: "dave2", Password: "secret12", Email: "Dave@Example.com"})
	assert.ErrorIs(t, err, models.ErrEmailTaken)

	_, err = svc.Auth.CreateUser(ctx, models.RegisterRequest{Username: "dave3", Password: "secret12", Email: "dave@example.com"}, models.RoleTeacher)
	assert.ErrorIs(t, err, models.ErrEmailTaken)

	user, err := svc.Store.GetUserByUsername(ctx, "dave2")
	require.NoError(t, err)
	assert.Nil(t, user)

	// accounts without an email never collide
	_, err = svc.Auth.Register(ctx, models.RegisterRequest{Username: "erin", Password: "secret12"})
	require.NoError(t, err)
	_, err = svc.Auth.Register(ctx, models.RegisterRequest{Username: "frank", Password: "secret12"})
	require.NoError(t, err)
}
