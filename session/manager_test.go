package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/possuite/go-pos-server/session"
	"github.com/possuite/go-pos-server/session/kvfakes"
	"github.com/possuite/go-pos-server/token"
)

const (
	accessSecret  = "access-secret"
	refreshSecret = "refresh-secret"
)

// testClock drives the codec, the manager, and the fake store off one time
// source so expiry behaves deterministically.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type testFixture struct {
	kv      *kvfakes.FakeKV
	manager *session.Manager
	clock   *testClock
}

func setupTestFixture(t *testing.T, options ...session.ManagerOption) *testFixture {
	t.Helper()

	clock := &testClock{now: time.Now()}

	kv := kvfakes.NewFakeKV()
	kv.SetNowFunc(clock.Now)

	options = append([]session.ManagerOption{session.WithNowFunc(clock.Now)}, options...)
	return &testFixture{
		kv:      kv,
		manager: session.NewManager(kv, accessSecret, refreshSecret, options...),
		clock:   clock,
	}
}

func cashierClaims() *token.Claims {
	return &token.Claims{
		UserID:      "u1",
		StoreID:     "s1",
		Role:        "cashier",
		Email:       "cashier@store-one.example",
		Permissions: []string{"sale:create"},
	}
}

func TestGenerateTokens(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	pair, err := f.manager.GenerateTokens(ctx, cashierClaims())
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, int((15 * time.Minute).Seconds()), pair.ExpiresIn)

	claims := f.manager.ValidateAccessToken(ctx, pair.AccessToken)
	require.NotNil(t, claims)
	require.Equal(t, session.Identity{
		UserID:  "u1",
		StoreID: "s1",
		Role:    "cashier",
		Email:   "cashier@store-one.example",
	}, session.NewIdentity(claims))

	// The refresh token must be stored verbatim under the session key.
	stored, err := f.kv.Get(ctx, "refresh_token:u1:s1")
	require.NoError(t, err)
	require.Equal(t, pair.RefreshToken, stored)
}

func TestGenerateTokensOverwritesPriorSession(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	first, err := f.manager.GenerateTokens(ctx, cashierClaims())
	require.NoError(t, err)
	second, err := f.manager.GenerateTokens(ctx, cashierClaims())
	require.NoError(t, err)

	// The earlier refresh token has been silently invalidated.
	require.Nil(t, f.manager.ValidateRefreshToken(ctx, first.RefreshToken, "u1", "s1"))
	require.NotNil(t, f.manager.ValidateRefreshToken(ctx, second.RefreshToken, "u1", "s1"))
}

func TestGenerateTokensFailsClosedOnStoreError(t *testing.T) {
	f := setupTestFixture(t)
	f.kv.SetErr(errors.New("connection refused"))

	pair, err := f.manager.GenerateTokens(context.Background(), cashierClaims())
	require.Error(t, err)
	require.Nil(t, pair)
}

func TestValidateAccessToken(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	pair, err := f.manager.GenerateTokens(ctx, cashierClaims())
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		require.NotNil(t, f.manager.ValidateAccessToken(ctx, pair.AccessToken))
	})

	t.Run("empty token", func(t *testing.T) {
		require.Nil(t, f.manager.ValidateAccessToken(ctx, ""))
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		require.Nil(t, f.manager.ValidateAccessToken(ctx, pair.RefreshToken))
	})

	t.Run("expired token", func(t *testing.T) {
		f.clock.Advance(16 * time.Minute)
		require.Nil(t, f.manager.ValidateAccessToken(ctx, pair.AccessToken))
	})
}

func TestManagerClockDrivesTokenExpiry(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	pair, err := f.manager.GenerateTokens(ctx, cashierClaims())
	require.NoError(t, err)

	// Wall time barely moves during this test; only the injected clock
	// advances. Expiry must follow the clock handed to NewManager.
	f.clock.Advance(14 * time.Minute)
	require.NotNil(t, f.manager.ValidateAccessToken(ctx, pair.AccessToken))

	f.clock.Advance(2 * time.Minute)
	require.Nil(t, f.manager.ValidateAccessToken(ctx, pair.AccessToken))
}

func TestValidateAccessTokenFailsOpenOnBlacklistOutage(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	pair, err := f.manager.GenerateTokens(ctx, cashierClaims())
	require.NoError(t, err)

	// Store outage: the revocation check degrades to "not blacklisted" and
	// signature plus expiry remain the security boundary.
	f.kv.SetErr(errors.New("connection refused"))
	require.NotNil(t, f.manager.ValidateAccessToken(ctx, pair.AccessToken))
}

func TestValidateAccessTokenStrictRevocation(t *testing.T) {
	f := setupTestFixture(t, session.WithStrictRevocation(true))
	ctx := context.Background()

	pair, err := f.manager.GenerateTokens(ctx, cashierClaims())
	require.NoError(t, err)
	require.NotNil(t, f.manager.ValidateAccessToken(ctx, pair.AccessToken))

	f.kv.SetErr(errors.New("connection refused"))
	require.Nil(t, f.manager.ValidateAccessToken(ctx, pair.AccessToken))
}

func TestRevokeTokens(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	pair, err := f.manager.GenerateTokens(ctx, cashierClaims())
	require.NoError(t, err)
	require.NotNil(t, f.manager.ValidateAccessToken(ctx, pair.AccessToken))

	require.NoError(t, f.manager.RevokeTokens(ctx, "u1", "s1", pair.AccessToken))

	// The access token is rejected even though its own expiry has not passed,
	// and the paired refresh token can no longer be exchanged.
	require.Nil(t, f.manager.ValidateAccessToken(ctx, pair.AccessToken))
	rotated, err := f.manager.RefreshTokens(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.Nil(t, rotated)
}

func TestRevokeTokensBlacklistTTLNeverExceedsTokenLifetime(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	pair, err := f.manager.GenerateTokens(ctx, cashierClaims())
	require.NoError(t, err)

	f.clock.Advance(5 * time.Minute)
	require.NoError(t, f.manager.RevokeTokens(ctx, "u1", "s1", pair.AccessToken))

	ttl, ok := f.kv.TTL("blacklist:" + pair.AccessToken)
	require.True(t, ok)
	require.LessOrEqual(t, ttl, 10*time.Minute)
	require.Greater(t, ttl, time.Duration(0))
}

func TestRevokeTokensSkipsBlacklistForExpiredToken(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	pair, err := f.manager.GenerateTokens(ctx, cashierClaims())
	require.NoError(t, err)

	// Nothing to blacklist once the token has expired on its own.
	f.clock.Advance(16 * time.Minute)
	require.NoError(t, f.manager.RevokeTokens(ctx, "u1", "s1", pair.AccessToken))

	_, ok := f.kv.TTL("blacklist:" + pair.AccessToken)
	require.False(t, ok)
}

func TestRefreshTokensRotation(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	pair, err := f.manager.GenerateTokens(ctx, cashierClaims())
	require.NoError(t, err)

	rotated, err := f.manager.RefreshTokens(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotNil(t, rotated)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	claims := f.manager.ValidateAccessToken(ctx, rotated.AccessToken)
	require.NotNil(t, claims)
	require.Equal(t, "u1", claims.UserID)
	require.Equal(t, []string{"sale:create"}, claims.Permissions)

	// Rotation does not retroactively invalidate the outstanding access
	// token, only the refresh chain.
	require.NotNil(t, f.manager.ValidateAccessToken(ctx, pair.AccessToken))

	// A refresh token can be exchanged at most once.
	reused, err := f.manager.RefreshTokens(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.Nil(t, reused)

	// The new refresh token is live.
	again, err := f.manager.RefreshTokens(ctx, rotated.RefreshToken)
	require.NoError(t, err)
	require.NotNil(t, again)
}

func TestRefreshTokensRejectsWrongSecret(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	// Syntactically valid token signed with the wrong secret.
	forged, err := token.NewCodec().Sign(cashierClaims(), []byte("some-other-secret"), time.Hour)
	require.NoError(t, err)

	rotated, err := f.manager.RefreshTokens(ctx, forged)
	require.NoError(t, err)
	require.Nil(t, rotated)
}

func TestRefreshTokensRejectsGarbage(t *testing.T) {
	f := setupTestFixture(t)

	rotated, err := f.manager.RefreshTokens(context.Background(), "not-a-token")
	require.NoError(t, err)
	require.Nil(t, rotated)
}

func TestRefreshTokensAfterNoSession(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	pair, err := f.manager.GenerateTokens(ctx, cashierClaims())
	require.NoError(t, err)

	// Delete the session record out from under the token.
	require.NoError(t, f.manager.RevokeTokens(ctx, "u1", "s1", ""))

	rotated, err := f.manager.RefreshTokens(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.Nil(t, rotated)

	// A fresh GenerateTokens re-enters the active state.
	pair2, err := f.manager.GenerateTokens(ctx, cashierClaims())
	require.NoError(t, err)
	require.NotNil(t, f.manager.ValidateRefreshToken(ctx, pair2.RefreshToken, "u1", "s1"))
}

func TestSessionsAreIsolatedPerUserStorePair(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	c1 := cashierClaims()
	c2 := &token.Claims{UserID: "u2", StoreID: "s1", Role: "manager", Email: "manager@store-one.example"}

	p1, err := f.manager.GenerateTokens(ctx, c1)
	require.NoError(t, err)
	p2, err := f.manager.GenerateTokens(ctx, c2)
	require.NoError(t, err)

	require.NoError(t, f.manager.RevokeTokens(ctx, "u1", "s1", p1.AccessToken))

	// u2's session is untouched.
	require.NotNil(t, f.manager.ValidateAccessToken(ctx, p2.AccessToken))
	rotated, err := f.manager.RefreshTokens(ctx, p2.RefreshToken)
	require.NoError(t, err)
	require.NotNil(t, rotated)
}
