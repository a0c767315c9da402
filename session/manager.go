package session

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/possuite/go-pos-server/token"
)

const (
	// DefaultAccessTokenTTL is the lifetime of an access token.
	DefaultAccessTokenTTL = 15 * time.Minute
	// DefaultRefreshTokenTTL is the lifetime of a refresh token and of the
	// session record backing it.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour

	blacklistMarker = "revoked"
)

// TokenPair is what a client receives on login and on every rotation.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"` // Access token lifetime in seconds
}

// Identity is the projection of validated claims that gets attached to a
// request for downstream handlers.
type Identity struct {
	UserID  string `json:"user_id"`
	StoreID string `json:"store_id"`
	Role    string `json:"role"`
	Email   string `json:"email"`
}

// NewIdentity projects claims into an Identity. Pure, no failure mode.
func NewIdentity(claims *token.Claims) Identity {
	return Identity{
		UserID:  claims.UserID,
		StoreID: claims.StoreID,
		Role:    claims.Role,
		Email:   claims.Email,
	}
}

// Manager issues token pairs, validates access tokens against signature and
// blacklist, validates and rotates refresh tokens against the key-value
// store, and revokes sessions. Construct one per process and inject it into
// every consumer.
type Manager struct {
	kv               KV
	codec            *token.Codec
	accessSecret     []byte
	refreshSecret    []byte
	accessTTL        time.Duration
	refreshTTL       time.Duration
	strictRevocation bool
	nowFunc          func() time.Time
	log              zerolog.Logger
}

type ManagerOption func(*Manager)

// WithTokenTTLs overrides the access and refresh token lifetimes.
func WithTokenTTLs(accessTTL, refreshTTL time.Duration) ManagerOption {
	return func(m *Manager) {
		m.accessTTL = accessTTL
		m.refreshTTL = refreshTTL
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// WithStrictRevocation makes the blacklist lookup fail closed: a key-value
// store error during ValidateAccessToken rejects the token instead of
// skipping the revocation check. The default is fail-open, favouring
// availability; signature and expiry remain enforced either way.
func WithStrictRevocation(strict bool) ManagerOption {
	return func(m *Manager) {
		m.strictRevocation = strict
	}
}

func WithLogger(logger zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = logger
	}
}

// NewManager creates a session manager over the given key-value store, with
// distinct signing secrets for access and refresh tokens.
func NewManager(kv KV, accessSecret, refreshSecret string, options ...ManagerOption) *Manager {
	m := &Manager{
		kv:            kv,
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     DefaultAccessTokenTTL,
		refreshTTL:    DefaultRefreshTokenTTL,
		nowFunc:       time.Now,
		log:           log.Logger,
	}

	for _, opt := range options {
		opt(m)
	}

	// The codec shares the manager's clock so token expiry and blacklist TTLs
	// are computed against the same time source.
	m.codec = token.NewCodec(token.WithNowFunc(func() time.Time { return m.nowFunc() }))
	return m
}

// GenerateTokens signs a new access/refresh token pair from the claims and
// stores the refresh token under the (user, store) session key, overwriting
// any prior value: at most one valid refresh token exists per user-store pair,
// so issuing a new pair silently invalidates an earlier, not-yet-rotated
// refresh token held elsewhere. A store failure propagates, since a session
// that cannot be persisted must not be handed out.
func (m *Manager) GenerateTokens(ctx context.Context, claims *token.Claims) (*TokenPair, error) {
	accessToken, err := m.codec.Sign(claims, m.accessSecret, m.accessTTL)
	if err != nil {
		return nil, errors.Wrap(err, "session.Manager.GenerateTokens access token")
	}

	refreshToken, err := m.codec.Sign(claims, m.refreshSecret, m.refreshTTL)
	if err != nil {
		return nil, errors.Wrap(err, "session.Manager.GenerateTokens refresh token")
	}

	key := refreshTokenKey(claims.UserID, claims.StoreID)
	if err := m.kv.SetEx(ctx, key, refreshToken, m.refreshTTL); err != nil {
		return nil, errors.Wrap(err, "session.Manager.GenerateTokens store session record")
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(m.accessTTL.Seconds()),
	}, nil
}

// ValidateAccessToken returns the claims carried by a valid access token, or
// nil for any token that must not be trusted. The blacklist is consulted
// before the signature: a blacklisted token is never valid regardless of its
// remaining lifetime.
func (m *Manager) ValidateAccessToken(ctx context.Context, rawToken string) *token.Claims {
	if rawToken == "" {
		return nil
	}

	_, err := m.kv.Get(ctx, blacklistKey(rawToken))
	switch {
	case err == nil:
		return nil // explicitly revoked
	case !errors.Is(err, ErrNotFound):
		if m.strictRevocation {
			m.log.Error().Err(err).Msg("blacklist lookup failed, rejecting token")
			return nil
		}
		m.log.Warn().Err(err).Msg("blacklist lookup failed, continuing without revocation check")
	}

	claims, err := m.codec.Verify(rawToken, m.accessSecret)
	if err != nil {
		return nil
	}
	return claims
}

// ValidateRefreshToken verifies a refresh token's signature and expiry, then
// requires it to match the stored session record exactly. A stale,
// already-rotated, or revoked token fails the match, as does any store error:
// refresh validation always fails closed.
func (m *Manager) ValidateRefreshToken(ctx context.Context, rawToken, userID, storeID string) *token.Claims {
	claims, err := m.codec.Verify(rawToken, m.refreshSecret)
	if err != nil {
		return nil
	}

	stored, err := m.kv.Get(ctx, refreshTokenKey(userID, storeID))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.log.Error().Err(err).Msg("session record lookup failed")
		}
		return nil
	}

	if stored != rawToken {
		return nil
	}
	return claims
}

// RefreshTokens exchanges a valid refresh token for a brand-new token pair.
// The exchange succeeds at most once per token: the stored record is replaced
// during rotation, so a second attempt with the same token no longer matches.
// Returns (nil, nil) for an invalid token; an error only for infrastructure
// faults.
func (m *Manager) RefreshTokens(ctx context.Context, rawToken string) (*TokenPair, error) {
	// Unverified peek, only to route the session-record lookup. Nothing from
	// it is trusted until ValidateRefreshToken has passed.
	peek := token.Decode(rawToken)
	if peek == nil {
		return nil, nil
	}

	claims := m.ValidateRefreshToken(ctx, rawToken, peek.UserID, peek.StoreID)
	if claims == nil {
		return nil, nil
	}

	// Revoke the old record before issuing. The new pair is written under the
	// same (user, store) key, so deleting afterwards would destroy the session
	// just created.
	if err := m.kv.Del(ctx, refreshTokenKey(claims.UserID, claims.StoreID)); err != nil {
		return nil, errors.Wrap(err, "session.Manager.RefreshTokens delete session record")
	}

	pair, err := m.GenerateTokens(ctx, &token.Claims{
		UserID:      claims.UserID,
		StoreID:     claims.StoreID,
		Role:        claims.Role,
		Email:       claims.Email,
		Permissions: claims.Permissions,
	})
	if err != nil {
		return nil, errors.Wrap(err, "session.Manager.RefreshTokens")
	}
	return pair, nil
}

// RevokeTokens ends the session for a (user, store) pair. When an access
// token is supplied and has lifetime left, a blacklist entry is written with
// a TTL of exactly the remaining seconds, so the entry never outlives the
// token it blocks. The refresh-token session record is always deleted,
// unconditionally ending the refresh chain.
func (m *Manager) RevokeTokens(ctx context.Context, userID, storeID, accessToken string) error {
	if accessToken != "" {
		if claims := token.Decode(accessToken); claims != nil && claims.ExpiresAt != nil {
			remaining := claims.ExpiresAt.Sub(m.nowFunc())
			if remaining > 0 {
				if err := m.kv.SetEx(ctx, blacklistKey(accessToken), blacklistMarker, remaining); err != nil {
					return errors.Wrap(err, "session.Manager.RevokeTokens blacklist entry")
				}
			}
		}
	}

	if err := m.kv.Del(ctx, refreshTokenKey(userID, storeID)); err != nil {
		return errors.Wrap(err, "session.Manager.RevokeTokens delete session record")
	}
	return nil
}
