// Package auth keeps a valid access token on hand for the engine's HTTP
// calls, refreshing it from the persisted refresh token shortly before it
// expires. It is grounded on OpenMined-syftbox's syftsdk.SyftSDK token
// cache (setAccessToken/refreshAuthToken/ParseToken), trimmed to the single
// concern Brandy Box actually needs: handing the driver a token it can use
// right now.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/brandstaetter/brandybox/internal/config"
	"github.com/brandstaetter/brandybox/internal/remote"
	"github.com/brandstaetter/brandybox/pkg/logging"
)

// ErrNotLoggedIn is returned when no refresh token is on file and the
// cache holds no usable access token either.
var ErrNotLoggedIn = errors.New("not logged in")

// refreshSkew is how long before expiry a cached access token is treated
// as already stale, so a refresh started now has time to land before the
// old token actually dies mid-request.
const refreshSkew = 2 * time.Minute

// claims is the subset of the server's JWT payload auth cares about. The
// server is the sole verifier; Brandy Box only reads the expiry to decide
// when to refresh, matching syftsdk.ParseToken's unverified parse.
type claims struct {
	jwt.RegisteredClaims
}

// TokenCache holds the in-memory access token and refreshes it from the
// persisted refresh token on demand.
type TokenCache struct {
	client remote.Client

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

// NewTokenCache returns a TokenCache that refreshes through client.
func NewTokenCache(client remote.Client) *TokenCache {
	return &TokenCache{client: client}
}

// ValidAccessToken returns a still-valid access token, refreshing it via
// the persisted refresh token when the cached one is missing or close to
// expiry. Satisfies internal/driver.TokenSource.
func (c *TokenCache) ValidAccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Until(c.expiresAt) > refreshSkew {
		return c.accessToken, nil
	}

	refreshToken := config.Get().RefreshToken
	if refreshToken == "" {
		return "", ErrNotLoggedIn
	}

	tokens, err := c.client.Refresh(ctx, refreshToken)
	if err != nil {
		return "", fmt.Errorf("refresh access token: %w", err)
	}

	exp, err := expiryOf(tokens.AccessToken)
	if err != nil {
		return "", fmt.Errorf("parse access token: %w", err)
	}

	c.accessToken = tokens.AccessToken
	c.expiresAt = exp
	if tokens.RefreshToken != "" {
		config.SetRefreshToken(tokens.RefreshToken)
		if err := config.Save(); err != nil {
			logging.Logger().Warn("failed to persist refreshed token", logging.Err(err))
		}
	}

	logging.Logger().Debug("refreshed access token", "expires_at", exp)
	return c.accessToken, nil
}

// Login exchanges credentials for a token pair, persists the refresh
// token, and primes the cache with the access token.
func (c *TokenCache) Login(ctx context.Context, email, password string) error {
	tokens, err := c.client.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	exp, err := expiryOf(tokens.AccessToken)
	if err != nil {
		return fmt.Errorf("parse access token: %w", err)
	}

	c.mu.Lock()
	c.accessToken = tokens.AccessToken
	c.expiresAt = exp
	c.mu.Unlock()

	config.SetRefreshToken(tokens.RefreshToken)
	return config.Save()
}

// Logout clears the cached access token and the persisted refresh token.
func (c *TokenCache) Logout() error {
	c.mu.Lock()
	c.accessToken = ""
	c.expiresAt = time.Time{}
	c.mu.Unlock()

	config.SetRefreshToken("")
	return config.Save()
}

func expiryOf(token string) (time.Time, error) {
	var parsed claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &parsed); err != nil {
		return time.Time{}, fmt.Errorf("parse unverified: %w", err)
	}
	if parsed.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("token has no expiry claim")
	}
	return parsed.ExpiresAt.Time, nil
}
