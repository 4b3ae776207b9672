// Package auth manages OAuth2 tokens for the Google collaborators.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"

	"github.com/attache-ai/attache/pkg/logger"
)

// ErrNotSignedIn indicates no OAuth token has been provisioned.
var ErrNotSignedIn = errors.New("not signed in")

// ErrTokenRefreshFailed indicates a refresh attempt was rejected; the caller
// must not retry automatically.
var ErrTokenRefreshFailed = errors.New("token refresh failed")

// TokenManager holds one credential. The mutex is held across a refresh, so
// at most one refresh is in flight; concurrent callers block and then reuse
// the just-refreshed token.
type TokenManager struct {
	mu          sync.Mutex
	cfg         *oauth2.Config
	token       *oauth2.Token
	persistPath string
}

// NewTokenManager loads a persisted token from persistPath if it exists.
// A missing file is fine; the manager starts signed out.
func NewTokenManager(cfg *oauth2.Config, persistPath string) (*TokenManager, error) {
	t := &TokenManager{cfg: cfg, persistPath: persistPath}
	if persistPath == "" {
		return t, nil
	}

	data, err := os.ReadFile(persistPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return t, nil
		}
		return nil, fmt.Errorf("reading token file: %w", err)
	}

	token := &oauth2.Token{}
	if err := json.Unmarshal(data, token); err != nil {
		return nil, fmt.Errorf("parsing token file: %w", err)
	}
	t.token = token
	return t, nil
}

// SetToken installs a freshly acquired token (e.g. after the sign-in flow)
// and persists it.
func (t *TokenManager) SetToken(token *oauth2.Token) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = token
	return t.persistLocked()
}

// SignedIn reports whether a token is present.
func (t *TokenManager) SignedIn() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.token != nil
}

// AccessToken returns a valid access token, refreshing via the OAuth
// endpoint if the cached one has expired.
func (t *TokenManager) AccessToken(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token == nil {
		return "", ErrNotSignedIn
	}
	if t.token.Valid() {
		return t.token.AccessToken, nil
	}
	if err := t.refreshLocked(ctx); err != nil {
		return "", err
	}
	return t.token.AccessToken, nil
}

// RefreshAfterUnauthorized handles a 401: it refreshes at most once and
// returns the token to retry with. staleToken is the token that was
// rejected; if another caller already refreshed past it, the cached token is
// returned without a second refresh.
func (t *TokenManager) RefreshAfterUnauthorized(ctx context.Context, staleToken string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token == nil {
		return "", ErrNotSignedIn
	}
	if t.token.AccessToken != staleToken {
		return t.token.AccessToken, nil
	}
	if err := t.refreshLocked(ctx); err != nil {
		return "", err
	}
	return t.token.AccessToken, nil
}

// refreshLocked must be called with t.mu held.
func (t *TokenManager) refreshLocked(ctx context.Context) error {
	// TokenSource short-circuits while the cached Expiry is in the future,
	// which would hand a server-rejected token straight back. Seed it with
	// only the refresh token so it always round-trips the token endpoint.
	src := t.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: t.token.RefreshToken})
	fresh, err := src.Token()
	if err != nil {
		logger.ErrorCF("auth", "Token refresh rejected", map[string]any{"error": err.Error()})
		return fmt.Errorf("%w: %v", ErrTokenRefreshFailed, err)
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = t.token.RefreshToken
	}
	t.token = fresh
	if err := t.persistLocked(); err != nil {
		logger.WarnCF("auth", "Failed to persist refreshed token", map[string]any{"error": err.Error()})
	}
	return nil
}

func (t *TokenManager) persistLocked() error {
	if t.persistPath == "" || t.token == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(t.persistPath), 0o700); err != nil {
		return fmt.Errorf("creating token dir: %w", err)
	}
	data, err := json.Marshal(t.token)
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	if err := os.WriteFile(t.persistPath, data, 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	return nil
}
