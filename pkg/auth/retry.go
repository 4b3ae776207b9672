package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// WithUnauthorizedRetry runs fn with a valid access token. On a 401 it
// refreshes the token exactly once and retries once; a second 401 surfaces
// as an authentication error with no further attempts.
func WithUnauthorizedRetry(ctx context.Context, tm *TokenManager, fn func(accessToken string) error) error {
	tok, err := tm.AccessToken(ctx)
	if err != nil {
		return err
	}

	err = fn(tok)
	if err == nil || !IsUnauthorized(err) {
		return err
	}

	fresh, refreshErr := tm.RefreshAfterUnauthorized(ctx, tok)
	if refreshErr != nil {
		return refreshErr
	}

	err = fn(fresh)
	if err != nil && IsUnauthorized(err) {
		return fmt.Errorf("authentication failed after token refresh: %w", err)
	}
	return err
}

// IsUnauthorized reports whether err is a 401 from a Google API.
func IsUnauthorized(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized
}
