// Package assistant runs the conversation loop: prompt assembly, provider
// calls, and single-round tool dispatch.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/attache-ai/attache/pkg/auth"
	"github.com/attache-ai/attache/pkg/providers/protocoltypes"
)

var (
	// ErrNotConfigured means the selected provider has no API key or
	// credentials in config.
	ErrNotConfigured = protocoltypes.ErrNotConfigured

	// ErrAuthentication means credentials were rejected and the single
	// refresh-and-retry did not recover.
	ErrAuthentication = errors.New("authentication failed")
)

// TurnError wraps a failure with the phase of the turn it happened in.
type TurnError struct {
	Phase string // "request", "tool", "follow-up"
	Err   error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("%s: %v", e.Phase, e.Err)
}

func (e *TurnError) Unwrap() error {
	return e.Err
}

// Describe renders an error as a user-facing line, keeping API status and
// body visible rather than collapsing everything to "something went wrong".
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotConfigured):
		return "This provider is not configured. Add an API key with `attache config`."
	case errors.Is(err, auth.ErrNotSignedIn):
		return "Not signed in to Google. Run `attache auth` first."
	case errors.Is(err, ErrAuthentication), errors.Is(err, auth.ErrTokenRefreshFailed):
		return "Authentication failed. Your credentials may have expired; sign in again."
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out."
	}

	var apiErr *protocoltypes.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("The provider returned HTTP %d: %s", apiErr.Status, apiErr.Body)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Sprintf("Network error: %v", netErr)
	}

	return err.Error()
}
