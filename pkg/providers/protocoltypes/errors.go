package protocoltypes

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidResponse marks a provider response missing an expected field.
// Fatal for the turn.
var ErrInvalidResponse = errors.New("invalid provider response")

// ErrNotConfigured means the selected provider has no credentials; surfaced
// before any network call is made.
var ErrNotConfigured = errors.New("provider is not configured")

// APIError is a non-2xx reply from a vendor API, carrying the raw body so
// the caller can surface it.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed: status=%d body=%s", e.Status, e.Body)
}

// IsUnauthorized reports whether err is (or wraps) a 401 APIError.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}
