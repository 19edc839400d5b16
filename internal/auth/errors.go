package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned for a missing, malformed, forged or expired
	// session token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrProviderUnavailable is returned when a provider cannot be reached
	// or answers the profile request with an unusable response.
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// OAuthExchangeError reports a failed authorization code exchange. Body is
// the provider's response text, or a description of the failure when the
// provider returned none.
type OAuthExchangeError struct {
	Provider string
	Body     string
}

func (e *OAuthExchangeError) Error() string {
	return fmt.Sprintf("%s token exchange failed: %s", e.Provider, e.Body)
}
