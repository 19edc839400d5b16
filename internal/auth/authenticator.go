package auth

import (
	"context"

	"github.com/markbates/goth"
)

// Authenticator describes an object that can complete a social login.
type Authenticator interface {
	// Name is the provider name stored on users, e.g. "kakao".
	Name() string
	// AuthURL is the provider consent page the browser is sent to.
	AuthURL() string
	// CompleteUserAuth exchanges an authorization code and returns the
	// provider profile. UserID holds the provider-scoped identifier.
	CompleteUserAuth(ctx context.Context, code string) (goth.User, error)
}
