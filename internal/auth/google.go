package auth

import (
	"context"
	"fmt"

	"sociallogin/internal/model"

	"github.com/markbates/goth"
	"golang.org/x/oauth2/endpoints"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// Google signs users in with Google OAuth2. ProviderConfig.UserInfoURL,
// when set, overrides the API root the userinfo service is resolved against.
type Google struct {
	client *oauthClient
}

func NewGoogle(cfg ProviderConfig) *Google {
	return &Google{client: newOAuthClient(model.ProviderGoogle, cfg, endpoints.Google, "",
		"openid", "email", "profile")}
}

func (g *Google) Name() string {
	return model.ProviderGoogle
}

func (g *Google) AuthURL() string {
	return g.client.authURL()
}

func (g *Google) CompleteUserAuth(ctx context.Context, code string) (goth.User, error) {
	token, err := g.client.exchange(ctx, code)
	if err != nil {
		return goth.User{}, err
	}

	opts := []option.ClientOption{option.WithHTTPClient(g.client.client(ctx, token))}
	if g.client.userInfoURL != "" {
		opts = append(opts, option.WithEndpoint(g.client.userInfoURL))
	}
	svc, err := googleoauth2.NewService(ctx, opts...)
	if err != nil {
		return goth.User{}, fmt.Errorf("create google userinfo service: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return goth.User{}, fmt.Errorf("google user info: %w: %v", ErrProviderUnavailable, err)
	}
	if info.Id == "" {
		return goth.User{}, fmt.Errorf("google user info: %w: missing id", ErrProviderUnavailable)
	}

	name := info.Name
	if name == "" {
		name = "No Name"
	}
	email := info.Email
	if email == "" {
		email = "No Email"
	}

	return goth.User{
		Provider:    model.ProviderGoogle,
		UserID:      info.Id,
		Name:        name,
		FirstName:   info.GivenName,
		LastName:    info.FamilyName,
		Email:       email,
		AvatarURL:   info.Picture,
		AccessToken: token.AccessToken,
		ExpiresAt:   token.Expiry,
	}, nil
}

var _ Authenticator = (*Google)(nil)
