package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
)

// ProviderConfig holds the registration of this service with one OAuth
// provider. Endpoint fields left empty fall back to the provider defaults.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	AuthURL  string
	TokenURL string

	// UserInfoURL is the profile endpoint. For Google it is the API root
	// of the userinfo service.
	UserInfoURL string

	Timeout time.Duration
}

const defaultProviderTimeout = 10 * time.Second

// oauthClient performs the authorization code steps shared by every provider.
type oauthClient struct {
	provider    string
	config      oauth2.Config
	userInfoURL string
	http        *http.Client
}

func newOAuthClient(provider string, cfg ProviderConfig, defaults oauth2.Endpoint, defaultUserInfoURL string, scopes ...string) *oauthClient {
	endpoint := oauth2.Endpoint{
		AuthURL:  cfg.AuthURL,
		TokenURL: cfg.TokenURL,
		// Client credentials travel in the form body, the way both
		// providers document it.
		AuthStyle: oauth2.AuthStyleInParams,
	}
	if endpoint.AuthURL == "" {
		endpoint.AuthURL = defaults.AuthURL
	}
	if endpoint.TokenURL == "" {
		endpoint.TokenURL = defaults.TokenURL
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = defaultUserInfoURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultProviderTimeout
	}

	return &oauthClient{
		provider: provider,
		config: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       scopes,
		},
		userInfoURL: cfg.UserInfoURL,
		http:        &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *oauthClient) authURL() string {
	return c.config.AuthCodeURL("")
}

func (c *oauthClient) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.http)
}

// exchange trades code for an access token. Any answer without a token is
// an *OAuthExchangeError carrying the provider's body; transport failures
// are ErrProviderUnavailable.
func (c *oauthClient) exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	capture := &responseCapture{base: c.http.Transport}
	client := &http.Client{Timeout: c.http.Timeout, Transport: capture}

	token, err := c.config.Exchange(context.WithValue(ctx, oauth2.HTTPClient, client), code)
	if err == nil {
		return token, nil
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		body := string(retrieveErr.Body)
		if body == "" {
			body = retrieveErr.Error()
		}
		return nil, &OAuthExchangeError{Provider: c.provider, Body: body}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return nil, fmt.Errorf("%s token endpoint: %w: %v", c.provider, ErrProviderUnavailable, err)
	}

	// A success status without access_token is reported by oauth2 as a
	// plain error, so the body comes from the capture.
	body := string(capture.body)
	if body == "" {
		body = err.Error()
	}
	return nil, &OAuthExchangeError{Provider: c.provider, Body: body}
}

// responseCapture keeps a copy of the last response body it carried.
type responseCapture struct {
	base http.RoundTripper
	body []byte
}

func (r *responseCapture) RoundTrip(req *http.Request) (*http.Response, error) {
	base := r.base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	r.body = body
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

// client returns an HTTP client that sends token as a Bearer credential.
func (c *oauthClient) client(ctx context.Context, token *oauth2.Token) *http.Client {
	return c.config.Client(c.withHTTPClient(ctx), token)
}

// getJSON fetches the user-info endpoint with token and decodes it into v.
func (c *oauthClient) getJSON(ctx context.Context, token *oauth2.Token, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)
	if err != nil {
		return fmt.Errorf("create %s user info request: %w", c.provider, err)
	}

	resp, err := c.client(ctx, token).Do(req)
	if err != nil {
		return fmt.Errorf("%s user info: %w: %v", c.provider, ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s user info: %w: %v", c.provider, ErrProviderUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s user info: %w: status %d: %s", c.provider, ErrProviderUnavailable, resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%s user info: %w: %v", c.provider, ErrProviderUnavailable, err)
	}

	return nil
}
