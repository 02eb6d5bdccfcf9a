package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// EnvClientID holds the OAuth client id.
	EnvClientID = "GOOGLE_CLIENT_ID"

	// EnvClientSecret holds the OAuth client secret.
	EnvClientSecret = "GOOGLE_CLIENT_SECRET"

	// RedirectURL is the loopback redirect registered for desktop clients.
	// The browser fails to load it and the code is copied from the address bar.
	RedirectURL = "http://localhost"
)

// ErrNoClientConfig is returned when the OAuth client id or secret is missing.
var ErrNoClientConfig = errors.New("google OAuth client not configured: set " + EnvClientID + " and " + EnvClientSecret)

// GetOAuthConfig returns the OAuth2 configuration for the given client.
func GetOAuthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  RedirectURL,
		Scopes:       DefaultOAuthScopes,
	}
}

// OAuthConfigFromEnv reads the client from EnvClientID and EnvClientSecret.
func OAuthConfigFromEnv() (*oauth2.Config, error) {
	id, secret := os.Getenv(EnvClientID), os.Getenv(EnvClientSecret)
	if id == "" || secret == "" {
		return nil, ErrNoClientConfig
	}
	return GetOAuthConfig(id, secret), nil
}

// GetAuthURL returns the URL the user opens to authorize access. Offline
// access is requested so a refresh token is issued.
func GetAuthURL(conf *oauth2.Config, state string) string {
	return conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// ExtractCode accepts either the bare authorization code or the full
// redirect URL it was appended to. A redirect URL must carry state.
func ExtractCode(input, state string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("empty authorization code")
	}
	if !strings.Contains(input, "://") {
		return input, nil
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid redirect URL: %w", err)
	}
	if msg := u.Query().Get("error"); msg != "" {
		return "", fmt.Errorf("authorization denied: %s", msg)
	}
	if got := u.Query().Get("state"); got != state {
		return "", errors.New("state mismatch in redirect URL")
	}
	code := u.Query().Get("code")
	if code == "" {
		return "", errors.New("redirect URL has no code parameter")
	}
	return code, nil
}

// SaveToken exchanges an authorization code for tokens and stores them.
func SaveToken(ctx context.Context, conf *oauth2.Config, store *FileTokenProvider, authCode string) error {
	t, err := conf.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}
	if err := store.Save(t); err != nil {
		return err
	}
	return nil
}

// GetHTTPClient returns an HTTP client authorized with the stored token.
// Refreshed tokens are persisted through provider.
func GetHTTPClient(ctx context.Context, conf *oauth2.Config, provider TokenProvider) (*http.Client, error) {
	if provider == nil {
		return nil, errors.New("token provider cannot be nil")
	}
	token, err := provider.Token(ctx)
	if err != nil {
		return nil, err
	}

	ts := &persistingTokenSource{
		base:     conf.TokenSource(ctx, token),
		provider: provider,
		last:     token.AccessToken,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(token, ts)), nil
}

// persistingTokenSource saves every token whose access token differs from
// the previous one.
type persistingTokenSource struct {
	base     oauth2.TokenSource
	provider TokenProvider
	last     string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if t.AccessToken != s.last {
		s.last = t.AccessToken
		if err := s.provider.Save(t); err != nil {
			return nil, fmt.Errorf("failed to persist refreshed token: %w", err)
		}
	}
	return t, nil
}
