package google

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// CallbackPath is the relay path Google redirects to after consent.
const CallbackPath = "/api/auth/callback"

// Config holds the provider credentials and the public frontend base URL.
// The zero values of Endpoint and APIBaseURL select the real Google endpoints.
type Config struct {
	ClientID     string
	ClientSecret string

	// BaseURL is the frontend root. It is both the redirect target after
	// the callback and the prefix of the OAuth redirect URI.
	BaseURL string

	// Endpoint overrides the OAuth2 authorization and token endpoints.
	Endpoint oauth2.Endpoint

	// APIBaseURL overrides the Google API root (e.g. "https://www.googleapis.com/").
	APIBaseURL string
}

// Validate reports every missing setting as a single ConfigurationError.
func (c Config) Validate() error {
	var missing []string
	if c.ClientID == "" {
		missing = append(missing, "client id")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "client secret")
	}
	if c.BaseURL == "" {
		missing = append(missing, "base url")
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}

// FrontendRoot returns the base URL without a trailing slash.
func (c Config) FrontendRoot() string {
	return strings.TrimRight(c.BaseURL, "/")
}

// RedirectURL returns the OAuth redirect URI registered with Google.
func (c Config) RedirectURL() string {
	return c.FrontendRoot() + CallbackPath
}

// OAuthConfig builds a fresh oauth2.Config for a single call.
func (c Config) OAuthConfig() *oauth2.Config {
	endpoint := c.Endpoint
	if endpoint.AuthURL == "" && endpoint.TokenURL == "" {
		endpoint = google.Endpoint
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  c.RedirectURL(),
		Scopes:       DefaultOAuthScopes,
	}
}

// HTTPClient returns an HTTP client that sends accessToken as a bearer token.
// The token is used as-is and never refreshed.
func HTTPClient(ctx context.Context, accessToken string) *http.Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	})
	return oauth2.NewClient(ctx, ts)
}

// ServiceOptions returns the client options for a Google API service rooted at
// servicePath (e.g. "calendar/v3/"), authenticated with accessToken.
func (c Config) ServiceOptions(ctx context.Context, accessToken, servicePath string) []option.ClientOption {
	opts := []option.ClientOption{
		option.WithHTTPClient(HTTPClient(ctx, accessToken)),
	}
	if c.APIBaseURL != "" {
		root := strings.TrimRight(c.APIBaseURL, "/") + "/"
		opts = append(opts, option.WithEndpoint(root+servicePath))
	}
	return opts
}

// String returns a loggable description of the config that omits secrets.
func (c Config) String() string {
	return fmt.Sprintf("google.Config{client_id_set=%t client_secret_set=%t base_url=%q}",
		c.ClientID != "", c.ClientSecret != "", c.BaseURL)
}
