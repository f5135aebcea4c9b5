package google

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/oauth2"
)

// TokenSet is the result of a successful authorization code exchange.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// ExpiryMillis returns the expiry as epoch milliseconds, or "" when unknown.
func (t TokenSet) ExpiryMillis() string {
	if t.Expiry.IsZero() {
		return ""
	}
	return strconv.FormatInt(t.Expiry.UnixMilli(), 10)
}

// AuthCodeURL returns the consent URL for cfg. It requests offline access and
// forces the consent prompt so that a refresh token is issued on every
// authorization, not only the first one.
func AuthCodeURL(cfg Config) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	conf := cfg.OAuthConfig()
	return conf.AuthCodeURL("",
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	), nil
}

// Exchange trades an authorization code for tokens with a single request to
// the token endpoint. Failures are returned as *ExchangeError and never retried.
func Exchange(ctx context.Context, cfg Config, code string) (*TokenSet, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t, err := cfg.OAuthConfig().Exchange(ctx, code)
	if err != nil {
		return nil, &ExchangeError{Err: err}
	}

	return &TokenSet{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		Expiry:       t.Expiry,
	}, nil
}
