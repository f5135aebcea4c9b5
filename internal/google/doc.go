// Package google provides the OAuth2 side of the calendar relay: provider
// configuration, consent URL construction, authorization code exchange and
// the OpenID userinfo lookup.
//
// Nothing in this package keeps state between calls. Every operation takes a
// Config and builds a fresh oauth2.Config from it, so callers can re-resolve
// credentials per request.
//
// Example usage:
//
//	cfg := google.Config{
//	    ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
//	    ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
//	    BaseURL:      "http://localhost:3000",
//	}
//	url, err := google.AuthCodeURL(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tokens, err := google.Exchange(ctx, cfg, code)
package google
