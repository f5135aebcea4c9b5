package google

// DefaultOAuthScopes are the scopes requested on the consent screen.
//
// The scopes provide access to:
//   - Google Calendar: event read/write and calendar read-only
//   - User info: email address and basic profile
//   - OpenID Connect
var DefaultOAuthScopes = []string{
	// Google Calendar scopes
	"https://www.googleapis.com/auth/calendar.events",
	"https://www.googleapis.com/auth/calendar.readonly",

	// User info scopes
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",

	// OpenID Connect scope
	"openid",
}
