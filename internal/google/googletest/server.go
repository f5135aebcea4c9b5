// Package googletest provides a fake Google server for testing the relay.
// It implements the OAuth2 token endpoint, the OpenID userinfo endpoint and a
// read-only subset of the Calendar API v3 events endpoint.
//
// Example usage:
//
//	srv := googletest.NewServer()
//	defer srv.Close()
//
//	srv.AddCode("good-code", googletest.Token{AccessToken: "at", RefreshToken: "rt"})
//	cfg := google.Config{
//	    ClientID:     googletest.ClientID,
//	    ClientSecret: googletest.ClientSecret,
//	    BaseURL:      "http://localhost:3000",
//	    Endpoint:     srv.Endpoint(),
//	    APIBaseURL:   srv.URL,
//	}
package googletest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
)

// Credentials accepted by the fake token endpoint.
const (
	ClientID     = "test-client-id"
	ClientSecret = "test-client-secret"
)

// Token is the token response issued for a registered authorization code.
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// UserInfo is the profile returned by the fake userinfo endpoint.
type UserInfo struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Server is a fake Google server backed by httptest.
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	codes         map[string]Token
	accessTokens  map[string]UserInfo
	events        map[string][]*calendar.Event // calendarID -> events
	tokenRequests int
	eventsQueries []url.Values
}

// NewServer starts a new fake Google server.
func NewServer() *Server {
	s := &Server{
		codes:        make(map[string]Token),
		accessTokens: make(map[string]UserInfo),
		events:       make(map[string][]*calendar.Event),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", s.handleToken)
	mux.HandleFunc("/oauth2/v2/userinfo", s.handleUserInfo)
	mux.HandleFunc("/calendar/v3/calendars/", s.handleEvents)

	s.Server = httptest.NewServer(mux)
	return s
}

// Endpoint returns the OAuth2 endpoint served by the fake.
func (s *Server) Endpoint() oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:   s.URL + "/auth",
		TokenURL:  s.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

// AddCode registers a single-use authorization code. The issued access token
// is accepted by the API endpoints afterwards.
func (s *Server) AddCode(code string, tok Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[code] = tok
}

// AddAccessToken registers an access token accepted by the API endpoints.
func (s *Server) AddAccessToken(token string, info UserInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessTokens[token] = info
}

// AddEvent stores an event on the given calendar. Recurring events should be
// added as their expanded instances.
func (s *Server) AddEvent(calendarID string, event *calendar.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[calendarID] = append(s.events[calendarID], event)
}

// TokenRequests returns the number of requests made to the token endpoint.
func (s *Server) TokenRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokenRequests
}

// EventsQueries returns the query strings of all events list requests.
func (s *Server) EventsQueries() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]url.Values, len(s.eventsQueries))
	copy(out, s.eventsQueries)
	return out
}

// handleToken handles POST /token for the authorization_code grant.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.tokenRequests++
	s.mu.Unlock()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if r.PostForm.Get("client_id") != ClientID || r.PostForm.Get("client_secret") != ClientSecret {
		writeOAuthError(w, http.StatusUnauthorized, "invalid_client", "The OAuth client was not found.")
		return
	}
	if r.PostForm.Get("grant_type") != "authorization_code" {
		writeOAuthError(w, http.StatusBadRequest, "unsupported_grant_type", "Invalid grant_type")
		return
	}

	code := r.PostForm.Get("code")

	s.mu.Lock()
	tok, ok := s.codes[code]
	if ok {
		delete(s.codes, code)
		s.accessTokens[tok.AccessToken] = UserInfo{}
	}
	s.mu.Unlock()

	if !ok {
		writeOAuthError(w, http.StatusBadRequest, "invalid_grant", "Bad Request")
		return
	}

	resp := map[string]interface{}{
		"access_token": tok.AccessToken,
		"token_type":   "Bearer",
	}
	if tok.RefreshToken != "" {
		resp["refresh_token"] = tok.RefreshToken
	}
	if tok.ExpiresIn > 0 {
		resp["expires_in"] = tok.ExpiresIn
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// handleUserInfo handles GET /oauth2/v2/userinfo
func (s *Server) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	info, ok := s.authorize(r)
	if !ok {
		writeAPIError(w, http.StatusUnauthorized, "Invalid Credentials")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(info)
}

// handleEvents handles GET /calendar/v3/calendars/{calendarId}/events
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/calendar/v3/calendars/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) != 2 || parts[1] != "events" {
		writeAPIError(w, http.StatusNotFound, "Not Found")
		return
	}
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	if _, ok := s.authorize(r); !ok {
		writeAPIError(w, http.StatusUnauthorized, "Invalid Credentials")
		return
	}

	calendarID, err := url.PathUnescape(parts[0])
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "Bad calendar id")
		return
	}

	query := r.URL.Query()
	s.mu.Lock()
	s.eventsQueries = append(s.eventsQueries, query)
	stored := append([]*calendar.Event(nil), s.events[calendarID]...)
	s.mu.Unlock()

	timeMin, errMin := parseQueryTime(query.Get("timeMin"))
	timeMax, errMax := parseQueryTime(query.Get("timeMax"))
	if errMin != nil || errMax != nil {
		writeAPIError(w, http.StatusBadRequest, "Bad Request")
		return
	}

	var items []*calendar.Event
	for _, evt := range stored {
		start, end := eventBounds(evt)
		if !timeMax.IsZero() && !start.Before(timeMax) {
			continue
		}
		if !timeMin.IsZero() && !end.After(timeMin) {
			continue
		}
		items = append(items, evt)
	}

	if query.Get("orderBy") == "startTime" && query.Get("singleEvents") == "true" {
		sort.SliceStable(items, func(i, j int) bool {
			si, _ := eventBounds(items[i])
			sj, _ := eventBounds(items[j])
			return si.Before(sj)
		})
	}

	resp := &calendar.Events{
		Kind:    "calendar#events",
		Summary: calendarID,
		Items:   items,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) authorize(r *http.Request) (UserInfo, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return UserInfo{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.accessTokens[token]
	return info, ok
}

func parseQueryTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, v)
}

// eventBounds returns the start and end of an event. All-day dates are
// interpreted at local midnight.
func eventBounds(evt *calendar.Event) (time.Time, time.Time) {
	return parseEventTime(evt.Start), parseEventTime(evt.End)
}

func parseEventTime(edt *calendar.EventDateTime) time.Time {
	if edt == nil {
		return time.Time{}
	}
	if edt.DateTime != "" {
		t, _ := time.Parse(time.RFC3339, edt.DateTime)
		return t
	}
	t, _ := time.ParseInLocation("2006-01-02", edt.Date, time.Local)
	return t
}

func writeOAuthError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             code,
		"error_description": description,
	})
}

func writeAPIError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":{"code":%d,"message":%q}}`, status, message)
}
