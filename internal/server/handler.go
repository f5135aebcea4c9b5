package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/teemow/calrelay/internal/calendar"
	"github.com/teemow/calrelay/internal/instrumentation"
	"github.com/teemow/calrelay/internal/logging"
)

// Error bodies and redirect error codes returned to clients.
const (
	ErrMsgAuthURL        = "Failed to generate auth URL"
	ErrMsgTokenRequired  = "Access token is required"
	ErrMsgFetchEvents    = "Failed to fetch calendar events"
	ErrCodeMissingCode   = "missing_code"
	ErrCodeExchangeError = "token_exchange_failed"
)

// Options configures a Handler.
type Options struct {
	Provider Provider

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Metrics, Audit and Health are optional.
	Metrics *instrumentation.Metrics
	Audit   *instrumentation.AuditLogger
	Health  *HealthChecker

	// Now defaults to time.Now. The week window is computed in its location.
	Now func() time.Time
}

// Handler serves the relay endpoints, the frontend views and the health
// endpoints.
type Handler struct {
	provider Provider
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
	audit    *instrumentation.AuditLogger
	views    *views
	now      func() time.Time

	root http.Handler
}

// NewHandler creates a Handler. It fails only if the embedded templates
// cannot be parsed.
func NewHandler(opts Options) (*Handler, error) {
	if opts.Provider == nil {
		return nil, errors.New("provider is required")
	}

	v, err := newViews()
	if err != nil {
		return nil, err
	}

	h := &Handler{
		provider: opts.Provider,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		audit:    opts.Audit,
		views:    v,
		now:      opts.Now,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.metrics == nil {
		h.metrics = &instrumentation.Metrics{}
	}
	if h.now == nil {
		h.now = time.Now
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/google", h.handleInitiateAuth)
	mux.HandleFunc("GET /api/auth/callback", h.handleCallback)
	mux.HandleFunc("GET /api/calendar", h.handleListEvents)
	mux.HandleFunc("GET /api/calendar/ics", h.handleExportICS)
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("GET /calendar", h.handleCalendarView)
	mux.Handle("GET /static/", v.static)
	if opts.Health != nil {
		opts.Health.RegisterHealthEndpoints(mux)
	}

	h.root = withRequestContext(withSecurityHeaders(mux), h.logger, h.metrics)
	return h, nil
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.root.ServeHTTP(w, r)
}

// handleInitiateAuth redirects the browser to the provider consent screen.
func (h *Handler) handleInitiateAuth(w http.ResponseWriter, r *http.Request) {
	ctx, span := instrumentation.StartRouteSpan(r.Context(), "initiate_auth")
	defer span.End()
	logger := logging.WithOperation(logging.FromContext(ctx, h.logger), "auth.initiate")
	event := instrumentation.NewAuthEvent(instrumentation.AuditActionAuthorize).WithContext(ctx)

	authURL, err := h.provider.AuthCodeURL(ctx)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		logger.Error("failed to generate auth URL", logging.Status(logging.StatusError), logging.Err(err))
		h.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthStepAuthorize, instrumentation.OAuthResultFailure)
		h.audit.Log(event.Complete(false, err))
		writeJSONError(w, http.StatusInternalServerError, ErrMsgAuthURL)
		return
	}

	h.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthStepAuthorize, instrumentation.OAuthResultSuccess)
	h.audit.Log(event.Complete(true, nil))
	logger.Debug("redirecting to consent screen", logging.Status(logging.StatusSuccess))
	http.Redirect(w, r, authURL, http.StatusFound)
}

// handleCallback completes the authorization. It always redirects to the
// frontend root, carrying either the tokens or an error code.
func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx, span := instrumentation.StartRouteSpan(r.Context(), "handle_callback")
	defer span.End()
	logger := logging.WithOperation(logging.FromContext(ctx, h.logger), "auth.callback")
	event := instrumentation.NewAuthEvent(instrumentation.AuditActionCallback).WithContext(ctx)

	root := h.frontendRoot()
	q := r.URL.Query()

	fail := func(result, code string, err error) {
		if err != nil {
			instrumentation.SetSpanError(span, err)
		}
		h.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthStepCallback, result)
		h.audit.Log(event.WithReason(code).Complete(false, err))
		http.Redirect(w, r, errorRedirect(root, code), http.StatusFound)
	}

	if providerErr := q.Get("error"); providerErr != "" {
		logger.Info("provider returned an error", slog.String("reason", providerErr))
		fail(instrumentation.OAuthResultDenied, providerErr, nil)
		return
	}

	code := q.Get("code")
	if code == "" {
		logger.Info("callback without authorization code")
		fail(instrumentation.OAuthResultMissingCode, ErrCodeMissingCode, nil)
		return
	}

	tokens, err := h.provider.Exchange(ctx, code)
	if err != nil {
		logger.Error("token exchange failed", logging.Status(logging.StatusError), logging.Err(err))
		fail(instrumentation.OAuthResultFailure, ErrCodeExchangeError, err)
		return
	}

	h.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthStepCallback, instrumentation.OAuthResultSuccess)
	h.audit.Log(event.Complete(true, nil))
	logger.Info("authorization completed",
		logging.Status(logging.StatusSuccess),
		slog.String("access_token", logging.SanitizeToken(tokens.AccessToken)),
		slog.Bool("refresh_token", tokens.RefreshToken != ""))

	params := url.Values{}
	params.Set("access_token", tokens.AccessToken)
	params.Set("expires_in", tokens.ExpiryMillis())
	params.Set("refresh_token", tokens.RefreshToken)
	http.Redirect(w, r, root+"/?"+params.Encode(), http.StatusFound)
}

// handleListEvents returns the current week's events as JSON.
func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	ctx, span := instrumentation.StartRouteSpan(r.Context(), "list_events")
	defer span.End()

	token := r.URL.Query().Get("access_token")
	if token == "" {
		writeJSONError(w, http.StatusBadRequest, ErrMsgTokenRequired)
		return
	}

	events, err := h.listWeek(r.WithContext(ctx))
	if err != nil {
		instrumentation.SetSpanError(span, err)
		writeJSONError(w, http.StatusInternalServerError, ErrMsgFetchEvents)
		return
	}

	writeJSON(w, http.StatusOK, eventsResponse{Events: events})
}

// handleExportICS returns the current week's events as an iCalendar file.
func (h *Handler) handleExportICS(w http.ResponseWriter, r *http.Request) {
	ctx, span := instrumentation.StartRouteSpan(r.Context(), "export_ics")
	defer span.End()

	if r.URL.Query().Get("access_token") == "" {
		writeJSONError(w, http.StatusBadRequest, ErrMsgTokenRequired)
		return
	}

	events, err := h.listWeek(r.WithContext(ctx))
	if err != nil {
		instrumentation.SetSpanError(span, err)
		writeJSONError(w, http.StatusInternalServerError, ErrMsgFetchEvents)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="week.ics"`)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(calendar.ToICS(events, h.now())))
}

// listWeek lists the events of the week containing h.now() with the
// request's access token. Failures are logged here and never exposed.
func (h *Handler) listWeek(r *http.Request) ([]calendar.CalendarEvent, error) {
	ctx := r.Context()
	logger := logging.WithOperation(logging.FromContext(ctx, h.logger), "calendar.list")
	event := instrumentation.NewAuthEvent(instrumentation.AuditActionListEvents).WithContext(ctx)

	window := calendar.CurrentWeek(h.now())
	events, err := h.provider.ListEvents(ctx, r.URL.Query().Get("access_token"), window)
	if err != nil {
		logger.Error("failed to list calendar events",
			logging.Status(logging.StatusError),
			slog.Time("window_start", window.Start),
			logging.Err(err))
		h.audit.Log(event.Complete(false, err))
		return nil, err
	}
	if events == nil {
		events = []calendar.CalendarEvent{}
	}

	h.audit.Log(event.Complete(true, nil))
	logger.Debug("listed calendar events",
		logging.Status(logging.StatusSuccess),
		slog.Int("count", len(events)),
		slog.Time("window_start", window.Start))
	return events, nil
}

// handleIndex renders the landing page.
func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx, span := instrumentation.StartRouteSpan(r.Context(), "index_view")
	defer span.End()
	logger := logging.WithOperation(logging.FromContext(ctx, h.logger), "view.index")

	q := r.URL.Query()
	tokens := tokenParamsFromQuery(q)
	page := indexPage{
		Error:       q.Get("error"),
		Tokens:      tokens,
		Expiry:      formatExpiry(tokens.ExpiresIn, h.now().Location()),
		CalendarURL: tokens.link("/calendar"),
		StorageKey:  SessionStorageKey,
	}

	if page.Error == "" && tokens.AccessToken != "" {
		event := instrumentation.NewAuthEvent(instrumentation.AuditActionUserInfo).WithContext(ctx)
		info, err := h.provider.UserInfo(ctx, tokens.AccessToken)
		if err != nil {
			logger.Debug("user info lookup failed", logging.Err(err))
			h.audit.Log(event.Complete(false, err))
		} else {
			page.User = info
			logger.Debug("user info loaded", logging.UserHash(info.Email))
			h.audit.Log(event.WithUser(info.Email).Complete(true, nil))
		}
	}

	if err := h.views.render(w, http.StatusOK, "index", page); err != nil {
		logger.Error("failed to render page", logging.Err(err))
	}
}

// handleCalendarView renders the weekly calendar page.
func (h *Handler) handleCalendarView(w http.ResponseWriter, r *http.Request) {
	ctx, span := instrumentation.StartRouteSpan(r.Context(), "calendar_view")
	defer span.End()
	logger := logging.WithOperation(logging.FromContext(ctx, h.logger), "view.calendar")

	tokens := tokenParamsFromQuery(r.URL.Query())
	page := calendarPage{
		Tokens:     tokens,
		BackURL:    tokens.link("/"),
		StorageKey: SessionStorageKey,
	}

	status := http.StatusOK
	if tokens.AccessToken != "" {
		events, err := h.listWeek(r.WithContext(ctx))
		if err != nil {
			instrumentation.SetSpanError(span, err)
			page.Error = ErrMsgFetchEvents
			status = http.StatusInternalServerError
		} else {
			loc := h.now().Location()
			page.Events = make([]eventView, 0, len(events))
			for _, ev := range events {
				page.Events = append(page.Events, newEventView(ev, loc))
			}
		}
	}

	if err := h.views.render(w, status, "calendar", page); err != nil {
		logger.Error("failed to render page", logging.Err(err))
	}
}

// frontendRoot returns the configured frontend root without a trailing
// slash. It is "" when the base URL is not configured, so that redirects
// fall back to the relay's own root.
func (h *Handler) frontendRoot() string {
	cfg, err := h.provider.Config()
	root := cfg.FrontendRoot()
	if err != nil && root == "" {
		h.logger.Warn("base URL is not configured, redirecting to /", logging.Err(err))
	}
	return root
}

// errorRedirect returns the frontend root with the error code attached.
func errorRedirect(root, code string) string {
	if root == "" {
		root = "/"
	}
	return root + "?error=" + url.QueryEscape(code)
}

type eventsResponse struct {
	Events []calendar.CalendarEvent `json:"events"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// String describes the handler for startup logs.
func (h *Handler) String() string {
	cfg, err := h.provider.Config()
	if err != nil {
		return fmt.Sprintf("calrelay handler (unconfigured: %v)", err)
	}
	return "calrelay handler (" + cfg.String() + ")"
}
