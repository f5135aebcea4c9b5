package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/teemow/calrelay/internal/calendar"
	"github.com/teemow/calrelay/internal/google"
)

//go:embed templates/*.html static/*
var assetsFS embed.FS

// SessionStorageKey is the browser sessionStorage key holding the access token.
const SessionStorageKey = "google_access_token"

// untitledLabel replaces an empty event title.
const untitledLabel = "無題"

var weekdaysJA = [...]string{"日", "月", "火", "水", "木", "金", "土"}

// formatDateJA renders t like "1月10日(水)".
func formatDateJA(t time.Time) string {
	return fmt.Sprintf("%d月%d日(%s)", int(t.Month()), t.Day(), weekdaysJA[t.Weekday()])
}

// formatTimeJA renders t like "09:05".
func formatTimeJA(t time.Time) string {
	return t.Format("15:04")
}

// formatExpiry renders an epoch-millisecond expiry like "2024/1/10 13:00:00".
// An empty value renders as "N/A" and an unparseable one is shown verbatim.
func formatExpiry(ms string, loc *time.Location) string {
	if ms == "" {
		return "N/A"
	}
	n, err := strconv.ParseInt(ms, 10, 64)
	if err != nil {
		return ms
	}
	return time.UnixMilli(n).In(loc).Format("2006/1/2 15:04:05")
}

// tokenParams carries the token set between the two pages.
type tokenParams struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    string
}

func tokenParamsFromQuery(q url.Values) tokenParams {
	return tokenParams{
		AccessToken:  q.Get("access_token"),
		RefreshToken: q.Get("refresh_token"),
		ExpiresIn:    q.Get("expires_in"),
	}
}

// link returns path with the non-empty token parameters appended.
func (p tokenParams) link(path string) string {
	q := url.Values{}
	if p.AccessToken != "" {
		q.Set("access_token", p.AccessToken)
	}
	if p.RefreshToken != "" {
		q.Set("refresh_token", p.RefreshToken)
	}
	if p.ExpiresIn != "" {
		q.Set("expires_in", p.ExpiresIn)
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// eventView is one rendered row of the weekly calendar.
type eventView struct {
	Title       string
	AllDay      bool
	Date        string
	Start       string
	End         string
	Description string
}

func newEventView(ev calendar.CalendarEvent, loc *time.Location) eventView {
	v := eventView{
		Title:       ev.Title,
		AllDay:      ev.IsAllDay,
		Description: ev.Description,
	}
	if v.Title == "" {
		v.Title = untitledLabel
	}
	if ev.StartTime != nil {
		start := *ev.StartTime
		if !ev.IsAllDay {
			start = start.In(loc)
			v.Start = formatTimeJA(start)
		}
		v.Date = formatDateJA(start)
	}
	if ev.EndTime != nil && !ev.IsAllDay {
		v.End = formatTimeJA(ev.EndTime.In(loc))
	}
	return v
}

// indexPage is the data for the landing page.
type indexPage struct {
	Error       string
	Tokens      tokenParams
	Expiry      string
	User        *google.UserInfo
	CalendarURL string
	StorageKey  string
}

// calendarPage is the data for the weekly calendar page.
type calendarPage struct {
	Tokens     tokenParams
	Events     []eventView
	Error      string
	BackURL    string
	StorageKey string
}

// views renders the embedded HTML templates.
type views struct {
	templates *template.Template
	static    http.Handler
}

func newViews() (*views, error) {
	tmpl, err := template.New("").ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	static, err := fs.Sub(assetsFS, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to open static assets: %w", err)
	}

	return &views{
		templates: tmpl,
		static:    http.StripPrefix("/static/", http.FileServerFS(static)),
	}, nil
}

// render executes the named template into a buffer first so that template
// errors never produce a partially written page.
func (v *views) render(w http.ResponseWriter, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := v.templates.ExecuteTemplate(&buf, name, data); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return fmt.Errorf("failed to render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
