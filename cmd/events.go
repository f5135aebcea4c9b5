package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/calrelay/internal/calendar"
	"github.com/teemow/calrelay/internal/google"
)

// EnvAccessToken supplies --access-token to the events command.
const EnvAccessToken = "GOOGLE_ACCESS_TOKEN"

func newEventsCmd() *cobra.Command {
	var (
		accessToken string
		format      string
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print this week's events of the primary calendar",
		Long: `Print the events of the current week (Sunday 00:00 to the next Sunday
00:00, local time) on the primary calendar of the account the access token
belongs to. Only the access token is needed; client credentials are not.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if accessToken == "" {
				accessToken = os.Getenv(EnvAccessToken)
			}
			if accessToken == "" {
				return fmt.Errorf("--access-token or %s is required", EnvAccessToken)
			}

			resolver, err := loadResolver(globalConfig)
			if err != nil {
				return err
			}
			// Credentials are irrelevant for a bearer token call, so a
			// partial configuration is fine here.
			cfg, _ := resolver.Google()

			return printWeek(cmd, cfg, accessToken, format, time.Now())
		},
	}

	cmd.Flags().StringVar(&accessToken, "access-token", "", "Google OAuth access token. Can also use GOOGLE_ACCESS_TOKEN env var.")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or ics")

	return cmd
}

func printWeek(cmd *cobra.Command, cfg google.Config, accessToken, format string, now time.Time) error {
	if format != "json" && format != "ics" {
		return fmt.Errorf("unsupported format %q (supported: json, ics)", format)
	}

	window := calendar.CurrentWeek(now)
	events, err := calendar.ListEventsInWindow(cmd.Context(), cfg, accessToken, window)
	if err != nil {
		return err
	}

	return writeEvents(cmd.OutOrStdout(), events, format, now)
}

func writeEvents(w io.Writer, events []calendar.CalendarEvent, format string, now time.Time) error {
	if format == "ics" {
		_, err := io.WriteString(w, calendar.ToICS(events, now))
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Events []calendar.CalendarEvent `json:"events"`
	}{Events: events})
}
