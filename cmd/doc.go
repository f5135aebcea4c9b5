// Package cmd implements the command-line interface for calrelay.
//
// This package provides the following commands:
//   - serve: Start the relay (default when no subcommand is given)
//   - auth-url: Print the Google consent URL for the configured client
//   - events: Print this week's events for an access token as JSON or iCalendar
//   - version: Display version information
//
// Google client settings are shared by all commands and resolved from flags,
// the environment, a .env file and an optional config file, in that order.
package cmd
