package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the calrelay application
var rootCmd = &cobra.Command{
	Use:   "calrelay",
	Short: "Relays Google OAuth2 and this week's Google Calendar events to a browser",
	Long: `calrelay is a small web relay in front of Google's OAuth2 and Calendar APIs.

It starts the Google consent flow, exchanges the authorization code for
tokens, hands the tokens to the browser and lists the current week's events
of the primary calendar for a given access token. It keeps no sessions and
stores no tokens.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "calrelay version %s\n" .Version}}`)

	// If no subcommand is provided, run the relay
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	addConfigFlags(rootCmd)
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthURLCmd())
	rootCmd.AddCommand(newEventsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
