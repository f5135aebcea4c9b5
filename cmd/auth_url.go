package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/calrelay/internal/google"
)

func newAuthURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth-url",
		Short: "Print the Google consent URL",
		Long: `Print the Google consent URL for the configured client.

Opening the URL in a browser starts the same authorization as
GET /api/auth/google. Google redirects to <base-url>/api/auth/callback
afterwards, so a relay must be serving that URL to complete the flow.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, err := loadResolver(globalConfig)
			if err != nil {
				return err
			}

			cfg, err := resolver.Google()
			if err != nil {
				return err
			}

			authURL, err := google.AuthCodeURL(cfg)
			if err != nil {
				return fmt.Errorf("failed to generate auth URL: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), authURL)
			return err
		},
	}
}
