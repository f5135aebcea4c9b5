package cmd

import (
	"github.com/spf13/cobra"

	"github.com/teemow/calrelay/internal/config"
)

// configOptions holds the flags shared by all commands.
type configOptions struct {
	configFile   string
	envFile      string
	clientID     string
	clientSecret string
	baseURL      string
}

var globalConfig configOptions

func addConfigFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&globalConfig.configFile, "config", "", "Path to a TOML or YAML config file. Defaults to $XDG_CONFIG_HOME/calrelay/config.{toml,yaml,yml} when present.")
	flags.StringVar(&globalConfig.envFile, "env-file", ".env", "Path to a .env file loaded into the environment when present. Existing variables are not overridden.")
	flags.StringVar(&globalConfig.clientID, "google-client-id", "", "Google OAuth client ID. Can also use GOOGLE_CLIENT_ID env var.")
	flags.StringVar(&globalConfig.clientSecret, "google-client-secret", "", "Google OAuth client secret. Can also use GOOGLE_CLIENT_SECRET env var.")
	flags.StringVar(&globalConfig.baseURL, "base-url", "", "Public frontend base URL, e.g. https://cal.example.com. Can also use BASE_URL or NEXTAUTH_URL env vars.")
}

// loadResolver loads the .env file and the config file and returns a resolver
// for the given options. A missing default config file is not an error.
func loadResolver(opts configOptions) (config.Resolver, error) {
	if err := config.LoadEnvFile(opts.envFile); err != nil {
		return config.Resolver{}, err
	}

	path := opts.configFile
	if path == "" {
		path = config.DefaultFilePath()
	}

	var file *config.File
	if path != "" {
		f, err := config.LoadFile(path)
		if err != nil {
			return config.Resolver{}, err
		}
		file = f
	}

	return config.Resolver{
		Flags: config.Flags{
			ClientID:     opts.clientID,
			ClientSecret: opts.clientSecret,
			BaseURL:      opts.baseURL,
		},
		File: file,
	}, nil
}
