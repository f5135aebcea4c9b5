// Package config resolves calrelay settings from command-line flags, the
// environment, an optional .env file and an optional TOML or YAML config file.
//
// Precedence is flag > environment > config file. Provider credentials are
// resolved again on every call to Resolver.Google, so changes to the
// environment take effect without a restart and missing credentials are
// reported per request rather than at startup.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/teemow/calrelay/internal/google"
)

// AppName is the directory name used under the XDG config home.
const AppName = "calrelay"

// Environment variables read by the resolver.
const (
	EnvClientID       = "GOOGLE_CLIENT_ID"
	EnvClientSecret   = "GOOGLE_CLIENT_SECRET"
	EnvBaseURL        = "BASE_URL"
	EnvNextAuthURL    = "NEXTAUTH_URL"
	EnvHTTPAddr       = "HTTP_ADDR"
	EnvMetricsAddr    = "METRICS_ADDR"
	EnvMetricsEnabled = "METRICS_ENABLED"
	EnvDebug          = "DEBUG"
)

// File is the on-disk configuration. Every field is optional.
type File struct {
	GoogleClientID     string `toml:"google_client_id" yaml:"google_client_id"`
	GoogleClientSecret string `toml:"google_client_secret" yaml:"google_client_secret"`
	BaseURL            string `toml:"base_url" yaml:"base_url"`
	HTTPAddr           string `toml:"http_addr" yaml:"http_addr"`
	MetricsAddr        string `toml:"metrics_addr" yaml:"metrics_addr"`
	Debug              bool   `toml:"debug" yaml:"debug"`
}

// LoadFile reads a config file. The format is chosen by extension:
// .toml, or .yaml/.yml.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var f File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if err := toml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q (use .toml, .yaml or .yml)", ext)
	}

	return &f, nil
}

// DefaultFilePath returns the first existing config file under the XDG
// config directories, or "" when there is none.
func DefaultFilePath() string {
	for _, name := range []string{"config.toml", "config.yaml", "config.yml"} {
		if path, err := xdg.SearchConfigFile(filepath.Join(AppName, name)); err == nil {
			return path
		}
	}
	return ""
}

// LoadEnvFile loads variables from a .env file into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// Flags holds values given on the command line. Empty strings mean unset.
type Flags struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
}

// Resolver merges flags, the environment and the config file.
type Resolver struct {
	Flags Flags
	File  *File

	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

func (r Resolver) getenv(key string) string {
	if r.Getenv != nil {
		return r.Getenv(key)
	}
	return os.Getenv(key)
}

func (r Resolver) file() File {
	if r.File == nil {
		return File{}
	}
	return *r.File
}

// Google resolves the provider configuration. It returns a
// *google.ConfigurationError when credentials or the base URL are missing.
func (r Resolver) Google() (google.Config, error) {
	f := r.file()
	cfg := google.Config{
		ClientID:     firstNonEmpty(r.Flags.ClientID, r.getenv(EnvClientID), f.GoogleClientID),
		ClientSecret: firstNonEmpty(r.Flags.ClientSecret, r.getenv(EnvClientSecret), f.GoogleClientSecret),
		BaseURL: firstNonEmpty(r.Flags.BaseURL, r.getenv(EnvBaseURL), r.getenv(EnvNextAuthURL),
			f.BaseURL),
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// String returns value if set, else the environment variable, else the file value.
func (r Resolver) String(value, envKey, fileValue string) string {
	return firstNonEmpty(value, r.getenv(envKey), fileValue)
}

// Bool returns true if value is set, the environment variable parses as true
// or the file value is true.
func (r Resolver) Bool(value bool, envKey string, fileValue bool) bool {
	if value {
		return true
	}
	switch strings.ToLower(r.getenv(envKey)) {
	case "1", "true", "yes":
		return true
	}
	return fileValue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
