package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/calrelay/internal/config"
	"github.com/teemow/calrelay/internal/instrumentation"
	"github.com/teemow/calrelay/internal/logging"
	"github.com/teemow/calrelay/internal/server"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

// serveOptions holds the resolved settings of the serve command.
type serveOptions struct {
	debug    bool
	httpAddr string
	metrics  MetricsConfig
}

func newServeCmd() *cobra.Command {
	var (
		debugMode      bool
		httpAddr       string
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the relay",
		Long: `Start the HTTP relay.

Endpoints:
  GET /api/auth/google     redirect to the Google consent screen
  GET /api/auth/callback   exchange the code and redirect to the frontend
  GET /api/calendar        this week's events as JSON (?access_token=)
  GET /api/calendar/ics    this week's events as iCalendar (?access_token=)
  GET /, GET /calendar     the built-in frontend
  GET /healthz, /readyz    health probes

Provider configuration:
  --google-client-id, --google-client-secret and --base-url, or the
  GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and BASE_URL env vars, or the
  config file. The relay starts without them; requests that need them
  fail until they are provided.

The redirect URI registered with Google must be <base-url>/api/auth/callback.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, err := loadResolver(globalConfig)
			if err != nil {
				return err
			}

			opts := resolveServeOptions(cmd, resolver, serveOptions{
				debug:    debugMode,
				httpAddr: httpAddr,
				metrics: MetricsConfig{
					Enabled: metricsEnabled,
					Addr:    metricsAddr,
				},
			})

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return runServe(ctx, resolver, opts)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging. Can also use DEBUG env var.")
	cmd.Flags().StringVar(&httpAddr, "http-addr", "", "HTTP server address (default \":8080\"). Can also use HTTP_ADDR env var.")

	// Metrics server flags
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Metrics server address (default \":9090\"). Can also use METRICS_ADDR env var.")

	return cmd
}

// resolveServeOptions applies the environment and the config file to flag
// values. Environment variables only override flags that were not set.
func resolveServeOptions(cmd *cobra.Command, resolver config.Resolver, opts serveOptions) serveOptions {
	file := config.File{}
	if resolver.File != nil {
		file = *resolver.File
	}

	opts.debug = resolver.Bool(opts.debug, config.EnvDebug, file.Debug)
	opts.httpAddr = resolver.String(opts.httpAddr, config.EnvHTTPAddr, file.HTTPAddr)
	if opts.httpAddr == "" {
		opts.httpAddr = server.DefaultHTTPAddr
	}

	opts.metrics.Addr = resolver.String(opts.metrics.Addr, config.EnvMetricsAddr, file.MetricsAddr)
	if opts.metrics.Addr == "" {
		opts.metrics.Addr = server.DefaultMetricsAddr
	}

	if !cmd.Flags().Changed("metrics-enabled") {
		getenv := resolver.Getenv
		if getenv == nil {
			getenv = os.Getenv
		}
		if envVal := getenv(config.EnvMetricsEnabled); envVal != "" {
			if parsed, err := strconv.ParseBool(envVal); err == nil {
				opts.metrics.Enabled = parsed
			} else {
				slog.Warn("invalid METRICS_ENABLED value, keeping default",
					slog.String("value", envVal), slog.Bool("default", opts.metrics.Enabled))
			}
		}
	}

	return opts
}

func runServe(ctx context.Context, resolver config.Resolver, opts serveOptions) error {
	logger := logging.New(os.Stderr, opts.debug)
	slog.SetDefault(logger)

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Error("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	// Start metrics server if enabled and the exporter is scraped.
	var metricsServer *server.MetricsServer
	switch {
	case !opts.metrics.Enabled || !provider.Enabled():
	case provider.PrometheusHandler() == nil:
		logger.Info("metrics are pushed by the exporter, /metrics is not served",
			slog.String("exporter", instrConfig.MetricsExporter))
	default:
		metricsServer, err = startMetricsServer(opts.metrics, provider, logger)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("error during metrics server shutdown", logging.Err(err))
			}
		}()
	}

	var audit *instrumentation.AuditLogger
	if instrConfig.AuditLogging.Enabled {
		audit = instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging)
	}

	health := server.NewHealthChecker(resolver.Google, version)
	handler, err := server.NewHandler(server.Options{
		Provider: server.NewGoogleProvider(resolver.Google, provider.Metrics()),
		Logger:   logger,
		Metrics:  provider.Metrics(),
		Audit:    audit,
		Health:   health,
	})
	if err != nil {
		return fmt.Errorf("failed to create handler: %w", err)
	}

	if cfg, err := resolver.Google(); err != nil {
		logger.Warn("google provider is not fully configured, affected requests will fail until it is",
			logging.Err(err))
	} else {
		logger.Info("google provider configured",
			slog.String("base_url", cfg.FrontendRoot()),
			slog.String("redirect_uri", cfg.RedirectURL()))
	}
	logger.Debug("handler ready", slog.String("handler", handler.String()))

	srv := server.New(server.Config{
		Addr:    opts.httpAddr,
		Handler: handler,
		Health:  health,
		Logger:  logger,
	})
	if err := srv.Run(ctx, nil); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server stopped with error: %w", err)
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}

// startMetricsServer starts the metrics server and waits until it listens.
func startMetricsServer(cfg MetricsConfig, provider *instrumentation.Provider, logger *slog.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    cfg.Addr,
		InstrumentationProvider: provider,
		Logger:                  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	// Use ready channel to confirm metrics server started successfully
	metricsReady := make(chan struct{})
	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && !errors.Is(err, http.ErrServerClosed) {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	// Wait for metrics server to be ready or fail
	select {
	case <-metricsReady:
		return metricsServer, nil
	case err := <-metricsErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}
