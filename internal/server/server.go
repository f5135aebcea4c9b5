package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// DefaultHTTPAddr is the default address of the relay listener.
const DefaultHTTPAddr = ":8080"

// DefaultShutdownTimeout bounds the graceful shutdown of the relay.
const DefaultShutdownTimeout = 30 * time.Second

// listener wraps an http.Server that reports the bound address once it is
// accepting connections. It backs both the relay and the metrics server.
type listener struct {
	name       string
	logger     *slog.Logger
	httpServer *http.Server

	mu   sync.Mutex
	addr net.Addr
}

func (l *listener) log() *slog.Logger {
	if l.logger != nil {
		return l.logger
	}
	return slog.Default()
}

// StartWithReadySignal listens and serves until the server is shut down,
// closing ready once the listener is bound. It returns http.ErrServerClosed
// after a graceful shutdown.
func (l *listener) StartWithReadySignal(ready chan<- struct{}) error {
	ln, err := net.Listen("tcp", l.httpServer.Addr)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.addr = ln.Addr()
	l.mu.Unlock()

	l.log().Info("starting "+l.name, slog.String("addr", ln.Addr().String()))
	if ready != nil {
		close(ready)
	}
	return l.httpServer.Serve(ln)
}

// Addr returns the bound address once started, else the configured one.
func (l *listener) Addr() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.addr != nil {
		return l.addr.String()
	}
	return l.httpServer.Addr
}

func (l *listener) shutdown(ctx context.Context) error {
	l.log().Info("shutting down " + l.name)
	return l.httpServer.Shutdown(ctx)
}

// Config configures the relay Server.
type Config struct {
	Addr    string
	Handler http.Handler
	Health  *HealthChecker
	Logger  *slog.Logger
}

// Server is the relay HTTP listener.
type Server struct {
	listener
	health *HealthChecker
}

// New creates a relay Server. Timeouts follow the settings used for all
// calrelay listeners.
func New(config Config) *Server {
	if config.Addr == "" {
		config.Addr = DefaultHTTPAddr
	}
	s := &Server{health: config.Health}
	s.name = "calrelay"
	s.logger = config.Logger
	s.httpServer = &http.Server{
		Addr:              config.Addr,
		Handler:           config.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		// Handlers make at most one outbound provider call.
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Shutdown marks the server as draining, then waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.SetShuttingDown()
	return s.shutdown(ctx)
}

// Run starts the server and shuts it down gracefully when ctx is done.
// The health checker reports not ready until the listener is bound; ready,
// if not nil, is closed at that point.
func (s *Server) Run(ctx context.Context, ready chan<- struct{}) error {
	s.health.SetReady(false)

	bound := make(chan struct{})
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.StartWithReadySignal(bound)
	}()

serve:
	for {
		select {
		case <-bound:
			bound = nil
			s.health.SetReady(true)
			if ready != nil {
				close(ready)
			}
		case err := <-errCh:
			return err
		case <-ctx.Done():
			break serve
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
