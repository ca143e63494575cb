package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"taskcollab/internal/authn"
	"taskcollab/internal/collab"
	"taskcollab/internal/notify"
	"taskcollab/internal/tasks"
)

const (
	allowRemoteEnvKey     = "TASKCOLLAB_ALLOW_REMOTE"
	readHeaderTimeout     = 5 * time.Second
	readTimeout           = 30 * time.Second
	idleTimeout           = 60 * time.Second
	shutdownTimeout       = 10 * time.Second
	streamConcurrency     = 64
	streamKeepAlivePeriod = 25 * time.Second
)

// Config wires the services behind the HTTP API.
type Config struct {
	Addr           string
	StoreKind      string
	Version        string
	Collab         *collab.Service
	Tasks          *tasks.Service
	Hub            *notify.Hub
	Signer         *authn.Signer
	AllowedOrigins []string
	SweepInterval  time.Duration
	Logger         *slog.Logger
}

// Server wraps HTTP handlers for the taskcollab API.
type Server struct {
	addr           string
	storeKind      string
	version        string
	collab         *collab.Service
	tasks          *tasks.Service
	hub            *notify.Hub
	signer         *authn.Signer
	allowedOrigins []string
	sweepInterval  time.Duration
	logger         *slog.Logger
	streamLimiter  chan struct{}
	keepAlive      time.Duration
}

// New creates a new server instance.
func New(cfg Config) (*Server, error) {
	if cfg.Collab == nil || cfg.Tasks == nil {
		return nil, fmt.Errorf("collaboration and task services are required")
	}
	if cfg.Signer == nil {
		return nil, fmt.Errorf("token signer is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default().With("component", "server")
	}
	hub := cfg.Hub
	if hub == nil {
		hub = notify.NewHub(0)
	}

	return &Server{
		addr:           cfg.Addr,
		storeKind:      cfg.StoreKind,
		version:        cfg.Version,
		collab:         cfg.Collab,
		tasks:          cfg.Tasks,
		hub:            hub,
		signer:         cfg.Signer,
		allowedOrigins: cfg.AllowedOrigins,
		sweepInterval:  cfg.SweepInterval,
		logger:         logger,
		streamLimiter:  make(chan struct{}, streamConcurrency),
		keepAlive:      streamKeepAlivePeriod,
	}, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.routes()
}

// ListenAndServe starts the HTTP server and the invitation sweeper, and
// shuts both down when ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.log().Info("starting server", "addr", s.addr)
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		IdleTimeout:       idleTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.runInvitationSweeper(sweepCtx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// ListenAddr converts a base API URL into a listen address.
func ListenAddr(apiURL string) (string, error) {
	if apiURL == "" {
		return "", fmt.Errorf("api url is required")
	}
	if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
		host := u.Hostname()
		if !isAllowedListenHost(host) {
			return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
		}
		return u.Host, nil
	}

	host, _, err := net.SplitHostPort(apiURL)
	if err == nil && !isAllowedListenHost(host) {
		return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
	}

	return apiURL, nil
}

func isAllowedListenHost(host string) bool {
	if host == "" {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(allowRemoteEnvKey)), "true") {
		return true
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (s *Server) acquireLimiter(limiter chan struct{}, w http.ResponseWriter, r *http.Request, name string) bool {
	if limiter == nil {
		return true
	}
	select {
	case limiter <- struct{}{}:
		return true
	default:
		s.writeError(w, r, newHTTPError(http.StatusTooManyRequests, ErrCodeResourceExhausted,
			fmt.Errorf("too many concurrent %s requests", name)))
		return false
	}
}

func (s *Server) releaseLimiter(limiter chan struct{}) {
	if limiter == nil {
		return
	}
	select {
	case <-limiter:
	default:
	}
}

func (s *Server) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
