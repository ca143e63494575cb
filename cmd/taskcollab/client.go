package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"time"

	"taskcollab/internal/api"
	"taskcollab/internal/config"
)

const (
	probeTimeout       = 500 * time.Millisecond
	serverStartTimeout = 3 * time.Second
	serverPollInterval = 100 * time.Millisecond
)

// localServer is a `taskcollab srv` child process started on behalf of one command.
type localServer struct {
	cmd *exec.Cmd
}

func (l *localServer) stop() {
	if l == nil {
		return
	}
	_ = l.cmd.Process.Kill()
	_ = l.cmd.Wait()
}

// withClient runs fn with an API client, starting a local server first when
// none answers and a signing secret is configured.
func withClient(cfg *config.Config, opts *cliOptions, fn func(*api.Client) error) error {
	srv, err := ensureServer(cfg)
	if err != nil {
		return err
	}
	defer srv.stop()

	return fn(newAPIClient(cfg, opts))
}

func newAPIClient(cfg *config.Config, opts *cliOptions) *api.Client {
	client := api.NewClient(cfg.APIURL)
	if opts != nil && opts.token != "" {
		client.SetToken(opts.token)
	}
	return client
}

// ensureServer returns nil when a server already answers or auto-start is
// not possible. Memory stores are never auto-started since their data would
// vanish with the child process.
func ensureServer(cfg *config.Config) (*localServer, error) {
	probe := api.NewClient(cfg.APIURL)
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	err := probe.Ping(ctx)
	cancel()
	if err == nil || cfg.Auth.JWTSecret == "" || cfg.Store == config.StoreMemory {
		return nil, nil
	}

	srv, err := spawnServer(cfg)
	if err != nil {
		return nil, fmt.Errorf("start local server: %w", err)
	}
	slog.Debug("started local server", "api_url", cfg.APIURL, "pid", srv.cmd.Process.Pid)

	ctx, cancel = context.WithTimeout(context.Background(), serverStartTimeout)
	defer cancel()
	if err := awaitServer(ctx, probe); err != nil {
		srv.stop()
		return nil, err
	}
	return srv, nil
}

func spawnServer(cfg *config.Config) (*localServer, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(exe, "srv")
	cmd.Env = append(os.Environ(),
		"TASKCOLLAB_DB="+cfg.DBPath,
		"TASKCOLLAB_API_URL="+cfg.APIURL,
		"TASKCOLLAB_STORE="+cfg.Store,
	)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &localServer{cmd: cmd}, nil
}

// awaitServer polls until the server answers. Anything other than a dial
// failure means the port belongs to something else and is returned as is.
func awaitServer(ctx context.Context, client *api.Client) error {
	ticker := time.NewTicker(serverPollInterval)
	defer ticker.Stop()

	for {
		err := client.Ping(ctx)
		if err == nil {
			return nil
		}
		var opErr *net.OpError
		if !errors.As(err, &opErr) && ctx.Err() == nil {
			return err
		}

		select {
		case <-ctx.Done():
			return errors.New("server did not start in time")
		case <-ticker.C:
		}
	}
}
