package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"taskcollab/internal/authn"
	"taskcollab/internal/blobstore"
	"taskcollab/internal/collab"
	"taskcollab/internal/config"
	"taskcollab/internal/notify"
	"taskcollab/internal/server"
	"taskcollab/internal/store"
	"taskcollab/internal/tasks"
)

func newSrvCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "srv",
		Short: "Run the taskcollab API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg == nil {
				return fmt.Errorf("config not initialized")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}
}

const blobDirSuffix = "-blobs"

func runServer(ctx context.Context, cfg *config.Config) error {
	logger := slog.Default().With("component", "server")

	addr, err := server.ListenAddr(cfg.APIURL)
	if err != nil {
		return err
	}
	signer, err := authn.NewSigner(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL.Duration)
	if err != nil {
		return fmt.Errorf("%w (set auth.jwt_secret or TASKCOLLAB_JWT_SECRET)", err)
	}

	st, blobs, err := openBackend(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	hub := notify.NewHub(0)
	collabSvc := collab.NewService(st,
		collab.WithPublisher(hub),
		collab.WithInvitationTTL(cfg.Invitations.TTL.Duration),
		collab.WithBlobStore(blobs),
	)
	taskSvc := tasks.NewService(st, collabSvc)

	srv, err := server.New(server.Config{
		Addr:           addr,
		StoreKind:      cfg.Store,
		Version:        version,
		Collab:         collabSvc,
		Tasks:          taskSvc,
		Hub:            hub,
		Signer:         signer,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		SweepInterval:  cfg.Invitations.SweepInterval.Duration,
		Logger:         logger,
	})
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx)
}

// openBackend opens the record store and the blob store for attachment
// bytes. SQLite keeps blobs in a directory next to the database file.
func openBackend(cfg *config.Config, logger *slog.Logger) (store.Backend, blobstore.Store, error) {
	switch cfg.Store {
	case config.StoreMemory:
		logger.Warn("using in-memory store; data is lost on exit")
		return store.NewMemoryStore(), blobstore.NewMemory(), nil
	default:
		if cfg.DBPath == "" {
			return nil, nil, fmt.Errorf("db path is required")
		}
		blobs, err := blobstore.NewLocalCAS(cfg.DBPath + blobDirSuffix)
		if err != nil {
			return nil, nil, fmt.Errorf("open blob store: %w", err)
		}
		logger.Info("opening database", "path", cfg.DBPath)
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return st, blobs, nil
	}
}
