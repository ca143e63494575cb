package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskcollab/internal/config"
	"taskcollab/internal/store"
)

func newMigrateCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect SQLite schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Store != config.StoreSQLite {
				return fmt.Errorf("migrate requires the sqlite store (store is %q)", cfg.Store)
			}
			if !dryRun {
				st, err := store.Open(cfg.DBPath)
				if err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				if err := st.Close(); err != nil {
					return err
				}
			}

			status, err := store.InspectMigrations(cfg.DBPath)
			if err != nil {
				return err
			}
			return emit(opts, status, func() error { return writeMigrationStatus(status) })
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show pending migrations without applying them")
	return cmd
}

func writeMigrationStatus(status *store.MigrationStatus) error {
	lines := []string{
		fmt.Sprintf("current version: %d", status.CurrentVersion),
		fmt.Sprintf("available version: %d", status.AvailableVersion),
	}
	if len(status.Pending) == 0 {
		lines = append(lines, "no pending migrations")
	}
	for _, m := range status.Pending {
		lines = append(lines, fmt.Sprintf("pending %d: %s", m.Version, m.Description))
	}
	return writeLines(lines)
}
