package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"taskcollab/internal/config"
)

// cliOptions holds the persistent flags shared by every command.
type cliOptions struct {
	jsonOutput bool
	logLevel   string
	token      string
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	opts := &cliOptions{}

	cmd := &cobra.Command{
		Use:           "taskcollab",
		Short:         "Taskcollab shares tasks with collaborators, comments, reviews and notifications",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			warning, err := configureLoggerForCLI(opts.logLevel, cfg.LogLevel)
			if err != nil {
				return err
			}
			if warning != "" {
				fmt.Fprintln(os.Stderr, warning)
			}
			return nil
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "output JSON")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.token, "token", "", "bearer token (defaults to TASKCOLLAB_TOKEN)")

	cmd.AddCommand(
		newSrvCmd(cfg),
		newMigrateCmd(cfg, opts),
		newTokenCmd(cfg),
		newConfigCmd(cfg, opts),
		newInfoCmd(cfg, opts),
		newMeCmd(cfg, opts),
		newClearDataCmd(cfg, opts),
		newTasksCmd(cfg, opts),
		newProjectsCmd(cfg, opts),
		newInvitationsCmd(cfg, opts),
		newCollaboratorsCmd(cfg, opts),
		newCommentsCmd(cfg, opts),
		newReviewsCmd(cfg, opts),
		newActivityCmd(cfg, opts),
		newNotificationsCmd(cfg, opts),
	)

	return cmd
}
