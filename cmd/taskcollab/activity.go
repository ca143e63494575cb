package main

import (
	"github.com/spf13/cobra"

	"taskcollab/internal/api"
	"taskcollab/internal/config"
)

func newActivityCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "activity <task-id>",
		Short: "Show a task's activity log, newest first",
		Args:  positional("task id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, opts, func(client *api.Client) error {
				activities, err := client.ListActivity(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return emit(opts, activities, func() error { return writeActivityList(activities) })
			})
		},
	}
}
