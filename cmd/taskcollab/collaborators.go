package main

import (
	"github.com/spf13/cobra"

	"taskcollab/internal/api"
	"taskcollab/internal/config"
	"taskcollab/internal/models"
)

func newCollaboratorsCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collaborators",
		Short: "Inspect and manage who works on a task",
	}
	cmd.AddCommand(
		newCollaboratorListCmd(cfg, opts),
		newCollaboratorRoleCmd(cfg, opts),
		newCollaboratorRemoveCmd(cfg, opts),
		newPermissionsCmd(cfg, opts),
	)
	return cmd
}

func newCollaboratorListCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <task-id>",
		Short: "List a task's collaborators",
		Args:  positional("task id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, opts, func(client *api.Client) error {
				collaborators, err := client.ListCollaborators(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return emit(opts, collaborators, func() error { return writeCollaboratorList(collaborators) })
			})
		},
	}
}

func newCollaboratorRoleCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "role <task-id> <collaborator-id> <role>",
		Short: "Change a collaborator's role",
		Args:  positional("task id", "collaborator id", "role"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, opts, func(client *api.Client) error {
				c, err := client.UpdateCollaboratorRole(cmd.Context(), args[0], args[1], api.RoleUpdateRequest{Role: args[2]})
				if err != nil {
					return err
				}
				return emit(opts, c, func() error { return writeCollaboratorList([]models.Collaborator{c}) })
			})
		},
	}
}

func newCollaboratorRemoveCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <task-id> <collaborator-id>",
		Short: "Remove a collaborator from a task",
		Args:  positional("task id", "collaborator id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, opts, func(client *api.Client) error {
				if err := client.RemoveCollaborator(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				return emit(opts, map[string]string{"removed": args[1]}, func() error {
					return writePlain("%s\n", args[1])
				})
			})
		},
	}
}

func newPermissionsCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "permissions <task-id>",
		Short: "Show what you may do on a task",
		Args:  positional("task id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, opts, func(client *api.Client) error {
				perms, err := client.TaskPermissions(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return emit(opts, perms, func() error { return writePlain("%s\n", formatPermissions(perms)) })
			})
		},
	}
}
