package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"taskcollab/internal/api"
	"taskcollab/internal/config"
)

func newProjectsCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage your projects",
	}
	cmd.AddCommand(
		newProjectListCmd(cfg, opts),
		newProjectCreateCmd(cfg, opts),
		newProjectUpdateCmd(cfg, opts),
		newProjectDeleteCmd(cfg, opts),
	)
	return cmd
}

func newProjectListCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects with task counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, opts, func(client *api.Client) error {
				projects, err := client.ListProjects(cmd.Context())
				if err != nil {
					return err
				}
				return emit(opts, projects, func() error { return writeProjectList(projects) })
			})
		},
	}
}

func newProjectCreateCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	var color string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  positionalAtLeast("project name"),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.ProjectRequest{Name: strings.Join(args, " "), Color: color}
			return withClient(cfg, opts, func(client *api.Client) error {
				project, err := client.CreateProject(cmd.Context(), req)
				if err != nil {
					return err
				}
				return emit(opts, project, func() error { return writePlain("%s\n", project.ID) })
			})
		},
	}
	cmd.Flags().StringVar(&color, "color", "", "hex colour such as #3B82F6")
	return cmd
}

func newProjectUpdateCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	var name, color string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename or recolour a project",
		Args:  positional("project id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.ProjectRequest{Name: strings.TrimSpace(name), Color: strings.TrimSpace(color)}
			if req == (api.ProjectRequest{}) {
				return errors.New("no fields to update")
			}
			return withClient(cfg, opts, func(client *api.Client) error {
				project, err := client.UpdateProject(cmd.Context(), args[0], req)
				if err != nil {
					return err
				}
				return emit(opts, project, func() error {
					return writePlain("%s %s %s\n", project.ID, project.Color, project.Name)
				})
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&color, "color", "", "new hex colour")
	return cmd
}

func newProjectDeleteCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project and its tasks",
		Args:  positional("project id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, opts, func(client *api.Client) error {
				resp, err := client.DeleteProject(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return emit(opts, resp, func() error {
					return writePlain("%s (%d tasks removed)\n", resp.ID, resp.TasksRemoved)
				})
			})
		},
	}
}
