package main

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"taskcollab/internal/api"
	"taskcollab/internal/config"
)

type taskFieldOptions struct {
	description string
	priority    string
	status      string
	project     string
	due         string
}

func newTasksCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Create and manage tasks",
	}
	cmd.AddCommand(
		newTaskCreateCmd(cfg, opts),
		newTaskShowCmd(cfg, opts),
		newTaskUpdateCmd(cfg, opts),
		newTaskToggleCmd(cfg, opts),
		newTaskDeleteCmd(cfg, opts),
		newTaskListCmd(cfg, opts),
		newTaskStatsCmd(cfg, opts),
	)
	return cmd
}

func newTaskCreateCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	fields := &taskFieldOptions{}
	var filePath string
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildTaskCreateRequest(fields, filePath, args)
			if err != nil {
				return err
			}
			return withClient(cfg, opts, func(client *api.Client) error {
				task, err := client.CreateTask(cmd.Context(), req)
				if err != nil {
					return err
				}
				return emit(opts, task, func() error { return writePlain("%s\n", task.ID) })
			})
		},
	}
	cmd.Flags().StringVarP(&fields.description, "description", "d", "", "description")
	cmd.Flags().StringVarP(&fields.priority, "priority", "p", "", "priority (low, medium, high)")
	cmd.Flags().StringVar(&fields.status, "status", "", "status (todo, in_progress, done)")
	cmd.Flags().StringVar(&fields.project, "project", "", "project id")
	cmd.Flags().StringVar(&fields.due, "due", "", "due date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVarP(&filePath, "file", "f", "", "create from a markdown file with front matter")
	return cmd
}

func buildTaskCreateRequest(fields *taskFieldOptions, filePath string, args []string) (api.TaskCreateRequest, error) {
	if filePath != "" {
		doc, err := readMarkdownFile(filePath)
		if err != nil {
			return api.TaskCreateRequest{}, err
		}
		return taskRequestFromMarkdown(doc)
	}
	if len(args) == 0 {
		return api.TaskCreateRequest{}, errors.New("title is required")
	}
	req := api.TaskCreateRequest{
		Title:       strings.Join(args, " "),
		Description: fields.description,
		Priority:    fields.priority,
		Status:      fields.status,
		ProjectID:   fields.project,
	}
	if fields.due != "" {
		req.DueDate = &fields.due
	}
	return req, nil
}

func newTaskShowCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task",
		Args:  positional("task id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, opts, func(client *api.Client) error {
				task, err := client.GetTask(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return emit(opts, task, func() error { return writeTaskDetail(task) })
			})
		},
	}
}

func newTaskUpdateCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	fields := &taskFieldOptions{}
	var title string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update task fields",
		Args:  positional("task id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.TaskUpdateRequest{}
			flags := cmd.Flags()
			for name, target := range map[string]**string{
				"title":       &req.Title,
				"description": &req.Description,
				"priority":    &req.Priority,
				"status":      &req.Status,
				"project":     &req.ProjectID,
				"due":         &req.DueDate,
			} {
				if flags.Changed(name) {
					value, _ := flags.GetString(name)
					*target = &value
				}
			}
			if req == (api.TaskUpdateRequest{}) {
				return errors.New("no fields to update")
			}
			return withClient(cfg, opts, func(client *api.Client) error {
				task, err := client.UpdateTask(cmd.Context(), args[0], req)
				if err != nil {
					return err
				}
				return emit(opts, task, func() error { return writePlain("%s\n", formatTaskLine(task)) })
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVarP(&fields.description, "description", "d", "", "description")
	cmd.Flags().StringVarP(&fields.priority, "priority", "p", "", "priority (low, medium, high)")
	cmd.Flags().StringVar(&fields.status, "status", "", "status (todo, in_progress, done)")
	cmd.Flags().StringVar(&fields.project, "project", "", "project id")
	cmd.Flags().StringVar(&fields.due, "due", "", "due date; pass an empty value to clear")
	return cmd
}

func newTaskToggleCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a task between done and todo",
		Args:  positional("task id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, opts, func(client *api.Client) error {
				task, err := client.ToggleTask(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return emit(opts, task, func() error { return writePlain("%s\n", formatTaskLine(task)) })
			})
		},
	}
}

func newTaskDeleteCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id> [<id>...]",
		Short: "Delete tasks and their collaboration data",
		Args:  positionalAtLeast("id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, opts, func(client *api.Client) error {
				return deleteEach(cmd.Context(), args, client.DeleteTask, opts)
			})
		},
	}
}

// deleteEach removes ids in order and stops at the first failure.
func deleteEach(ctx context.Context, ids []string, del func(context.Context, string) error, opts *cliOptions) error {
	deleted := make([]string, 0, len(ids))
	for _, id := range ids {
		if err := del(ctx, id); err != nil {
			return err
		}
		deleted = append(deleted, id)
	}
	return emit(opts, map[string][]string{"deleted": deleted}, func() error { return writeLines(deleted) })
}

func newTaskListCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks visible to you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := flagQuery(cmd, "search", "priority", "project", "status", "range")
			return withClient(cfg, opts, func(client *api.Client) error {
				tasks, err := client.ListTasks(cmd.Context(), query)
				if err != nil {
					return err
				}
				return emit(opts, tasks, func() error { return writeTaskList(tasks) })
			})
		},
	}
	cmd.Flags().StringP("search", "s", "", "match title or description")
	cmd.Flags().StringP("priority", "p", "", "priority filter")
	cmd.Flags().String("project", "", "project id")
	cmd.Flags().String("status", "", "all, completed or pending")
	cmd.Flags().String("range", "", "due date range: all, today, week or month")
	return cmd
}

func newTaskStatsCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show task counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, opts, func(client *api.Client) error {
				stats, err := client.TaskStats(cmd.Context())
				if err != nil {
					return err
				}
				return emit(opts, stats, func() error {
					return writePlain("total: %d\ncompleted: %d\npending: %d\n", stats.Total, stats.Completed, stats.Pending)
				})
			})
		},
	}
}
