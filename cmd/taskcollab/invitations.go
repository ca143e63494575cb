package main

import (
	"github.com/spf13/cobra"

	"taskcollab/internal/api"
	"taskcollab/internal/config"
	"taskcollab/internal/models"
)

func newInvitationsCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "invitations",
		Aliases: []string{"invites"},
		Short:   "Send and answer task invitations",
	}
	cmd.AddCommand(
		newInvitationSendCmd(cfg, opts),
		newInvitationListCmd(cfg, opts),
		newInvitationAnswerCmd(cfg, opts, true),
		newInvitationAnswerCmd(cfg, opts, false),
		newInvitationExpireCmd(cfg, opts),
	)
	return cmd
}

func newInvitationSendCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	var role, message string
	cmd := &cobra.Command{
		Use:   "send <task-id> <email>",
		Short: "Invite someone to collaborate on a task",
		Args:  positional("task id", "email"),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.InviteRequest{Email: args[1], Role: role, Message: message}
			return withClient(cfg, opts, func(client *api.Client) error {
				inv, err := client.InviteUser(cmd.Context(), args[0], req)
				if err != nil {
					return err
				}
				return emit(opts, inv, func() error { return writePlain("%s\n", inv.ID) })
			})
		},
	}
	cmd.Flags().StringVarP(&role, "role", "r", string(models.RoleViewer), "role (owner, editor, viewer, reviewer)")
	cmd.Flags().StringVarP(&message, "message", "m", "", "personal message")
	return cmd
}

func newInvitationListCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List invitations addressed to you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, opts, func(client *api.Client) error {
				invitations, err := client.ListInvitations(cmd.Context(), status)
				if err != nil {
					return err
				}
				return emit(opts, invitations, func() error { return writeInvitationList(invitations) })
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "pending, accepted, declined or expired")
	return cmd
}

func newInvitationAnswerCmd(cfg *config.Config, opts *cliOptions, accept bool) *cobra.Command {
	use, short := "decline <id>", "Decline an invitation"
	if accept {
		use, short = "accept <id>", "Accept an invitation and join the task"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  positional("invitation id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, opts, func(client *api.Client) error {
				if accept {
					collaborator, err := client.AcceptInvitation(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					return emit(opts, collaborator, func() error {
						return writePlain("joined %s as %s\n", collaborator.TaskID, collaborator.Role)
					})
				}
				inv, err := client.DeclineInvitation(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return emit(opts, inv, func() error { return writePlain("%s %s\n", inv.ID, inv.Status) })
			})
		},
	}
}

func newInvitationExpireCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "expire",
		Short: "Mark overdue pending invitations expired",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, opts, func(client *api.Client) error {
				resp, err := client.ExpireInvitations(cmd.Context())
				if err != nil {
					return err
				}
				return emit(opts, resp, func() error { return writePlain("expired: %d\n", resp.Expired) })
			})
		},
	}
}
