package main

import (
	"strings"

	"github.com/spf13/cobra"

	"taskcollab/internal/api"
	"taskcollab/internal/config"
)

func newCommentsCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments",
		Short: "Discuss a task",
	}
	cmd.AddCommand(
		newCommentListCmd(cfg, opts),
		newCommentAddCmd(cfg, opts),
		newCommentEditCmd(cfg, opts),
		newCommentDeleteCmd(cfg, opts),
		newCommentReactCmd(cfg, opts),
		newCommentAttachCmd(cfg, opts),
		newCommentLinkCmd(cfg, opts),
		newCommentDownloadCmd(cfg, opts),
	)
	return cmd
}

func newCommentListCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <task-id>",
		Short: "Show a task's comment thread",
		Args:  positional("task id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, opts, func(client *api.Client) error {
				comments, err := client.ListComments(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return emit(opts, comments, func() error { return writeCommentThread(comments) })
			})
		},
	}
}

func newCommentAddCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	var commentType, parentID, mentions string
	cmd := &cobra.Command{
		Use:   "add <task-id> <text>",
		Short: "Comment on a task or reply to a comment",
		Args:  positionalAtLeast("task id", "comment text"),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.CommentCreateRequest{
				Content:  strings.Join(args[1:], " "),
				Type:     commentType,
				ParentID: parentID,
				Mentions: splitCommaList(mentions),
			}
			return withClient(cfg, opts, func(client *api.Client) error {
				comment, err := client.AddComment(cmd.Context(), args[0], req)
				if err != nil {
					return err
				}
				return emit(opts, comment, func() error { return writePlain("%s\n", comment.ID) })
			})
		},
	}
	cmd.Flags().StringVar(&commentType, "type", "", "comment or review")
	cmd.Flags().StringVar(&parentID, "reply-to", "", "parent comment id")
	cmd.Flags().StringVar(&mentions, "mention", "", "comma-separated user ids to notify")
	return cmd
}

func newCommentEditCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <comment-id> <text>",
		Short: "Replace the text of your comment",
		Args:  positionalAtLeast("comment id", "text"),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.CommentUpdateRequest{Content: strings.Join(args[1:], " ")}
			return withClient(cfg, opts, func(client *api.Client) error {
				comment, err := client.UpdateComment(cmd.Context(), args[0], req)
				if err != nil {
					return err
				}
				return emit(opts, comment, func() error { return writePlain("%s\n", comment.ID) })
			})
		},
	}
}

func newCommentDeleteCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <comment-id>",
		Short: "Delete a comment and its replies",
		Args:  positional("comment id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, opts, func(client *api.Client) error {
				resp, err := client.DeleteComment(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return emit(opts, resp, func() error { return writeLines(resp.Deleted) })
			})
		},
	}
}

func newCommentReactCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "react <comment-id> <emoji>",
		Short: "Add an emoji reaction to a comment",
		Args:  positional("comment id", "emoji"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, opts, func(client *api.Client) error {
				comment, err := client.AddReaction(cmd.Context(), args[0], api.ReactionRequest{Emoji: args[1]})
				if err != nil {
					return err
				}
				return emit(opts, comment, func() error { return writePlain("%s reactions: %d\n", comment.ID, len(comment.Reactions)) })
			})
		},
	}
}
