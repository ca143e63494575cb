package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"taskcollab/internal/api"
	"taskcollab/internal/config"
)

func newReviewsCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reviews",
		Short: "Request and submit task reviews",
	}
	cmd.AddCommand(
		newReviewListCmd(cfg, opts),
		newReviewSubmitCmd(cfg, opts),
		newReviewRequestCmd(cfg, opts),
	)
	return cmd
}

func newReviewListCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <task-id>",
		Short: "List reviews on a task",
		Args:  positional("task id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, opts, func(client *api.Client) error {
				reviews, err := client.ListReviews(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return emit(opts, reviews, func() error { return writeReviewList(reviews) })
			})
		},
	}
}

func newReviewSubmitCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	var status, feedback, suggestions, filePath string
	var rating int
	cmd := &cobra.Command{
		Use:   "submit <task-id>",
		Short: "Submit a review verdict",
		Args:  positional("task id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req api.ReviewSubmitRequest
			if filePath != "" {
				doc, err := readMarkdownFile(filePath)
				if err != nil {
					return err
				}
				if req, err = reviewRequestFromMarkdown(doc); err != nil {
					return err
				}
			} else {
				if strings.TrimSpace(status) == "" {
					return errors.New("--status or --file is required")
				}
				req = api.ReviewSubmitRequest{Status: status, Feedback: feedback, Suggestions: splitCommaList(suggestions)}
				if cmd.Flags().Changed("rating") {
					req.Rating = &rating
				}
			}
			return withClient(cfg, opts, func(client *api.Client) error {
				review, err := client.SubmitReview(cmd.Context(), args[0], req)
				if err != nil {
					return err
				}
				return emit(opts, review, func() error { return writePlain("%s\n", review.ID) })
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "approved, rejected, changes_requested or pending")
	cmd.Flags().StringVar(&feedback, "feedback", "", "feedback text")
	cmd.Flags().IntVar(&rating, "rating", 0, "rating from 1 to 5")
	cmd.Flags().StringVar(&suggestions, "suggestions", "", "comma-separated suggestions")
	cmd.Flags().StringVarP(&filePath, "file", "f", "", "read the review from a markdown file with front matter")
	return cmd
}

func newReviewRequestCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "request <task-id> <reviewer-id>",
		Short: "Ask someone to review a task",
		Args:  positional("task id", "reviewer id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, opts, func(client *api.Client) error {
				req := api.ReviewRequestRequest{ReviewerID: args[1]}
				if err := client.RequestReview(cmd.Context(), args[0], req); err != nil {
					return err
				}
				return emit(opts, req, func() error { return writePlain("requested review from %s\n", args[1]) })
			})
		},
	}
}
