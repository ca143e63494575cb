package main

import (
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"taskcollab/internal/api"
	"taskcollab/internal/config"
)

func newCommentAttachCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	var name, mediaType string
	cmd := &cobra.Command{
		Use:   "attach <comment-id> <file>",
		Short: "Upload a file onto one of your comments",
		Args:  positional("comment id", "file path"),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()
			if name == "" {
				name = filepath.Base(args[1])
			}
			if mediaType == "" {
				mediaType = mime.TypeByExtension(filepath.Ext(args[1]))
			}
			return withClient(cfg, opts, func(client *api.Client) error {
				comment, err := client.UploadAttachment(cmd.Context(), args[0], name, mediaType, f)
				if err != nil {
					return err
				}
				return emit(opts, comment, func() error { return writeAttachmentList(comment.Attachments) })
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "attachment name (defaults to the file name)")
	cmd.Flags().StringVar(&mediaType, "media-type", "", "media type (guessed from the extension when empty)")
	return cmd
}

func newCommentLinkCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "link <comment-id> <url>",
		Short: "Attach a link to one of your comments",
		Args:  positional("comment id", "url"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, opts, func(client *api.Client) error {
				comment, err := client.AttachLink(cmd.Context(), args[0], api.LinkAttachmentRequest{Name: name, URL: args[1]})
				if err != nil {
					return err
				}
				return emit(opts, comment, func() error { return writeAttachmentList(comment.Attachments) })
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "link title")
	return cmd
}

func newCommentDownloadCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "download <comment-id> <attachment-id>",
		Short: "Download an uploaded attachment",
		Args:  positional("comment id", "attachment id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out io.Writer = cmd.OutOrStdout()
			if outPath != "" && outPath != "-" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return withClient(cfg, opts, func(client *api.Client) error {
				_, err := client.DownloadAttachment(cmd.Context(), args[0], args[1], out)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write to file instead of stdout")
	return cmd
}
