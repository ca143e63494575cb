package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"taskcollab/internal/api"
	"taskcollab/internal/config"
)

func newMeCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the authenticated user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, opts, func(client *api.Client) error {
				me, err := client.Me(cmd.Context())
				if err != nil {
					return err
				}
				return emit(opts, me, func() error {
					_ = writePlain("id: %s\n", me.ID)
					if me.Name != "" {
						_ = writePlain("name: %s\n", me.Name)
					}
					if me.Email != "" {
						_ = writePlain("email: %s\n", me.Email)
					}
					return writePlain("identities: %s\n", strings.Join(me.Identities, ", "))
				})
			})
		},
	}
}

func newClearDataCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "clear-data",
		Short: "Delete all collaboration data that belongs to you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("refusing to clear data without --yes")
			}
			return withClient(cfg, opts, func(client *api.Client) error {
				if err := client.ClearMyData(cmd.Context()); err != nil {
					return err
				}
				return emit(opts, map[string]bool{"cleared": true}, func() error {
					return writePlain("cleared\n")
				})
			})
		},
	}
	cmd.Flags().BoolVar(&confirm, "yes", false, "confirm deletion")
	return cmd
}
