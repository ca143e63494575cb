package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"taskcollab/internal/authn"
	"taskcollab/internal/config"
	"taskcollab/internal/models"
)

type tokenOptions struct {
	name  string
	email string
	ttl   time.Duration
}

func newTokenCmd(cfg *config.Config) *cobra.Command {
	opts := &tokenOptions{}
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint a bearer token signed with the configured secret",
		Args:  positional("user id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ttl := opts.ttl
			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL.Duration
			}
			signer, err := authn.NewSigner(cfg.Auth.JWTSecret, ttl)
			if err != nil {
				return fmt.Errorf("%w (set auth.jwt_secret or TASKCOLLAB_JWT_SECRET)", err)
			}
			token, expires, err := signer.Issue(models.Actor{
				ID:    strings.TrimSpace(args[0]),
				Name:  strings.TrimSpace(opts.name),
				Email: strings.TrimSpace(opts.email),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "expires: %s\n", formatTime(expires))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&opts.name, "name", "", "display name")
	cmd.Flags().StringVar(&opts.email, "email", "", "email address invitations are sent to")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", 0, "token lifetime (defaults to auth.token_ttl)")
	return cmd
}
