package main

import (
	"github.com/spf13/cobra"

	"taskcollab/internal/api"
	"taskcollab/internal/config"
)

type infoOutput struct {
	api.InfoResponse
	APIURL string `json:"api_url"`
	DBPath string `json:"db_path,omitempty"`
}

func newInfoCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show server and store info",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, opts, func(client *api.Client) error {
				resp, err := client.GetInfo(cmd.Context())
				if err != nil {
					return err
				}
				out := infoOutput{InfoResponse: resp, APIURL: cfg.APIURL}
				if resp.Store == config.StoreSQLite {
					out.DBPath = cfg.DBPath
				}
				return emit(opts, out, func() error {
					_ = writePlain("api_url: %s\n", out.APIURL)
					_ = writePlain("store: %s\n", out.Store)
					if out.DBPath != "" {
						_ = writePlain("db_path: %s\n", out.DBPath)
					}
					_ = writePlain("schema_version: %d\n", out.SchemaVersion)
					if out.Version != "" {
						_ = writePlain("version: %s\n", out.Version)
					}
					return nil
				})
			})
		},
	}
}
