package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskcollab/internal/config"
)

// redactedKeys are masked by `config list`.
var redactedKeys = map[string]bool{"auth.jwt_secret": true}

func newConfigCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Get or set configuration",
	}
	cmd.AddCommand(
		newConfigGetCmd(cfg),
		newConfigListCmd(cfg, opts),
		newConfigSetCmd(),
	)
	return cmd
}

func newConfigGetCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one effective config value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := lookupConfigKey(cfg, args[0])
			if err != nil {
				return err
			}
			return writePlain("%s\n", value)
		},
	}
}

func newConfigListCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List effective config values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := config.AllowedKeys()
			values := make(map[string]string, len(keys))
			lines := make([]string, 0, len(keys))
			for _, key := range keys {
				value, err := lookupConfigKey(cfg, key)
				if err != nil {
					return err
				}
				if redactedKeys[key] && value != "" {
					value = "********"
				}
				values[key] = value
				lines = append(lines, key+" = "+value)
			}
			return emit(opts, values, func() error { return writeLines(lines) })
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	var global bool

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write a config value to the project or global file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			locate := config.ProjectPath
			if global {
				locate = config.GlobalPath
			}
			path, err := locate()
			if err != nil {
				return err
			}
			return config.SetKey(path, args[0], args[1])
		},
	}
	cmd.Flags().BoolVar(&global, "global", false, "write to global config (~/.taskcollab.toml)")
	return cmd
}

func lookupConfigKey(cfg *config.Config, key string) (string, error) {
	if !config.IsAllowedKey(key) {
		return "", fmt.Errorf("unknown key: %s (allowed: %v)", key, config.AllowedKeys())
	}
	return cfg.Get(key)
}
