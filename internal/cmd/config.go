package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/parkspot/internal/config"
	"github.com/felixgeelhaar/parkspot/internal/errors"
	"github.com/felixgeelhaar/parkspot/internal/ux"
)

func (c *cli) newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "View or create parkspot configuration",
		Long: `Manage configuration stored at ~/.parkspot/config.yaml

Settings are resolved from, highest first: command-line flags, PARKSPOT_*
environment variables (a .env file in the working directory is loaded
first), the config file, built-in defaults.

Examples:
  # Effective configuration
  parkspot config view

  # Write a config file pointing at a staging backend
  parkspot config init --api-url https://staging.example.com/api

  # Show configuration file path
  parkspot config path`,
	}

	configCmd.AddCommand(c.newConfigViewCmd(), c.newConfigInitCmd(), c.newConfigPathCmd())
	return configCmd
}

func (c *cli) newConfigViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "view",
		Aliases: []string{"show"},
		Short:   "Display the effective configuration",
		Args:    cobra.NoArgs,
		Annotations: map[string]string{
			annotationNoApp: "true",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.render(cmd, ux.Result{Data: c.cfg, Text: configDetails(c.cfg, c.configPath())})
		},
	}
}

func (c *cli) newConfigInitCmd() *cobra.Command {
	var force bool

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to the config file",
		Long: `Write the effective configuration, including any flags passed now, to the
config file. An existing file is kept unless --force is given.`,
		Args: cobra.NoArgs,
		Annotations: map[string]string{
			annotationNoApp: "true",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.configPath()
			if _, err := os.Stat(path); err == nil && !force {
				return errors.New(errors.ErrCodeFileWriteFailed, fmt.Sprintf("config file %s already exists", path)).
					WithSuggestions(
						"Pass --force to overwrite it",
						"Inspect it with: parkspot config view",
					)
			}
			if err := config.Save(c.cfg, path); err != nil {
				return err
			}
			return c.render(cmd, ux.Message{Text: "Configuration written to " + path})
		},
	}

	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return initCmd
}

func (c *cli) newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		Annotations: map[string]string{
			annotationNoConfig: "true",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.render(cmd, c.configPath())
		},
	}
}

// configPath is --config when given, otherwise config.yaml in the
// config directory
func (c *cli) configPath() string {
	if c.cmdCtx != nil && c.cmdCtx.ConfigFile != "" {
		return c.cmdCtx.ConfigFile
	}
	return filepath.Join(c.configDir(), "config.yaml")
}

func (c *cli) configDir() string {
	if c.opts.configDir != "" {
		return c.opts.configDir
	}
	return config.DefaultDir()
}

func configDetails(cfg *config.Config, path string) *ux.Details {
	return &ux.Details{
		Title: "Configuration",
		Fields: []ux.Field{
			{Label: "Config file", Value: path},
			{Label: "API URL", Value: cfg.APIURL},
			{Label: "Timeout", Value: cfg.Timeout.String()},
			{Label: "Session file", Value: cfg.SessionFile},
			{Label: "Format", Value: cfg.Format},
			{Label: "Log level", Value: cfg.Log.Level},
			{Label: "Log format", Value: cfg.Log.Format},
			{Label: "Proxy listen", Value: cfg.Proxy.Listen},
			{Label: "Proxy target", Value: cfg.Proxy.Target},
		},
	}
}
