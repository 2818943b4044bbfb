package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// CommandContext holds the global flags that do not feed the config
// layer. Flags that do (api-url, format, timeout, ...) are read through
// config.Load so that environment and file values apply to them too.
type CommandContext struct {
	ConfigFile string
	NoColor    bool
	NoInput    bool
	Yes        bool
}

// NewCommandContext extracts command context from cobra.Command flags.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	noColor, err := cmd.Flags().GetBool("no-color")
	if err != nil {
		return nil, err
	}

	noInput, err := cmd.Flags().GetBool("no-input")
	if err != nil {
		return nil, err
	}

	// NO_COLOR is honoured regardless of its value, see no-color.org
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		noColor = true
	}

	ctx := &CommandContext{
		ConfigFile: configFile,
		NoColor:    noColor,
		NoInput:    noInput,
	}

	// --yes only exists on destructive commands
	if f := cmd.Flags().Lookup("yes"); f != nil {
		ctx.Yes, err = cmd.Flags().GetBool("yes")
		if err != nil {
			return nil, err
		}
	}
	return ctx, nil
}
