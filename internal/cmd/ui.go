package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/parkspot/internal/router"
	"github.com/felixgeelhaar/parkspot/internal/tui"
)

func (c *cli) newUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ui [path]",
		Short: "Open the full-screen client",
		Long: `Open the full-screen client at path (default "/").

The client shares the session with every other command: signing in or out
here is visible to 'parkspot auth status' and the other way round.

Examples:
  parkspot ui
  parkspot ui /lots/3
  parkspot ui /admin`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := router.PathHome
			if len(args) == 1 {
				start = args[0]
			}
			// Fail on a bad path before taking over the terminal
			if _, err := c.app.Router.Resolve(start); err != nil {
				return err
			}
			return tui.Run(cmd.Context(), c.app.UIDeps(), start)
		},
	}
}
