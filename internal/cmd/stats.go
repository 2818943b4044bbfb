package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/parkspot/internal/api"
	"github.com/felixgeelhaar/parkspot/internal/ux"
)

func (c *cli) newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show public service figures",
		Long: `Show how many lots and spots the service has and how busy it is.
No sign-in is needed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var st *api.PublicStats
			err := c.spin(cmd, "Loading statistics", func() (err error) {
				st, err = c.app.Client.PublicStats(cmd.Context())
				return err
			})
			if err != nil {
				return err
			}
			return c.render(cmd, ux.Result{Data: st, Text: statsView(*st)})
		},
	}
}
