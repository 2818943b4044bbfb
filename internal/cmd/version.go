package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/parkspot/internal/version"
)

type versionView struct {
	version.Info `yaml:",inline"`
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

func (v versionView) String() string {
	return v.Info.String() + "\nUser-Agent: " + v.UserAgent
}

func (c *cli) newVersionCmd() *cobra.Command {
	var short bool

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print version information including version number, git commit,
build date, Go version, and platform.`,
		Args: cobra.NoArgs,
		Annotations: map[string]string{
			annotationNoConfig: "true",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.GetInfo()
			if short {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "parkspot %s\n", info.Version)
				return err
			}
			return c.render(cmd, versionView{Info: info, UserAgent: version.UserAgent()})
		},
	}

	versionCmd.Flags().BoolVar(&short, "short", false, "print the version number only")
	return versionCmd
}
