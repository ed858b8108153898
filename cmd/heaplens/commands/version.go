// ABOUTME: `heaplens version` prints build metadata

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prateek/heaplens"
)

// NewVersionCommand builds the `version` subcommand.
func NewVersionCommand(version, buildTime string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print heaplens version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if version == "" || version == "dev" {
				version = heaplens.Version
			}
			fmt.Fprintf(cmd.OutOrStdout(), "heaplens %s", version)
			if buildTime != "" {
				fmt.Fprintf(cmd.OutOrStdout(), " (built %s)", buildTime)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
}
