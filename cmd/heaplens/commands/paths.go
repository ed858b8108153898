// ABOUTME: `heaplens paths` prints the retaining paths from an object to the GC roots
// ABOUTME: Thin wrapper over graph.PathsToRoots, for spot-checking why a specific object is retained

package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/prateek/heaplens/graph"
	"github.com/prateek/heaplens/heapdump"
)

// NewPathsCommand builds the `paths` subcommand.
func NewPathsCommand() *cobra.Command {
	var maxPaths int

	cmd := &cobra.Command{
		Use:   "paths <dump-file> <object-id>",
		Short: "Show up to N retaining paths from an object to the GC roots",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[1], 0, 64)
			if err != nil {
				return fmt.Errorf("invalid object id %q: %w", args[1], err)
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening dump: %w", err)
			}
			defer f.Close()

			g, err := heapdump.Open(f)
			if err != nil {
				return fmt.Errorf("parsing dump: %w", err)
			}

			paths := graph.PathsToRoots(g, graph.ObjID(id), maxPaths)
			if len(paths) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no path to a GC root found for object %d\n", id)
				return nil
			}
			for i, p := range paths {
				fmt.Fprintf(cmd.OutOrStdout(), "path %d:", i+1)
				for _, node := range p.IDs {
					fmt.Fprintf(cmd.OutOrStdout(), " -> %d", node)
				}
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxPaths, "max-paths", 3, "Maximum number of paths to report")
	return cmd
}
