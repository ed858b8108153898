// Package main implements the heaplens CLI.
// It provides commands for running dominator analysis over a heap dump and
// printing the Top-K retainers, plus serving the engine's Prometheus
// metrics while an analysis runs.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/prateek/heaplens/cmd/heaplens/commands"
)

var (
	version   = "dev"
	buildTime = ""
)

func main() {
	root := &cobra.Command{
		Use:   "heaplens",
		Short: "Dominator-tree analysis for Go heap dumps",
	}
	root.PersistentFlags().String("config", "", "Config file path (currently ignored; config is read from ./.heaplens/config.yaml and ~/.heaplens/config.yaml)")
	root.PersistentFlags().Bool("no-color", false, "Disable colorized output")

	root.AddCommand(commands.NewAnalyzeCommand())
	root.AddCommand(commands.NewPathsCommand())
	root.AddCommand(commands.NewVersionCommand(version, buildTime))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
