// ABOUTME: `heaplens analyze` runs the dominator engine over a heap dump and prints Top-K retainers
// ABOUTME: Wires the config loader, the engine's progress sinks, and the table/JSON writers together

package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/prateek/heaplens/config"
	"github.com/prateek/heaplens/graph"
	"github.com/prateek/heaplens/heapdump"
	"github.com/prateek/heaplens/output"
)

// NewAnalyzeCommand builds the `analyze` subcommand.
func NewAnalyzeCommand() *cobra.Command {
	var topK int
	var outputFormat string
	var metricsAddr string
	var noColor bool

	cmd := &cobra.Command{
		Use:   "analyze <dump-file>",
		Short: "Compute the dominator tree and retained sizes for a heap dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if cmd.Flags().Changed("top-k") {
				cfg.TopK = topK
			}
			if cmd.Flags().Changed("output") {
				cfg.OutputFormat = outputFormat
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.MetricsAddr = metricsAddr
			}
			if cmd.Flags().Changed("no-color") {
				cfg.NoColor = noColor
			}

			return runAnalyze(cmd, args[0], cfg)
		},
	}

	cmd.Flags().IntVar(&topK, "top-k", 20, "Number of largest retainers to print")
	cmd.Flags().StringVar(&outputFormat, "output", "table", "Output format: table or json")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Address to serve Prometheus /metrics on during the run (e.g. :9090)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colorized output")

	return cmd
}

func runAnalyze(cmd *cobra.Command, dumpPath string, cfg *config.Config) error {
	runID := uuid.NewString()[:12]

	f, err := os.Open(dumpPath)
	if err != nil {
		return fmt.Errorf("opening dump: %w", err)
	}
	defer f.Close()

	g, err := heapdump.Open(f)
	if err != nil {
		return fmt.Errorf("parsing dump: %w", err)
	}

	reg := prometheus.NewRegistry()
	sink := graph.NewMetricsSink(reg)

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			_ = srv.ListenAndServe()
		}()
		defer srv.Close()
	}

	fmt.Fprintf(cmd.OutOrStdout(), "heaplens run %s: analyzing %s\n", runID, dumpPath)

	start := time.Now()
	eng := graph.NewEngine()
	ctx := context.Background()
	memGraph, ok := g.(*graph.MemGraph)
	if !ok {
		return fmt.Errorf("parser returned an unsupported Graph implementation")
	}
	if err := eng.Run(ctx, memGraph, sink); err != nil {
		return fmt.Errorf("run %s: engine failed: %w", runID, err)
	}

	result, err := eng.Result()
	if err != nil {
		return fmt.Errorf("run %s: reading result: %w", runID, err)
	}

	topK := result.TopK(cfg.TopK, memGraph)

	switch cfg.OutputFormat {
	case "json":
		if err := output.WriteTopK(cmd.OutOrStdout(), topK); err != nil {
			return fmt.Errorf("writing json: %w", err)
		}
	default:
		output.WriteTopKTable(cmd.OutOrStdout(), topK, cfg.NoColor)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d reachable objects in %s\n", runID, result.Len(), time.Since(start))
	return nil
}
