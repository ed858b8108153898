// ABOUTME: Human-readable Top-K table writer, colorized with fatih/color
// ABOUTME: Size column is colored by magnitude so the biggest retainers jump out

package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/prateek/heaplens/graph"
)

const (
	hugeThreshold  = 100 << 20 // 100 MiB
	largeThreshold = 10 << 20  // 10 MiB
)

// WriteTopKTable prints a Top-K view as an aligned, colorized table.
// noColor forces plain output regardless of terminal detection, for piped
// or --no-color runs.
func WriteTopKTable(w io.Writer, entries []graph.TopKEntry, noColor bool) {
	if noColor {
		color.NoColor = true
	}

	fmt.Fprintf(w, "%-20s %-20s %14s %10s  %s\n", "OBJECT", "DOMINATOR", "RETAINED", "COUNT", "TYPE")
	for _, e := range entries {
		sizeStr := fmt.Sprintf("%14d", e.DominatedSize)
		switch {
		case e.DominatedSize >= hugeThreshold:
			sizeStr = color.RedString(sizeStr)
		case e.DominatedSize >= largeThreshold:
			sizeStr = color.YellowString(sizeStr)
		default:
			sizeStr = color.GreenString(sizeStr)
		}

		fmt.Fprintf(w, "0x%-18x 0x%-18x %s %10d  %s\n",
			e.ObjectAddress, e.ImmediateDominator, sizeStr, e.DominatedCount, e.TypeName)
	}
}
