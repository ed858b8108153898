// ABOUTME: Columnar JSON writer for the engine's bulk extract
// ABOUTME: Column names mirror the parquet/sqlite schema SPEC_FULL.md §6.4 describes; no such driver is in the dependency corpus, so JSON stands in for it

package output

import (
	"encoding/json"
	"io"

	"github.com/prateek/heaplens/graph"
)

// row is one record of the bulk extract, named after the parquet/sqlite
// column names a production emitter would use.
type row struct {
	ObjectID           uint64 `json:"object_id"`
	ImmediateDominator uint64 `json:"immediate_dominator_id"`
	DominatedSizeBytes uint64 `json:"dominated_size_bytes"`
	DominatedCount     int32  `json:"dominated_count"`
}

// WriteJSON writes the result's four parallel arrays as a JSON array of
// row objects, one per reachable object, in the order the columns are
// aligned.
func WriteJSON(w io.Writer, result *graph.Result) error {
	rows := make([]row, result.Len())
	for i := range rows {
		rows[i] = row{
			ObjectID:           result.ObjectAddresses[i],
			ImmediateDominator: result.ImmediateDominators[i],
			DominatedSizeBytes: result.DominatedSizes[i],
			DominatedCount:     result.DominatedCounts[i],
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// WriteTopK writes a TopK slice as a JSON array, including the advisory
// type_name and object_size columns that the full Result doesn't carry.
func WriteTopK(w io.Writer, entries []graph.TopKEntry) error {
	type topKRow struct {
		ObjectID           uint64 `json:"object_id"`
		ImmediateDominator uint64 `json:"immediate_dominator_id"`
		DominatedSizeBytes uint64 `json:"dominated_size_bytes"`
		DominatedCount     int32  `json:"dominated_count"`
		ObjectSizeBytes    uint64 `json:"object_size_bytes"`
		TypeName           string `json:"type_name,omitempty"`
	}

	rows := make([]topKRow, len(entries))
	for i, e := range entries {
		rows[i] = topKRow{
			ObjectID:           e.ObjectAddress,
			ImmediateDominator: e.ImmediateDominator,
			DominatedSizeBytes: e.DominatedSize,
			DominatedCount:     e.DominatedCount,
			ObjectSizeBytes:    e.ObjectSize,
			TypeName:           e.TypeName,
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
