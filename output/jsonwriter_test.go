// ABOUTME: Tests for the columnar JSON writer

package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/prateek/heaplens/graph"
)

func TestWriteJSONRoundTrips(t *testing.T) {
	result := &graph.Result{
		ObjectAddresses:     []uint64{1, 2},
		ImmediateDominators: []uint64{0, 1},
		DominatedSizes:      []uint64{150, 50},
		DominatedCounts:     []int32{2, 1},
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, result); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var rows []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0]["object_id"].(float64) != 1 {
		t.Errorf("rows[0].object_id = %v, want 1", rows[0]["object_id"])
	}
	if rows[1]["dominated_size_bytes"].(float64) != 50 {
		t.Errorf("rows[1].dominated_size_bytes = %v, want 50", rows[1]["dominated_size_bytes"])
	}
}

func TestWriteTopKIncludesTypeName(t *testing.T) {
	entries := []graph.TopKEntry{
		{ObjectAddress: 1, DominatedSize: 100, TypeName: "widget"},
	}
	var buf bytes.Buffer
	if err := WriteTopK(&buf, entries); err != nil {
		t.Fatalf("WriteTopK: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("widget")) {
		t.Errorf("output missing type_name: %s", buf.String())
	}
}
