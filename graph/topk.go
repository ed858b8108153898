// ABOUTME: Top-K enumeration over a Result, descending by dominated size
// ABOUTME: Uses a bounded min-heap so selecting K out of reachable-N nodes stays cheap

package graph

import "container/heap"

// TopKEntry is one row of the descending-by-dominated-size view
// (SPEC_FULL.md §6.3). TypeName is advisory: it comes from an optional
// second collaborator lookup and may be empty if the resolver doesn't know
// the address.
type TopKEntry struct {
	ObjectAddress       uint64
	ImmediateDominator  uint64
	DominatedSize       uint64
	DominatedCount      int32
	ObjectSize          uint64
	TypeName            string
}

// TopK returns the n entries with the largest DominatedSize, descending.
// resolver may be nil, in which case TypeName is left empty.
func (r *Result) TopK(n int, resolver TypeResolver) []TopKEntry {
	if n <= 0 || r.Len() == 0 {
		return nil
	}

	h := &topKHeap{}
	for i := 0; i < r.Len(); i++ {
		entry := TopKEntry{
			ObjectAddress:      r.ObjectAddresses[i],
			ImmediateDominator: r.ImmediateDominators[i],
			DominatedSize:      r.DominatedSizes[i],
			DominatedCount:     r.DominatedCounts[i],
			ObjectSize:         r.shallowSizes[i],
		}
		if h.Len() < n {
			heap.Push(h, entry)
		} else if entry.DominatedSize > (*h)[0].DominatedSize {
			heap.Pop(h)
			heap.Push(h, entry)
		}
	}

	out := make([]TopKEntry, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(TopKEntry)
	}

	if resolver != nil {
		for i := range out {
			out[i].TypeName = resolver.TypeName(out[i].ObjectAddress)
		}
	}
	return out
}

// topKHeap is a min-heap by DominatedSize, bounding memory to K entries.
type topKHeap []TopKEntry

func (h topKHeap) Len() int            { return len(h) }
func (h topKHeap) Less(i, j int) bool  { return h[i].DominatedSize < h[j].DominatedSize }
func (h topKHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *topKHeap) Push(x interface{}) { *h = append(*h, x.(TopKEntry)) }
func (h *topKHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
