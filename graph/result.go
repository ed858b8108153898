// ABOUTME: Result is the columnar bulk extract the engine exposes for reachable nodes
// ABOUTME: Four parallel, positionally-aligned arrays: address, dominator, size, count

package graph

// Result is the engine's external read shape: four parallel arrays over
// reachable nodes only, positionally aligned (SPEC_FULL.md §6.2).
type Result struct {
	// ObjectAddresses holds the raw heap address of every reachable object.
	ObjectAddresses []uint64

	// ImmediateDominators holds the address of each object's immediate
	// dominator, or 0 if it has none (it is a root, or no single reachable
	// node dominates it — see SPEC_FULL.md §2.1). Address 0 is never a
	// valid object address, so the sentinel is unambiguous.
	ImmediateDominators []uint64

	// DominatedSizes holds the total size, in bytes, of the dominator-tree
	// subtree rooted at each object.
	DominatedSizes []uint64

	// DominatedCounts holds the object count of the dominator-tree subtree
	// rooted at each object.
	DominatedCounts []int32

	// shallowSizes mirrors ObjectAddresses positionally and holds each
	// object's own size (not its subtree's). It is not part of the
	// spec's four-array columnar contract, but TopK needs it to report
	// object_size without a second collaborator round trip.
	shallowSizes []uint64
}

// Len returns the number of reachable objects in the result.
func (r *Result) Len() int {
	return len(r.ObjectAddresses)
}
