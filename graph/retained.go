// ABOUTME: Retention Aggregator stage: bottom-up dominator-tree sums via iterative post-order
// ABOUTME: Explicit work stack with a processed flag per frame, so recursion never bounds tree depth

package graph

import "context"

// aggregate performs stage 5. It inverts idom into a children adjacency,
// then walks the dominator forest from each reached node without an
// immediate dominator (every root, and every node that no single root
// dominates) with an explicit stack (no recursion: the tree can be as deep
// as the reachable count).
// domSize and domCount are sized to the real node count; unreached nodes
// keep their zero value and are never surfaced in a Result.
func aggregate(idom []nodeIdx, sizes []uint64, roots []nodeIdx, reached []bool) (domSize []uint64, domCount []int32) {
	n := len(idom)
	domSize = make([]uint64, n)
	domCount = make([]int32, n)

	children := make([][]nodeIdx, n)
	for i, dom := range idom {
		if dom != noNode {
			children[dom] = append(children[dom], nodeIdx(i))
		}
	}

	visited := make([]bool, n)

	type frame struct {
		node      nodeIdx
		processed bool
	}

	starts := append([]nodeIdx(nil), roots...)
	for i, dom := range idom {
		if dom == noNode && reached[i] {
			starts = append(starts, nodeIdx(i))
		}
	}

	for _, root := range starts {
		if !reached[root] || visited[root] {
			continue
		}
		stack := []frame{{node: root}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if !top.processed {
				top.processed = true
				visited[top.node] = true
				for _, c := range children[top.node] {
					if !visited[c] {
						stack = append(stack, frame{node: c})
					}
				}
				continue
			}
			size := sizes[top.node]
			count := int32(1)
			for _, c := range children[top.node] {
				size += domSize[c]
				count += domCount[c]
			}
			domSize[top.node] = size
			domCount[top.node] = count
			stack = stack[:len(stack)-1]
		}
	}

	return domSize, domCount
}

// RetainedSize computes the retained size for each reachable object in the
// graph, keyed by object ID, via the full indexed pipeline. Kept for source
// compatibility with the teacher's original map-based API.
func RetainedSize(g Graph) map[ObjID]uint64 {
	source, ok := g.(HeapSource)
	if !ok {
		return map[ObjID]uint64{}
	}

	eng := NewEngine()
	if err := eng.Run(context.Background(), source, nil); err != nil {
		return map[ObjID]uint64{}
	}
	result, err := eng.Result()
	if err != nil {
		return map[ObjID]uint64{}
	}

	retained := make(map[ObjID]uint64, len(result.ObjectAddresses))
	for i, addr := range result.ObjectAddresses {
		retained[ObjID(addr)] = result.DominatedSizes[i]
	}
	return retained
}

// RetainedSizeSubsets computes retained sizes for a specific subset of
// objects. Kept for source compatibility; internally this still computes the
// full tree (the dominator relation has no shortcut for an arbitrary subset)
// and then filters, exactly as the teacher's original implementation did.
func RetainedSizeSubsets(g Graph, targetIDs []ObjID) map[ObjID]uint64 {
	if len(targetIDs) == 0 {
		return make(map[ObjID]uint64)
	}

	full := RetainedSize(g)
	result := make(map[ObjID]uint64, len(targetIDs))
	for _, id := range targetIDs {
		if size, ok := full[id]; ok {
			result[id] = size
		}
	}
	return result
}