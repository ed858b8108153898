// ABOUTME: Dominator Solver stage: Lengauer-Tarjan over the DFS forest in DFS-number space
// ABOUTME: Iterative eval/compress/link, bucket-based semidominator resolution, fix-up pass
package graph

import "context"

// ltState carries the Lengauer-Tarjan working arrays, all indexed by DFS
// number (not node index): semi, ancestor, label and bucket are sized R and
// freed with the solver once idom is produced.
type ltState struct {
	semi     []int32
	ancestor []int32
	label    []int32
	bucket   [][]int32
}

// solveDominators performs stage 4. pred is the reverse adjacency built in
// stage 2; f is the DFS forest from stage 3. Returns idom sized to the real
// node count, with noNode for every root and every unreachable node.
func solveDominators(pred *adjacency, f *dfsForest) []nodeIdx {
	n := len(f.dfnum)
	idom := make([]nodeIdx, n)
	for i := range idom {
		idom[i] = noNode
	}
	if f.r <= 1 {
		// No reachable nodes beyond the super-root: nothing to dominate.
		return idom
	}

	r := f.r
	st := &ltState{
		semi:     make([]int32, r),
		ancestor: make([]int32, r),
		label:    make([]int32, r),
		bucket:   make([][]int32, r),
	}
	for d := 0; d < r; d++ {
		st.semi[d] = int32(d)
		st.ancestor[d] = -1
		st.label[d] = int32(d)
	}

	// idomDF[d] holds the DFS number of d's immediate dominator, or its
	// semidominator until the fix-up pass resolves same-dominator chains
	// (Step 3/Step 4 of Lengauer-Tarjan).
	idomDF := make([]int32, r)

	link := func(v, w int32) { st.ancestor[w] = v }

	for w := int32(r - 1); w > 0; w-- {
		node := f.vertex[w]

		for _, p := range pred.of(node) {
			if f.dfnum[p] == noDFNum {
				continue // p is not reachable, skip
			}
			v := f.dfnum[p]
			u := st.eval(v)
			if st.semi[u] < st.semi[w] {
				st.semi[w] = st.semi[u]
			}
		}

		// A real heap root has no real incoming reference, but it is always
		// reachable directly from the synthetic super-root: that edge never
		// appears in pred (it isn't a real HeapSource reference), so without
		// this the root's own semidominator would never bottom out at 0 and
		// a node shared by two roots would wrongly inherit whichever root's
		// DFS subtree reached it first instead of the super-root.
		if f.parent[w] == superRootDFNum {
			st.semi[w] = superRootDFNum
		}

		st.bucket[st.semi[w]] = append(st.bucket[st.semi[w]], w)

		parent := f.parent[w]
		link(parent, w)

		for _, v := range st.bucket[parent] {
			u := st.eval(v)
			if st.semi[u] < st.semi[v] {
				idomDF[v] = u
			} else {
				idomDF[v] = parent
			}
		}
		st.bucket[parent] = nil
	}

	// Fix-up pass: resolve nodes whose idomDF currently points at a
	// same-semidominator relay rather than the true immediate dominator.
	for w := int32(1); w < int32(r); w++ {
		if idomDF[w] != st.semi[w] {
			idomDF[w] = idomDF[idomDF[w]]
		}
	}

	for w := int32(1); w < int32(r); w++ {
		node := f.vertex[w]
		dom := idomDF[w]
		if dom == superRootDFNum {
			idom[node] = noNode // root: dominated by nothing real
			continue
		}
		idom[node] = f.vertex[dom]
	}

	return idom
}

// eval is EVAL from Lengauer-Tarjan: returns v if it has no ancestor yet,
// otherwise compresses the ancestor path and returns the label with the
// minimum semidominator seen along it.
func (st *ltState) eval(v int32) int32 {
	if st.ancestor[v] == -1 {
		return v
	}
	st.compress(v)
	return st.label[v]
}

// compress walks from v to the shallowest ancestor with no ancestor of its
// own, using an explicit stack so ancestor chains tens of millions of nodes
// deep cannot exhaust the native call stack.
func (st *ltState) compress(v int32) {
	var stack []int32
	for st.ancestor[st.ancestor[v]] != -1 {
		stack = append(stack, v)
		v = st.ancestor[v]
	}
	for i := len(stack) - 1; i >= 0; i-- {
		v := stack[i]
		anc := st.ancestor[v]
		if st.semi[st.label[anc]] < st.semi[st.label[v]] {
			st.label[v] = st.label[anc]
		}
		st.ancestor[v] = st.ancestor[anc]
	}
}

// Dominators computes the immediate dominator for each reachable object in
// the graph, keyed by object ID. It is a convenience wrapper around the
// indexed Engine for callers that already hold a Graph (and the teacher's
// original entry point, kept for source compatibility): it treats g as a
// HeapSource, runs the full pipeline, and translates the result back into
// object-ID space. A root, or an object that no single root dominates, maps
// to ObjID(0), mirroring the "no dominator" sentinel used throughout this
// package. Objects with no path from any root are absent from the map.
func Dominators(g Graph) map[ObjID]ObjID {
	source, ok := g.(HeapSource)
	if !ok {
		return map[ObjID]ObjID{}
	}

	eng := NewEngine()
	if err := eng.Run(context.Background(), source, nil); err != nil {
		return map[ObjID]ObjID{}
	}
	result, err := eng.Result()
	if err != nil {
		return map[ObjID]ObjID{}
	}

	idom := make(map[ObjID]ObjID, len(result.ObjectAddresses))
	for i, addr := range result.ObjectAddresses {
		idom[ObjID(addr)] = ObjID(result.ImmediateDominators[i])
	}
	return idom
}

// DominatorTree builds a tree structure from immediate dominators, as
// returned by Dominators. Returns a map from each node to its list of
// immediately dominated nodes; node 0 (no dominator) collects every root.
func DominatorTree(idom map[ObjID]ObjID) map[ObjID][]ObjID {
	tree := make(map[ObjID][]ObjID)

	for node := range idom {
		tree[node] = []ObjID{}
	}
	tree[0] = []ObjID{}

	for node, dom := range idom {
		tree[dom] = append(tree[dom], node)
	}

	return tree
}