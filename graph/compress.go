// ABOUTME: Enumerator & Compressor stage: walks the heap once and assigns dense indices
// ABOUTME: Builds the address<->index bijection that every later stage operates over

package graph

import "fmt"

// nodeIdx is the engine's dense, 0-based node index. It never crosses the
// HeapSource boundary; addresses do.
type nodeIdx int32

// noNode is the sentinel for "not a valid node index" (unreachable, or
// absent from the address table entirely).
const noNode nodeIdx = -1

// compressed holds the output of the Enumerator & Compressor stage: the
// dense index space plus the bijection back to raw addresses.
type compressed struct {
	idxToAddr []uint64 // index -> address
	sizes     []uint64 // index -> size in bytes
	addrToIdx map[uint64]nodeIdx
	roots     []nodeIdx // deduplicated, resolved, in enumeration order
}

// enumerate performs stage 1: one walk of source.EnumerateObjects to build
// the dense index, then one walk of source.EnumerateRoots to resolve and
// deduplicate the root set.
func enumerate(source HeapSource) (*compressed, error) {
	c := &compressed{
		addrToIdx: make(map[uint64]nodeIdx),
	}

	err := source.EnumerateObjects(func(addr, size uint64) bool {
		if _, exists := c.addrToIdx[addr]; exists {
			// Duplicate address from a misbehaving collaborator; keep the
			// first-seen entry, the index bijection requires unique keys.
			return true
		}
		idx := nodeIdx(len(c.idxToAddr))
		c.addrToIdx[addr] = idx
		c.idxToAddr = append(c.idxToAddr, addr)
		c.sizes = append(c.sizes, size)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("%w: enumerate objects: %v", ErrCollaboratorFailure, err)
	}

	seen := make(map[uint64]bool)
	err = source.EnumerateRoots(func(addr uint64) bool {
		if seen[addr] {
			return true
		}
		seen[addr] = true
		if idx, ok := c.addrToIdx[addr]; ok {
			c.roots = append(c.roots, idx)
		}
		// Roots whose address does not resolve to a known object are
		// silently dropped: the snapshot may include roots pointing into
		// regions not enumerable as objects.
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("%w: enumerate roots: %v", ErrCollaboratorFailure, err)
	}

	return c, nil
}

// numNodes returns the number of compressed, real (non-super-root) nodes.
func (c *compressed) numNodes() int {
	return len(c.idxToAddr)
}
