// ABOUTME: HeapSource is the read-only collaborator interface the engine consumes
// ABOUTME: Adapts any heap walker (MemGraph, a parser, a live process) into engine input

package graph

// HeapSource is the external heap-walker contract the dominator engine
// consumes. Implementations enumerate a frozen snapshot: objects, their
// outbound references, and the root set. The engine never mutates a
// HeapSource and never retains addresses past the Enumerator stage.
//
// yield returning false stops enumeration early; implementations must honor
// it the way an iter.Seq consumer would (no slice materialization required;
// MemGraph walks its object map and root slice directly).
type HeapSource interface {
	// EnumerateObjects walks every object once, yielding its address and
	// size. Addresses are unique within a single enumeration.
	EnumerateObjects(yield func(addr, size uint64) bool) error

	// EnumerateReferences yields the outbound reference targets of the
	// object at addr. A yielded value of 0 means "null" and is always
	// dropped by the caller; unresolved targets are permitted.
	EnumerateReferences(addr uint64, yield func(target uint64) bool) error

	// EnumerateRoots yields root object addresses. Duplicates are
	// permitted; the Enumerator deduplicates them.
	EnumerateRoots(yield func(addr uint64) bool) error
}

// TypeResolver is an optional collaborator capability used only by the
// Top-K view to attach advisory type names to output rows.
type TypeResolver interface {
	TypeName(addr uint64) string
}

// EnumerateObjects implements HeapSource by walking the in-memory graph.
func (g *MemGraph) EnumerateObjects(yield func(addr, size uint64) bool) error {
	var stop bool
	g.ForEachObject(func(obj *Object) {
		if stop {
			return
		}
		if !yield(uint64(obj.ID), obj.Size) {
			stop = true
		}
	})
	return nil
}

// EnumerateReferences implements HeapSource by looking up the object's
// recorded outbound pointers.
func (g *MemGraph) EnumerateReferences(addr uint64, yield func(target uint64) bool) error {
	obj := g.GetObject(ObjID(addr))
	if obj == nil {
		return nil
	}
	for _, ptr := range obj.Ptrs {
		if !yield(uint64(ptr)) {
			return nil
		}
	}
	return nil
}

// EnumerateRoots implements HeapSource from the graph's recorded root set.
func (g *MemGraph) EnumerateRoots(yield func(addr uint64) bool) error {
	for _, id := range g.GetRoots().IDs {
		if !yield(uint64(id)) {
			return nil
		}
	}
	return nil
}

// TypeName implements TypeResolver by looking up the object's recorded type.
func (g *MemGraph) TypeName(addr uint64) string {
	obj := g.GetObject(ObjID(addr))
	if obj == nil {
		return ""
	}
	return obj.Type
}
