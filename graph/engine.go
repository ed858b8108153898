// ABOUTME: Engine drives the five-stage dominator pipeline as an explicit phase state machine
// ABOUTME: Illegal stage ordering returns ErrPreconditionViolation instead of relying on nil checks

package graph

import (
	"context"
	"fmt"
)

// phase names the five pipeline stages plus the unstarted state. Each
// Engine method requires the previous phase and advances to the next one,
// making the "Global lazy allocation pattern" the teacher relied on
// (nullable maps checked ad hoc) into a state machine that cannot be driven
// out of order.
type phase int

const (
	phaseInit phase = iota
	phaseEnumerated
	phaseGraphBuilt
	phaseDFSed
	phaseDominated
	phaseAggregated
)

func (p phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "Unknown"
}

var phaseNames = map[phase]string{
	phaseInit:       "Init",
	phaseEnumerated: "Phase 1",
	phaseGraphBuilt: "Phase 2",
	phaseDFSed:      "Phase 3",
	phaseDominated:  "Phase 4",
	phaseAggregated: "Phase 5",
}

// Engine runs the dominator analysis pipeline over a single HeapSource
// snapshot. An Engine is single-use: call Run once, then read Result.
type Engine struct {
	ph phase

	c    *compressed
	succ *adjacency
	pred *adjacency
	dfs  *dfsForest

	idom     []nodeIdx
	reached  []bool
	domSize  []uint64
	domCount []int32
}

// NewEngine returns an Engine ready to Run a single analysis.
func NewEngine() *Engine {
	return &Engine{ph: phaseInit}
}

// Run drives all five stages against source, reporting phase transitions to
// sink (which may be nil). It honors ctx only at the Graph Builder's shard
// boundaries; DFS and the Solver have no internal suspension points, per
// SPEC_FULL.md §5.
func (e *Engine) Run(ctx context.Context, source HeapSource, sink ProgressSink) error {
	if e.ph != phaseInit {
		return fmt.Errorf("%w: Run called on an already-started Engine", ErrPreconditionViolation)
	}

	if err := e.stepEnumerate(source, sink); err != nil {
		return err
	}
	if err := e.stepBuildGraph(ctx, source, sink); err != nil {
		return err
	}
	e.stepDFS(sink)
	e.stepSolve(sink)
	e.stepAggregate(sink)
	notify(sink, "Complete")
	return nil
}

func (e *Engine) stepEnumerate(source HeapSource, sink ProgressSink) error {
	if e.ph != phaseInit {
		return fmt.Errorf("%w: enumerate requires phase Init, have %v", ErrPreconditionViolation, e.ph)
	}
	c, err := enumerate(source)
	if err != nil {
		return err
	}
	e.c = c
	e.ph = phaseEnumerated
	notify(sink, phaseNames[phaseEnumerated])
	return nil
}

func (e *Engine) stepBuildGraph(ctx context.Context, source HeapSource, sink ProgressSink) error {
	if e.ph != phaseEnumerated {
		return fmt.Errorf("%w: build graph requires phase Enumerated, have %v", ErrPreconditionViolation, e.ph)
	}
	succ, pred, err := buildGraph(ctx, source, e.c)
	if err != nil {
		return err
	}
	e.succ, e.pred = succ, pred
	e.ph = phaseGraphBuilt
	notify(sink, phaseNames[phaseGraphBuilt])
	return nil
}

func (e *Engine) stepDFS(sink ProgressSink) {
	if e.ph != phaseGraphBuilt {
		panic(fmt.Errorf("%w: DFS requires phase GraphBuilt, have %v", ErrPreconditionViolation, e.ph))
	}
	e.dfs = runDFS(e.succ, e.c)
	e.succ = nil // stage 4 needs only pred; drop succ now (SPEC_FULL.md §5)
	e.ph = phaseDFSed
	notify(sink, phaseNames[phaseDFSed])
}

func (e *Engine) stepSolve(sink ProgressSink) {
	if e.ph != phaseDFSed {
		panic(fmt.Errorf("%w: solve requires phase DFSed, have %v", ErrPreconditionViolation, e.ph))
	}
	e.idom = solveDominators(e.pred, e.dfs)
	e.pred = nil // solver is done with reverse adjacency
	e.ph = phaseDominated
	notify(sink, phaseNames[phaseDominated])
}

func (e *Engine) stepAggregate(sink ProgressSink) {
	if e.ph != phaseDominated {
		panic(fmt.Errorf("%w: aggregate requires phase Dominated, have %v", ErrPreconditionViolation, e.ph))
	}
	reached := make([]bool, e.c.numNodes())
	for _, nd := range e.dfs.vertex[1:] {
		reached[nd] = true
	}
	e.reached = reached
	e.domSize, e.domCount = aggregate(e.idom, e.c.sizes, e.c.roots, reached)
	e.ph = phaseAggregated
	notify(sink, phaseNames[phaseAggregated])
}

// Result assembles the columnar bulk extract (SPEC_FULL.md §6.2). It
// requires Run to have completed.
func (e *Engine) Result() (*Result, error) {
	if e.ph != phaseAggregated {
		return nil, fmt.Errorf("%w: Result requires a completed Run, have phase %v", ErrPreconditionViolation, e.ph)
	}

	n := e.c.numNodes()
	res := &Result{}
	for i := 0; i < n; i++ {
		if !e.reached[i] {
			continue
		}
		dom := e.idom[i]
		if dom != noNode && !e.reached[int(dom)] {
			return nil, fmt.Errorf("%w: object %#x has immediate dominator %#x which the DFS never reached",
				ErrInvariantViolation, e.c.idxToAddr[i], e.c.idxToAddr[dom])
		}
		if e.domSize[i] < e.c.sizes[i] || e.domCount[i] < 1 {
			return nil, fmt.Errorf("%w: object %#x has dominated size/count smaller than its own (size %d/%d, count %d)",
				ErrInvariantViolation, e.c.idxToAddr[i], e.domSize[i], e.c.sizes[i], e.domCount[i])
		}

		res.ObjectAddresses = append(res.ObjectAddresses, e.c.idxToAddr[i])
		if dom == noNode {
			res.ImmediateDominators = append(res.ImmediateDominators, 0)
		} else {
			res.ImmediateDominators = append(res.ImmediateDominators, e.c.idxToAddr[dom])
		}
		res.DominatedSizes = append(res.DominatedSizes, e.domSize[i])
		res.DominatedCounts = append(res.DominatedCounts, e.domCount[i])
		res.shallowSizes = append(res.shallowSizes, e.c.sizes[i])
	}
	return res, nil
}
