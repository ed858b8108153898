// ABOUTME: Graph Builder stage: resolves outbound references into forward/reverse adjacency
// ABOUTME: Fans per-source edge extraction across worker shards, merges serially for determinism

package graph

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// edge is a resolved (from, to) pair in node-index space.
type edge struct {
	from, to nodeIdx
}

// adjacency is the engine's CSR-style forward or reverse edge table.
// offsets[i]..offsets[i+1] indexes into targets for node i's edges.
type adjacency struct {
	offsets []int32
	targets []nodeIdx
}

func (a *adjacency) of(i nodeIdx) []nodeIdx {
	return a.targets[a.offsets[i]:a.offsets[i+1]]
}

// buildShardSize caps how many source nodes a single worker processes per
// shard; small enough that shard count scales with GOMAXPROCS, large enough
// that scheduling overhead stays negligible.
const buildShardSize = 4096

// buildGraph performs stage 2: for every compressed index, resolve outbound
// references through addrToIdx and materialize succ/pred. Per-shard
// extraction runs concurrently; the merge into succ/pred is serial so the
// result is deterministic given a deterministic enumeration.
func buildGraph(ctx context.Context, source HeapSource, c *compressed) (succ, pred *adjacency, err error) {
	n := c.numNodes()
	if n == 0 {
		return &adjacency{offsets: make([]int32, 1)}, &adjacency{offsets: make([]int32, 1)}, nil
	}

	numShards := (n + buildShardSize - 1) / buildShardSize
	shardEdges := make([][]edge, numShards)

	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for shard := 0; shard < numShards; shard++ {
		shard := shard
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := shard * buildShardSize
			end := start + buildShardSize
			if end > n {
				end = n
			}
			var buf []edge
			for i := start; i < end; i++ {
				from := nodeIdx(i)
				addr := c.idxToAddr[i]
				refErr := source.EnumerateReferences(addr, func(target uint64) bool {
					if target == 0 {
						return true
					}
					to, ok := c.addrToIdx[target]
					if !ok {
						return true
					}
					buf = append(buf, edge{from: from, to: to})
					return true
				})
				if refErr != nil {
					return fmt.Errorf("%w: enumerate references for node %d: %v", ErrCollaboratorFailure, i, refErr)
				}
			}
			shardEdges[shard] = buf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	// Serial merge: count then prefix-sum then fill, twice (forward and
	// reverse), preserving shard order for a deterministic result.
	outCounts := make([]int32, n)
	inCounts := make([]int32, n)
	total := 0
	for _, buf := range shardEdges {
		total += len(buf)
		for _, e := range buf {
			outCounts[e.from]++
			inCounts[e.to]++
		}
	}

	succ = &adjacency{offsets: prefixSum(outCounts), targets: make([]nodeIdx, total)}
	pred = &adjacency{offsets: prefixSum(inCounts), targets: make([]nodeIdx, total)}

	outCursor := append([]int32(nil), succ.offsets[:n]...)
	inCursor := append([]int32(nil), pred.offsets[:n]...)
	for _, buf := range shardEdges {
		for _, e := range buf {
			succ.targets[outCursor[e.from]] = e.to
			outCursor[e.from]++
			pred.targets[inCursor[e.to]] = e.from
			inCursor[e.to]++
		}
	}

	return succ, pred, nil
}

// prefixSum converts per-node edge counts into CSR offsets of length n+1.
func prefixSum(counts []int32) []int32 {
	offsets := make([]int32, len(counts)+1)
	var sum int32
	for i, c := range counts {
		offsets[i] = sum
		sum += c
	}
	offsets[len(counts)] = sum
	return offsets
}
