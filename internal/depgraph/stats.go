// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package depgraph

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Stats holds the aggregate statistics spec.md §4.4 requires.
type Stats struct {
	TotalPackages     int
	TotalDependencies int
	StronglyConnected int
	WeaklyConnected   int
	AvgInDegree       float64
	AvgOutDegree      float64
	MaxInDegree       int
	MaxOutDegree      int
	ZeroInCount       int
	ZeroOutCount      int
}

type degreeAccumulator struct {
	totalEdges          int
	maxIn, maxOut       int
	zeroIn, zeroOut     int
}

// Stats computes the aggregate statistics table by a single adjacency
// sweep. The per-vertex degree tally is independent work, so it's fanned
// out across a worker pool the way the teacher's sysgraph query helpers
// (rangeParallel/mapParallel) split independent per-vertex work over
// errgroup; strongly/weakly connected components require shared
// cross-vertex state and stay single-threaded.
func (g *Graph) Stats(ctx context.Context) (Stats, error) {
	n := len(g.vertices)
	if n == 0 {
		return Stats{}, nil
	}
	workers := runtime.NumCPU()
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	chunk := (n + workers - 1) / workers
	accs := make([]degreeAccumulator, workers)
	eg, _ := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		eg.Go(func() error {
			acc := &accs[w]
			for i := start; i < end; i++ {
				out := len(g.outAdj[i])
				in := len(g.inAdj[i])
				acc.totalEdges += out
				if out > acc.maxOut {
					acc.maxOut = out
				}
				if in > acc.maxIn {
					acc.maxIn = in
				}
				if out == 0 {
					acc.zeroOut++
				}
				if in == 0 {
					acc.zeroIn++
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Stats{}, err
	}
	var total degreeAccumulator
	for _, a := range accs {
		total.totalEdges += a.totalEdges
		total.zeroIn += a.zeroIn
		total.zeroOut += a.zeroOut
		if a.maxIn > total.maxIn {
			total.maxIn = a.maxIn
		}
		if a.maxOut > total.maxOut {
			total.maxOut = a.maxOut
		}
	}
	return Stats{
		TotalPackages:     n,
		TotalDependencies: total.totalEdges,
		StronglyConnected: g.stronglyConnectedComponents(),
		WeaklyConnected:   g.weaklyConnectedComponents(),
		AvgInDegree:       float64(total.totalEdges) / float64(n),
		AvgOutDegree:      float64(total.totalEdges) / float64(n),
		MaxInDegree:       total.maxIn,
		MaxOutDegree:      total.maxOut,
		ZeroInCount:       total.zeroIn,
		ZeroOutCount:      total.zeroOut,
	}, nil
}

// stronglyConnectedComponents computes the SCC count with Tarjan's
// algorithm, implemented iteratively (an explicit stack) so a 100k-node
// graph can't overflow the goroutine stack via recursion.
func (g *Graph) stronglyConnectedComponents() int {
	n := len(g.vertices)
	indices := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	for i := range indices {
		indices[i] = -1
	}
	var stack []int32
	index := 0
	sccCount := 0

	type frame struct {
		v        int32
		edge     int
	}
	for start := int32(0); start < int32(n); start++ {
		if indices[start] != -1 {
			continue
		}
		var work []frame
		work = append(work, frame{v: start})
		for len(work) > 0 {
			top := &work[len(work)-1]
			v := top.v
			if top.edge == 0 {
				indices[v] = index
				lowlink[v] = index
				index++
				stack = append(stack, v)
				onStack[v] = true
			}
			recursed := false
			for top.edge < len(g.outAdj[v]) {
				w := g.outAdj[v][top.edge]
				top.edge++
				if indices[w] == -1 {
					work = append(work, frame{v: w})
					recursed = true
					break
				} else if onStack[w] {
					if indices[w] < lowlink[v] {
						lowlink[v] = indices[w]
					}
				}
			}
			if recursed {
				continue
			}
			// Done with v's edges.
			work = work[:len(work)-1]
			if len(work) > 0 {
				parent := &work[len(work)-1]
				if lowlink[v] < lowlink[parent.v] {
					lowlink[parent.v] = lowlink[v]
				}
			}
			if lowlink[v] == indices[v] {
				sccCount++
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					if w == v {
						break
					}
				}
			}
		}
	}
	return sccCount
}

// weaklyConnectedComponents computes the WCC count via union-find over the
// undirected view of the graph (ignoring edge direction).
func (g *Graph) weaklyConnectedComponents() int {
	n := len(g.vertices)
	parent := make([]int32, n)
	for i := range parent {
		parent[i] = int32(i)
	}
	var find func(int32) int32
	find = func(x int32) int32 {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int32) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}
	for v := int32(0); v < int32(n); v++ {
		for _, w := range g.outAdj[v] {
			union(v, w)
		}
	}
	roots := make(map[int32]bool)
	for v := int32(0); v < int32(n); v++ {
		roots[find(v)] = true
	}
	return len(roots)
}
