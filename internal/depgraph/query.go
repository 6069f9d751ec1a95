// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package depgraph

// DirectDependencies returns the vertices that idx directly depends on.
func (g *Graph) DirectDependencies(idx int32) []int32 { return g.outAdj[idx] }

// DirectDependents returns the vertices that directly depend on idx.
func (g *Graph) DirectDependents(idx int32) []int32 { return g.inAdj[idx] }

// bfsFrontier runs a level-by-level BFS over adj, seeded from the direct
// neighbors of source (excluding source itself), and returns the set of
// visited vertices in discovery order. This mirrors the frontier-expansion
// shape of a BFS over an adjacency-list graph: each round resolves the
// current frontier's unvisited neighbors before advancing, rather than
// recursing per-edge.
func bfsFrontier(adj [][]int32, source int32) []int32 {
	visited := make(map[int32]bool)
	visited[source] = true // exclude source from the result
	var order []int32
	frontier := append([]int32(nil), adj[source]...)
	for len(frontier) > 0 {
		var next []int32
		for _, v := range frontier {
			if visited[v] {
				continue
			}
			visited[v] = true
			order = append(order, v)
			next = append(next, adj[v]...)
		}
		frontier = next
	}
	return order
}

// TransitiveDependencies returns every vertex reachable from idx via
// out-edges. idx itself is never included, even when a cycle leads back
// to it. Complexity O(V+E).
func (g *Graph) TransitiveDependencies(idx int32) []int32 {
	return bfsFrontier(g.outAdj, idx)
}

// TransitiveDependents returns every vertex that can reach idx via
// out-edges (i.e. idx's ancestors in the dependency graph).
func (g *Graph) TransitiveDependents(idx int32) []int32 {
	return bfsFrontier(g.inAdj, idx)
}

// ShortestPath returns the shortest path from source to target (inclusive
// of both endpoints) in source->target order, or (nil, false) if target is
// unreachable. Complexity O(V+E).
func (g *Graph) ShortestPath(source, target int32) ([]int32, bool) {
	if source == target {
		return []int32{source}, true
	}
	prev := make(map[int32]int32)
	visited := map[int32]bool{source: true}
	queue := []int32{source}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.outAdj[cur] {
			if visited[next] {
				continue
			}
			visited[next] = true
			prev[next] = cur
			if next == target {
				return reconstructPath(prev, source, target), true
			}
			queue = append(queue, next)
		}
	}
	return nil, false
}

func reconstructPath(prev map[int32]int32, source, target int32) []int32 {
	path := []int32{target}
	for path[len(path)-1] != source {
		p := prev[path[len(path)-1]]
		path = append(path, p)
	}
	// reverse into source->target order
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

const maxCycles = 50

// Cycles enumerates up to maxCycles distinct cycles via iterative DFS with
// a recursion-stack set: when an edge closes back to a vertex on the stack,
// the slice from that vertex to the current one is emitted as a cycle.
func (g *Graph) Cycles() [][]int32 {
	n := len(g.vertices)
	state := make([]int8, n) // 0=unvisited, 1=on-stack, 2=done
	var cycles [][]int32

	type frame struct {
		v     int32
		edge  int
	}
	for start := int32(0); start < int32(n) && len(cycles) < maxCycles; start++ {
		if state[start] != 0 {
			continue
		}
		var stack []frame
		var path []int32
		stack = append(stack, frame{v: start, edge: 0})
		state[start] = 1
		path = append(path, start)
		for len(stack) > 0 && len(cycles) < maxCycles {
			top := &stack[len(stack)-1]
			if top.edge >= len(g.outAdj[top.v]) {
				state[top.v] = 2
				stack = stack[:len(stack)-1]
				path = path[:len(path)-1]
				continue
			}
			next := g.outAdj[top.v][top.edge]
			top.edge++
			switch state[next] {
			case 0:
				state[next] = 1
				path = append(path, next)
				stack = append(stack, frame{v: next, edge: 0})
			case 1:
				// Closes a cycle back to `next`, which is on the stack.
				for i, v := range path {
					if v == next {
						cycle := append([]int32(nil), path[i:]...)
						cycles = append(cycles, cycle)
						break
					}
				}
			case 2:
				// Already fully explored, not part of a new cycle from here.
			}
		}
	}
	return cycles
}
