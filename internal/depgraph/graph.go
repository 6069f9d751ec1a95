// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

// Package depgraph builds a directed dependency graph over the full
// Nixpkgs package set from derivation store-path references, and answers
// closure, cycle and path queries against it (spec.md §4.4, C4).
//
// Representation follows the DESIGN NOTES of spec.md §9: a pair of flat
// adjacency lists indexed by vertex id (int32), not a third-party graph
// library with per-neighbor descriptor overhead. All traversals reduce to
// plain slice iteration, which is the only representation that stays fast
// at ~100k nodes / several-hundred-thousand edges.
package depgraph

// Vertex holds the metadata carried alongside each node in the graph.
type Vertex struct {
	ID          string // node id passed to AddNode (internal/pipeline passes the package_id)
	PackageName string
	Version     string
	AttrPath    string
	DrvPath     string
}

// Graph is an immutable, fully-constructed dependency graph.
type Graph struct {
	vertices []Vertex
	idIndex  map[string]int32
	outAdj   [][]int32
	inAdj    [][]int32
}

// NumVertices returns the number of vertices in the graph.
func (g *Graph) NumVertices() int { return len(g.vertices) }

// VertexByID returns the vertex index for a node id, or (-1, false) if
// absent. Lookups on unknown ids are a normal outcome, not an error (spec.md
// §4.4 "Failure semantics").
func (g *Graph) VertexByID(id string) (int32, bool) {
	v, ok := g.idIndex[id]
	return v, ok
}

// Vertex returns the metadata for a vertex index.
func (g *Graph) Vertex(idx int32) Vertex { return g.vertices[idx] }

// Builder incrementally constructs a Graph over two passes, as spec.md
// §4.4 requires: Pass 1 allocates a vertex per node id and records the
// drv_path -> vertex table; Pass 2 (triggered by Build) resolves inputDrvs
// references into edges, skipping self-loops and unresolved targets.
type Builder struct {
	vertices []Vertex
	idIndex  map[string]int32
	drvIndex map[string]int32
	pending  []pendingEdges
}

type pendingEdges struct {
	source     int32
	inputDrvs  []string
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		idIndex:  make(map[string]int32),
		drvIndex: make(map[string]int32),
	}
}

// AddNode performs pass 1 for a single raw record: it allocates (or reuses,
// for records sharing a node id across architectures) a vertex, and queues
// its inputDrvs keys for pass-2 edge resolution. id is the caller's node
// id; internal/pipeline.Load passes the record's package_id, not a
// "<pname>-<version>" string. drvPath is the record's opaque store path.
func (b *Builder) AddNode(id, packageName, version, attrPath, drvPath string, inputDrvs []string) {
	idx, exists := b.idIndex[id]
	if !exists {
		idx = int32(len(b.vertices))
		b.vertices = append(b.vertices, Vertex{
			ID:          id,
			PackageName: packageName,
			Version:     version,
			AttrPath:    attrPath,
			DrvPath:     drvPath,
		})
		b.idIndex[id] = idx
	}
	if drvPath != "" {
		if _, ok := b.drvIndex[drvPath]; !ok {
			b.drvIndex[drvPath] = idx
		}
	}
	if len(inputDrvs) > 0 {
		b.pending = append(b.pending, pendingEdges{source: idx, inputDrvs: inputDrvs})
	}
}

// Build performs pass 2 (edge resolution) and materializes the adjacency
// lists. Edges targeting an unresolvable drv path (a dependency across a
// shard boundary the evaluator didn't cover) are silently dropped; self
// loops are forbidden and dropped too (spec.md §3, §4.4).
func (b *Builder) Build() *Graph {
	n := len(b.vertices)
	outAdj := make([][]int32, n)
	inAdj := make([][]int32, n)
	seen := make(map[[2]int32]bool)
	for _, pe := range b.pending {
		for _, drv := range pe.inputDrvs {
			target, ok := b.drvIndex[drv]
			if !ok || target == pe.source {
				continue
			}
			key := [2]int32{pe.source, target}
			if seen[key] {
				continue
			}
			seen[key] = true
			outAdj[pe.source] = append(outAdj[pe.source], target)
			inAdj[target] = append(inAdj[target], pe.source)
		}
	}
	return &Graph{
		vertices: b.vertices,
		idIndex:  b.idIndex,
		outAdj:   outAdj,
		inAdj:    inAdj,
	}
}
