// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package depgraph

// NodePayload is the per-vertex record C8 (internal/nodestore) serializes
// and uploads: vertex metadata plus its direct/transitive dependency and
// dependent id lists and counts (spec.md §4.4 "Per-node payload").
type NodePayload struct {
	Vertex              Vertex
	DirectDependencies  []string
	DirectDependents    []string
	AllDependencies     []string
	AllDependents       []string
	DirectDependencyCount int
	DirectDependentCount  int
	AllDependencyCount    int
	AllDependentCount     int
}

func (g *Graph) idsOf(indices []int32) []string {
	if len(indices) == 0 {
		return nil
	}
	out := make([]string, len(indices))
	for i, idx := range indices {
		out[i] = g.vertices[idx].ID
	}
	return out
}

// NodePayload assembles the full per-node payload for the vertex at idx.
func (g *Graph) NodePayload(idx int32) NodePayload {
	direct := g.DirectDependencies(idx)
	directIn := g.DirectDependents(idx)
	all := g.TransitiveDependencies(idx)
	allIn := g.TransitiveDependents(idx)
	return NodePayload{
		Vertex:                g.vertices[idx],
		DirectDependencies:    g.idsOf(direct),
		DirectDependents:      g.idsOf(directIn),
		AllDependencies:       g.idsOf(all),
		AllDependents:         g.idsOf(allIn),
		DirectDependencyCount: len(direct),
		DirectDependentCount:  len(directIn),
		AllDependencyCount:    len(all),
		AllDependentCount:     len(allIn),
	}
}

// AllNodePayloads returns the payload for every vertex, indexed by vertex
// index (so callers can pair it back with g.Vertex(idx)).
func (g *Graph) AllNodePayloads() []NodePayload {
	out := make([]NodePayload, len(g.vertices))
	for i := range g.vertices {
		out[i] = g.NodePayload(int32(i))
	}
	return out
}
