// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package depgraph

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// buildLinear builds A -> B -> C (A depends on B, B depends on C).
func buildLinear(t *testing.T) (*Graph, map[string]int32) {
	t.Helper()
	b := NewBuilder()
	b.AddNode("a-1", "a", "1", "pkgs.a", "/nix/store/a.drv", []string{"/nix/store/b.drv"})
	b.AddNode("b-1", "b", "1", "pkgs.b", "/nix/store/b.drv", []string{"/nix/store/c.drv"})
	b.AddNode("c-1", "c", "1", "pkgs.c", "/nix/store/c.drv", nil)
	g := b.Build()
	ids := map[string]int32{}
	for _, id := range []string{"a-1", "b-1", "c-1"} {
		idx, ok := g.VertexByID(id)
		if !ok {
			t.Fatalf("vertex %q not found", id)
		}
		ids[id] = idx
	}
	return g, ids
}

func TestBuilder_DropsSelfLoopsAndUnresolvedEdges(t *testing.T) {
	b := NewBuilder()
	b.AddNode("a-1", "a", "1", "pkgs.a", "/nix/store/a.drv", []string{"/nix/store/a.drv", "/nix/store/missing.drv"})
	g := b.Build()
	idx, ok := g.VertexByID("a-1")
	if !ok {
		t.Fatalf("vertex a-1 not found")
	}
	if deps := g.DirectDependencies(idx); len(deps) != 0 {
		t.Errorf("DirectDependencies = %v, want empty (self-loop and unresolved dep must be dropped)", deps)
	}
}

func TestBuilder_DedupesParallelEdges(t *testing.T) {
	b := NewBuilder()
	b.AddNode("a-1", "a", "1", "pkgs.a", "/nix/store/a.drv", []string{"/nix/store/b.drv", "/nix/store/b.drv"})
	b.AddNode("b-1", "b", "1", "pkgs.b", "/nix/store/b.drv", nil)
	g := b.Build()
	idx, _ := g.VertexByID("a-1")
	if deps := g.DirectDependencies(idx); len(deps) != 1 {
		t.Errorf("DirectDependencies = %v, want exactly one edge to b-1", deps)
	}
}

func TestDirectDependencies(t *testing.T) {
	g, ids := buildLinear(t)
	if diff := cmp.Diff([]int32{ids["b-1"]}, g.DirectDependencies(ids["a-1"])); diff != "" {
		t.Errorf("DirectDependencies(a) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int32{ids["a-1"]}, g.DirectDependents(ids["b-1"])); diff != "" {
		t.Errorf("DirectDependents(b) mismatch (-want +got):\n%s", diff)
	}
}

func TestTransitiveDependencies(t *testing.T) {
	g, ids := buildLinear(t)
	got := g.TransitiveDependencies(ids["a-1"])
	if diff := cmp.Diff([]int32{ids["b-1"], ids["c-1"]}, got, cmpopts.SortSlices(func(a, b int32) bool { return a < b })); diff != "" {
		t.Errorf("TransitiveDependencies(a) mismatch (-want +got):\n%s", diff)
	}
	if got := g.TransitiveDependencies(ids["c-1"]); len(got) != 0 {
		t.Errorf("TransitiveDependencies(c) = %v, want empty", got)
	}
}

func TestShortestPath(t *testing.T) {
	g, ids := buildLinear(t)
	path, ok := g.ShortestPath(ids["a-1"], ids["c-1"])
	if !ok {
		t.Fatalf("ShortestPath(a, c) returned ok=false")
	}
	want := []int32{ids["a-1"], ids["b-1"], ids["c-1"]}
	if diff := cmp.Diff(want, path); diff != "" {
		t.Errorf("ShortestPath mismatch (-want +got):\n%s", diff)
	}
	if _, ok := g.ShortestPath(ids["c-1"], ids["a-1"]); ok {
		t.Errorf("ShortestPath(c, a) = ok, want unreachable")
	}
}

// TestGraph_CycleDetection covers a three-node cycle: A -> B -> C -> A.
func TestGraph_CycleDetection(t *testing.T) {
	b := NewBuilder()
	b.AddNode("a-1", "a", "1", "pkgs.a", "/nix/store/a.drv", []string{"/nix/store/b.drv"})
	b.AddNode("b-1", "b", "1", "pkgs.b", "/nix/store/b.drv", []string{"/nix/store/c.drv"})
	b.AddNode("c-1", "c", "1", "pkgs.c", "/nix/store/c.drv", []string{"/nix/store/a.drv"})
	g := b.Build()

	idxA, _ := g.VertexByID("a-1")
	idxB, _ := g.VertexByID("b-1")
	idxC, _ := g.VertexByID("c-1")

	cycles := g.Cycles()
	if len(cycles) == 0 {
		t.Fatalf("Cycles() returned none, want at least one 3-cycle")
	}
	found := false
	for _, c := range cycles {
		if len(c) != 3 {
			continue
		}
		members := map[int32]bool{c[0]: true, c[1]: true, c[2]: true}
		if members[idxA] && members[idxB] && members[idxC] {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("Cycles() = %v, want a 3-cycle containing {A,B,C}", cycles)
	}

	allDeps := g.TransitiveDependencies(idxA)
	got := map[int32]bool{}
	for _, v := range allDeps {
		got[v] = true
	}
	if !got[idxB] || !got[idxC] {
		t.Errorf("all_dependencies(A) = %v, want it to contain B and C", allDeps)
	}
}

func TestStats(t *testing.T) {
	g, _ := buildLinear(t)
	st, err := g.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if st.TotalPackages != 3 {
		t.Errorf("TotalPackages = %d, want 3", st.TotalPackages)
	}
	if st.TotalDependencies != 2 {
		t.Errorf("TotalDependencies = %d, want 2", st.TotalDependencies)
	}
	if st.WeaklyConnected != 1 {
		t.Errorf("WeaklyConnected = %d, want 1", st.WeaklyConnected)
	}
	if st.StronglyConnected != 3 {
		t.Errorf("StronglyConnected = %d, want 3 (acyclic graph, every vertex its own SCC)", st.StronglyConnected)
	}
	if st.ZeroOutCount != 1 {
		t.Errorf("ZeroOutCount = %d, want 1 (only C has no dependencies)", st.ZeroOutCount)
	}
	if st.ZeroInCount != 1 {
		t.Errorf("ZeroInCount = %d, want 1 (only A has no dependents)", st.ZeroInCount)
	}
}

func TestStats_CycleIsSingleSCC(t *testing.T) {
	b := NewBuilder()
	b.AddNode("a-1", "a", "1", "pkgs.a", "/nix/store/a.drv", []string{"/nix/store/b.drv"})
	b.AddNode("b-1", "b", "1", "pkgs.b", "/nix/store/b.drv", []string{"/nix/store/c.drv"})
	b.AddNode("c-1", "c", "1", "pkgs.c", "/nix/store/c.drv", []string{"/nix/store/a.drv"})
	g := b.Build()
	st, err := g.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if st.StronglyConnected != 1 {
		t.Errorf("StronglyConnected = %d, want 1 (A,B,C form a single cycle)", st.StronglyConnected)
	}
	if st.WeaklyConnected != 1 {
		t.Errorf("WeaklyConnected = %d, want 1", st.WeaklyConnected)
	}
}

func TestNodePayload(t *testing.T) {
	g, ids := buildLinear(t)
	p := g.NodePayload(ids["a-1"])
	if p.Vertex.ID != "a-1" {
		t.Errorf("Vertex.ID = %q, want a-1", p.Vertex.ID)
	}
	if diff := cmp.Diff([]string{"b-1"}, p.DirectDependencies); diff != "" {
		t.Errorf("DirectDependencies mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b-1", "c-1"}, p.AllDependencies, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Errorf("AllDependencies mismatch (-want +got):\n%s", diff)
	}
	if p.AllDependencyCount != 2 {
		t.Errorf("AllDependencyCount = %d, want 2", p.AllDependencyCount)
	}
}
