// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package dag

import (
	"fmt"

	"github.com/vk/plangraph/internal/graph"
)

// Roots returns the nodes that are never the target of an edge, in insertion
// order.
func Roots[N graph.Node](g *graph.Graph[N]) []N {
	targeted := make(map[string]struct{})
	for _, e := range g.Edges() {
		targeted[e.To] = struct{}{}
	}

	var roots []N
	for _, n := range g.AllNodes() {
		if _, ok := targeted[n.ID()]; !ok {
			roots = append(roots, n)
		}
	}
	return roots
}

// Leaves returns the nodes without outgoing edges, in insertion order.
func Leaves[N graph.Node](g *graph.Graph[N]) []N {
	var leaves []N
	for _, n := range g.AllNodes() {
		if len(g.EdgesOf(n.ID())) == 0 {
			leaves = append(leaves, n)
		}
	}
	return leaves
}

// TopologicalSort orders every node so that for each edge u -> v, u comes
// before v. It runs a depth-first postorder over AllNodes in insertion order,
// following EdgesOf in insertion order, and reads the finish stack from the
// top. The result for a cyclic graph is unspecified; call DetectCycles first
// when the input is untrusted.
func TopologicalSort[N graph.Node](g *graph.Graph[N]) []N {
	visited := make(map[string]bool, g.Len())
	stack := make([]string, 0, g.Len())

	var visit func(id string)
	visit = func(id string) {
		visited[id] = true
		for _, next := range g.EdgesOf(id) {
			if !visited[next] {
				visit(next)
			}
		}
		stack = append(stack, id)
	}

	for _, n := range g.AllNodes() {
		if !visited[n.ID()] {
			visit(n.ID())
		}
	}

	sorted := make([]N, 0, len(stack))
	for i := len(stack) - 1; i >= 0; i-- {
		n, _ := g.Node(stack[i])
		sorted = append(sorted, n)
	}
	return sorted
}

// DetectCycles checks the graph for cycles. It returns a non-nil error naming
// a node on the first cycle found.
func DetectCycles[N graph.Node](g *graph.Graph[N]) error {
	// permanent: fully explored and known to be acyclic.
	// temporary: on the current recursion stack.
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(id string) error
	visit = func(id string) error {
		if permanent[id] {
			return nil
		}
		if temporary[id] {
			return fmt.Errorf("cycle detected involving node '%s'", id)
		}

		temporary[id] = true
		for _, next := range g.EdgesOf(id) {
			if err := visit(next); err != nil {
				return err
			}
		}
		delete(temporary, id)
		permanent[id] = true
		return nil
	}

	for _, n := range g.AllNodes() {
		if err := visit(n.ID()); err != nil {
			return err
		}
	}
	return nil
}
