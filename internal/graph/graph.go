// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package graph

// Node is a vertex that knows its own identifier.
type Node interface {
	ID() string
}

// Edge is a directed edge between two node identifiers.
type Edge struct {
	From string
	To   string
}

// Graph holds nodes and directed edges in insertion order.
type Graph[N Node] struct {
	order []string
	nodes map[string]N
	// edges holds outgoing targets per source, in insertion order.
	edges map[string][]string
	// edgeSet dedupes edges; key is the Edge itself.
	edgeSet map[Edge]struct{}
}

// New creates an empty graph.
func New[N Node]() *Graph[N] {
	return &Graph[N]{
		nodes:   make(map[string]N),
		edges:   make(map[string][]string),
		edgeSet: make(map[Edge]struct{}),
	}
}

// AddNode inserts n. Adding an identifier that is already present does
// nothing: the stored node and its edges are kept as they are.
func (g *Graph[N]) AddNode(n N) {
	id := n.ID()
	if _, ok := g.nodes[id]; ok {
		return
	}
	g.nodes[id] = n
	g.order = append(g.order, id)
}

// AddEdge creates a directed edge from -> to, adding both endpoints if they
// are absent. Self-loops are not rejected here; avoiding them is the caller's
// job.
func (g *Graph[N]) AddEdge(from, to N) {
	g.AddNode(from)
	g.AddNode(to)
	e := Edge{From: from.ID(), To: to.ID()}
	if _, ok := g.edgeSet[e]; ok {
		return
	}
	g.edgeSet[e] = struct{}{}
	g.edges[e.From] = append(g.edges[e.From], e.To)
}

// EdgesOf returns the identifiers id points to. An unknown id yields an
// empty slice.
func (g *Graph[N]) EdgesOf(id string) []string {
	targets := g.edges[id]
	out := make([]string, len(targets))
	copy(out, targets)
	return out
}

// AllNodes returns all nodes in insertion order.
func (g *Graph[N]) AllNodes() []N {
	out := make([]N, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Node looks up a node by identifier.
func (g *Graph[N]) Node(id string) (N, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Len returns the number of nodes.
func (g *Graph[N]) Len() int {
	return len(g.order)
}

// Edges returns every edge, grouped by source in node insertion order.
func (g *Graph[N]) Edges() []Edge {
	out := make([]Edge, 0, len(g.edgeSet))
	for _, from := range g.order {
		for _, to := range g.edges[from] {
			out = append(out, Edge{From: from, To: to})
		}
	}
	return out
}

// Merge copies the nodes and edges of other into g, keeping other's order.
func (g *Graph[N]) Merge(other *Graph[N]) {
	for _, n := range other.AllNodes() {
		g.AddNode(n)
	}
	for _, e := range other.Edges() {
		g.AddEdge(other.nodes[e.From], other.nodes[e.To])
	}
}
