// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package compiler turns an ordered list of authoring sections into a single
// plan graph and a deterministic execution order.
//
// Sections are processed in authoring order. Each one expands into its own
// small graph; before it is merged, every leaf of the graph built so far gets
// an edge to every root of the new section. Section N+1 therefore cannot
// start before all of section N's terminal steps are done, whatever shape
// section N has inside.
package compiler

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/plangraph/internal/ctxlog"
	"github.com/vk/plangraph/internal/dag"
	"github.com/vk/plangraph/internal/graph"
	"github.com/vk/plangraph/internal/node"
)

var (
	// ErrEmptySection is returned when a section yields no usable step where
	// one is required.
	ErrEmptySection = errors.New("empty section")
	// ErrDuplicateIdentifier is returned when two steps share an identifier.
	ErrDuplicateIdentifier = errors.New("duplicate step identifier")
)

// Warning is a lint finding that did not stop compilation.
type Warning struct {
	Identifier string
	Message    string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Identifier, w.Message)
}

// Result is a compiled pipeline.
type Result struct {
	Graph *PlanGraph
	// ExecutionOrder lists plan node identifiers in topological order.
	ExecutionOrder []string
	Warnings       []Warning
}

// Nodes returns the plan nodes in execution order.
func (r *Result) Nodes() []node.PlanNode {
	out := make([]node.PlanNode, 0, len(r.ExecutionOrder))
	for _, id := range r.ExecutionOrder {
		n, _ := r.Graph.Node(id)
		out = append(out, n)
	}
	return out
}

// Predecessors returns the identifiers that must finish before id can start.
func (r *Result) Predecessors(id string) []string {
	var preds []string
	for _, e := range r.Graph.Edges() {
		if e.To == id {
			preds = append(preds, e.From)
		}
	}
	return preds
}

// Compile builds the plan graph for sections.
func Compile(ctx context.Context, sections ...Section) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Compile: starting.", "sections", len(sections))

	g := graph.New[node.PlanNode]()
	var warnings []Warning

	for i, section := range sections {
		sectionGraph, sectionWarnings, err := section.Expand()
		if err != nil {
			return nil, fmt.Errorf("section %d (%s): %w", i, section.Kind(), err)
		}
		for _, w := range sectionWarnings {
			logger.Warn("Compile: lint warning.", "section", i, "step", w.Identifier, "warning", w.Message)
		}
		warnings = append(warnings, sectionWarnings...)

		if sectionGraph.Len() == 0 {
			logger.Debug("Compile: skipping empty section.", "section", i, "kind", section.Kind())
			continue
		}

		for _, n := range sectionGraph.AllNodes() {
			if _, exists := g.Node(n.Identifier); exists {
				return nil, fmt.Errorf("section %d (%s): %w: %q", i, section.Kind(), ErrDuplicateIdentifier, n.Identifier)
			}
		}

		// The frontier is taken before merging; the edges are added after so
		// node insertion order follows authoring order.
		leaves := dag.Leaves(g)
		roots := dag.Roots(sectionGraph)
		g.Merge(sectionGraph)
		for _, leaf := range leaves {
			for _, root := range roots {
				g.AddEdge(leaf, root)
			}
		}
		logger.Debug("Compile: merged section.", "section", i, "kind", section.Kind(), "leaves", len(leaves), "roots", len(roots))
	}

	sorted := dag.TopologicalSort(g)
	order := make([]string, 0, len(sorted))
	for _, n := range sorted {
		order = append(order, n.Identifier)
	}

	logger.Debug("Compile: finished.", "nodes", g.Len(), "warnings", len(warnings))
	return &Result{
		Graph:          g,
		ExecutionOrder: order,
		Warnings:       warnings,
	}, nil
}
