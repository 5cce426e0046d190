// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package compiler

import (
	"fmt"

	"github.com/vk/plangraph/internal/dag"
	"github.com/vk/plangraph/internal/graph"
	"github.com/vk/plangraph/internal/node"
)

// PlanGraph is the graph type the compiler produces.
type PlanGraph = graph.Graph[node.PlanNode]

// Section is one authoring construct. It expands into a small self-contained
// graph; the compiler chains consecutive sections together.
type Section interface {
	// Expand builds the section's own graph. The returned warnings are lint
	// findings that do not stop compilation.
	Expand() (*PlanGraph, []Warning, error)
	// Kind names the construct for logs and errors.
	Kind() string
}

// StepSection holds exactly one step.
type StepSection struct {
	Node node.PlanNode
}

func (s StepSection) Kind() string { return "step" }

// Expand returns a one-node graph.
func (s StepSection) Expand() (*PlanGraph, []Warning, error) {
	if s.Node.Identifier == "" {
		return nil, nil, fmt.Errorf("%w: step section has no identifier", ErrEmptySection)
	}
	g := graph.New[node.PlanNode]()
	g.AddNode(s.Node)
	return g, nil, nil
}

// ParallelSection holds steps that run concurrently. No edges are created
// among them.
type ParallelSection struct {
	Nodes []node.PlanNode
}

func (s ParallelSection) Kind() string { return "parallel" }

// Expand returns a graph of unconnected nodes.
func (s ParallelSection) Expand() (*PlanGraph, []Warning, error) {
	g := graph.New[node.PlanNode]()
	for _, n := range s.Nodes {
		if err := addUnique(g, n); err != nil {
			return nil, nil, err
		}
	}
	return g, nil, nil
}

// SubGraphNode is a step inside a sub-graph with its declared dependencies.
type SubGraphNode struct {
	Node      node.PlanNode
	DependsOn []string
}

// SubGraphSection holds steps wired by explicit dependencies. It is the only
// section that can express a DAG that is not a chain.
type SubGraphSection struct {
	Nodes []SubGraphNode
}

func (s SubGraphSection) Kind() string { return "graph" }

// Expand adds every node, then an edge dep -> node per dependency found among
// the section's own nodes. Unknown dependencies are treated as satisfied and
// reported as warnings.
func (s SubGraphSection) Expand() (*PlanGraph, []Warning, error) {
	g := graph.New[node.PlanNode]()
	for _, sn := range s.Nodes {
		if err := addUnique(g, sn.Node); err != nil {
			return nil, nil, err
		}
	}

	var warnings []Warning
	for _, sn := range s.Nodes {
		for _, depID := range sn.DependsOn {
			dep, ok := g.Node(depID)
			if !ok {
				warnings = append(warnings, Warning{
					Identifier: sn.Node.Identifier,
					Message:    fmt.Sprintf("depends on unknown step %q, dependency ignored", depID),
				})
				continue
			}
			g.AddEdge(dep, sn.Node)
		}
	}

	if err := dag.DetectCycles(g); err != nil {
		return nil, nil, err
	}
	return g, warnings, nil
}

func addUnique(g *PlanGraph, n node.PlanNode) error {
	if n.Identifier == "" {
		return fmt.Errorf("%w: step has no identifier", ErrEmptySection)
	}
	if _, exists := g.Node(n.Identifier); exists {
		return fmt.Errorf("%w: %q", ErrDuplicateIdentifier, n.Identifier)
	}
	g.AddNode(n)
	return nil
}
