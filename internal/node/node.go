// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package node defines the authored and runtime shapes of a pipeline step:
// the immutable PlanNode produced at compile time and the mutable Execution
// record the runtime persists for every step instance of a run.
//
// Executions reference each other by id only (parent, previous, next). The
// tree is an arena keyed by id, never a web of pointers.
package node

import (
	"bytes"
	"encoding/json"
)

// PlanNode is a single authored step definition. It is created by the
// compiler from a section and never mutated afterwards.
type PlanNode struct {
	Identifier string
	Name       string
	StepType   string
	// Group is a coarse category tag, e.g. "STAGE". Empty when untagged.
	Group string
	// SkipExpressionChain hides the node from expression paths. Its children
	// are exposed as if they belonged to the node's parent.
	SkipExpressionChain bool
	// DefaultParameters is a JSON object used when no runtime override exists.
	DefaultParameters json.RawMessage
}

// ID returns the plan node identifier. It makes PlanNode usable as a vertex
// of graph.Graph.
func (p PlanNode) ID() string {
	return p.Identifier
}

// Execution is one runtime instance of a PlanNode within a pipeline run.
type Execution struct {
	ID   string
	Plan PlanNode

	// ParentID is empty for the root of the run.
	ParentID   string
	PreviousID string
	NextID     string

	Status Status
	// ResolvedParameters overrides Plan.DefaultParameters once computed.
	ResolvedParameters json.RawMessage
}

// IsRoot reports whether the execution has no parent.
func (e Execution) IsRoot() bool {
	return e.ParentID == ""
}

// Parameters returns the property bag the execution exposes to expressions:
// the resolved parameters when present, the plan defaults otherwise. A JSON
// null counts as absent.
func (e Execution) Parameters() json.RawMessage {
	if present(e.ResolvedParameters) {
		return e.ResolvedParameters
	}
	if present(e.Plan.DefaultParameters) {
		return e.Plan.DefaultParameters
	}
	return nil
}

func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// Position is the chain of execution ids from the run's root to the node an
// expression is evaluated for.
type Position []string

// Current returns the id of the evaluation anchor, or "" for an empty position.
func (p Position) Current() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Lineage returns the ids from the current node up to the root.
func (p Position) Lineage() []string {
	out := make([]string, len(p))
	for i, id := range p {
		out[len(p)-1-i] = id
	}
	return out
}

// Enter returns a new position one level deeper. The receiver is not modified.
func (p Position) Enter(id string) Position {
	out := make(Position, len(p), len(p)+1)
	copy(out, p)
	return append(out, id)
}
