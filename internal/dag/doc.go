// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package dag holds the algorithms the compiler runs over a graph.Graph:
// finding roots and leaves, checking for cycles, and producing a deterministic
// topological order.
//
// None of the functions mutate the graph. All of them walk nodes and edges in
// the graph's insertion order, so identical input always yields identical
// output.
package dag
