// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package graph provides the minimal directed graph the compiler builds: typed
// vertices carrying their own identifier, and directed edges between those
// identifiers.
//
// # Ordering
//
// Every container in this package preserves insertion order. AllNodes returns
// vertices in the order they were first added, and EdgesOf returns targets in
// the order the edges were first added. The algorithms in package dag rely on
// this to produce the same execution order for the same authoring input on
// every run.
//
// # Lifecycle
//
//  1. **Created** empty by the compiler, once per section and once for the
//     whole pipeline.
//  2. **Populated** with AddNode / AddEdge / Merge while sections are processed.
//  3. **Read-only** afterwards. A compiled graph is never mutated again.
//
// # Thread-Safety
//
// A Graph is not safe for concurrent mutation. Compilation is single-threaded;
// once compiled, concurrent reads are safe.
package graph
