// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package resolver answers path expressions such as `stage.e.param`,
// `d[1].param` or `stage.currentStatus` against a live execution tree.
//
// A Resolver anchors the first path segment on the lineage of the current
// position, by alias (group tag) or by identifier. A View rooted at the anchor
// resolves the remaining segments downward: its own parameters, then its
// visible children grouped by identifier. Children of skip-chain executions
// are lifted into their parent's view, transitively.
//
// All reads go through a call-scoped treecache.Cache and happen lazily, on
// the lookups that need them. A path that does not exist is a miss
// (found == false, nil error); store failures are returned unchanged.
package resolver
