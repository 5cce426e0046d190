// Package nodestore defines the read contract for the persisted execution tree
// of a pipeline run.
//
// # Why Node Store Exists
//
// The execution runtime writes one record per step instance while a run
// progresses. Expression resolution only ever reads those records, and only
// in two shapes: a single record by id, and the ordered children of a record.
// This package pins that narrow contract down so resolvers can run against an
// in-memory arena in tests, against PostgreSQL or Redis in production, and
// through a tracing decorator anywhere.
//
// # Ordering
//
// Children MUST be returned in sibling-chain order (previous/next ids).
// Resolvers never re-sort. Backends that cannot return rows in that order use
// OrderSiblings before handing them out.
//
// # Lifecycle and Usage
//
// A store is long-lived and shared by every concurrent resolution. Each
// resolution wraps it in its own treecache.Cache, so a store sees at most one
// read per id and per parent id per resolution.
package nodestore

import (
	"context"
	"errors"

	"github.com/vk/plangraph/internal/node"
)

// ErrNotFound is returned by GetByID when no execution has the given id.
var ErrNotFound = errors.New("node execution not found")

// Store is the read side of the node-execution store.
//
// # Thread-Safety Requirements
//
// Implementations MUST be safe for concurrent use; many resolutions read the
// same store at once.
type Store interface {
	// GetByID returns the execution with the given id, or an error wrapping
	// ErrNotFound.
	GetByID(ctx context.Context, id string) (node.Execution, error)

	// Children returns the direct children of parentID in sibling-chain order.
	// A parent without children yields an empty slice and a nil error.
	Children(ctx context.Context, parentID string) ([]node.Execution, error)
}
