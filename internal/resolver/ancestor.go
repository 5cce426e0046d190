package resolver

import (
	"context"

	"github.com/vk/plangraph/internal/ctxlog"
	"github.com/vk/plangraph/internal/exprpath"
	"github.com/vk/plangraph/internal/node"
	"github.com/vk/plangraph/internal/treecache"
)

// Aliases maps a shortcut name used as the first path segment to a group
// tag, e.g. "stage" -> "STAGE".
type Aliases map[string]string

// Resolver resolves paths relative to a position in the execution tree.
// The zero value resolves by identifier only. A Resolver holds no per-call
// state and may be shared.
type Resolver struct {
	Aliases Aliases
}

// New returns a Resolver using aliases.
func New(aliases Aliases) *Resolver {
	return &Resolver{Aliases: aliases}
}

// Resolve anchors the first segment of path on the lineage of pos and
// resolves the rest below the anchor.
//
// An alias anchors at the nearest execution, counting from the current one,
// whose group equals the alias tag. Otherwise, or when no such execution
// exists, the first segment anchors at the nearest execution with that
// identifier. Skip-chain executions are never anchors.
func (r *Resolver) Resolve(ctx context.Context, cache *treecache.Cache, pos node.Position, path exprpath.Path) (Value, bool, error) {
	logger := ctxlog.FromContext(ctx)

	anchor, ok, err := r.anchor(ctx, cache, pos, path)
	if err != nil {
		return Value{}, false, err
	}
	if !ok {
		logger.Debug("Resolve: no anchor on lineage.", "path", path.String(), "position", pos.Current())
		return Value{}, false, nil
	}

	_, rest := path.Head()
	val, found, err := NewView(cache, anchor).Lookup(ctx, rest)
	if err != nil {
		return Value{}, false, err
	}
	logger.Debug("Resolve: done.", "path", path.String(), "anchor", anchor.ID, "found", found)
	return val, found, nil
}

// ResolveString parses raw, which may use the `<+...>` placeholder form, and
// resolves it.
func (r *Resolver) ResolveString(ctx context.Context, cache *treecache.Cache, pos node.Position, raw string) (Value, bool, error) {
	path, err := exprpath.Parse(raw)
	if err != nil {
		return Value{}, false, err
	}
	return r.Resolve(ctx, cache, pos, path)
}

func (r *Resolver) anchor(ctx context.Context, cache *treecache.Cache, pos node.Position, path exprpath.Path) (node.Execution, bool, error) {
	first, _ := path.Head()
	if first.Name == "" {
		return node.Execution{}, false, nil
	}
	// The anchor is a single execution; only [0] addresses it.
	if first.HasIndex() && first.Index != 0 {
		return node.Execution{}, false, nil
	}

	lineage := pos.Lineage()
	if tag, isAlias := r.Aliases[first.Name]; isAlias {
		e, ok, err := nearest(ctx, cache, lineage, func(e node.Execution) bool {
			return e.Plan.Group == tag
		})
		if err != nil || ok {
			return e, ok, err
		}
	}
	return nearest(ctx, cache, lineage, func(e node.Execution) bool {
		return e.Plan.Identifier == first.Name
	})
}

func nearest(ctx context.Context, cache *treecache.Cache, lineage []string, match func(node.Execution) bool) (node.Execution, bool, error) {
	for _, id := range lineage {
		e, err := cache.Get(ctx, id)
		if err != nil {
			return node.Execution{}, false, err
		}
		if e.Plan.SkipExpressionChain {
			continue
		}
		if match(e) {
			return e, true, nil
		}
	}
	return node.Execution{}, false, nil
}
