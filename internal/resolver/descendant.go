package resolver

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/vk/plangraph/internal/exprpath"
	"github.com/vk/plangraph/internal/node"
	"github.com/vk/plangraph/internal/treecache"
)

// CurrentStatus is the reserved field holding the status rollup of an
// execution's subtree.
const CurrentStatus = "currentStatus"

// Group is the set of visible children sharing one identifier, in sibling
// order.
type Group struct {
	Identifier string
	Members    []*View
}

// View is the lazily expanded property view of one execution and everything
// below it. It is bound to the cache it was created with and shares its
// lifetime.
type View struct {
	cache *treecache.Cache
	exec  node.Execution

	params  *cty.Value
	groups  []Group
	grouped bool
}

// NewView returns the view rooted at exec. Nothing is read until a lookup
// needs it.
func NewView(cache *treecache.Cache, exec node.Execution) *View {
	return &View{cache: cache, exec: exec}
}

// Execution returns the execution the view is rooted at.
func (v *View) Execution() node.Execution {
	return v.exec
}

// Parameters returns the execution's own property bag: the resolved
// parameters when present, the plan defaults otherwise. An execution without
// parameters has an empty object.
func (v *View) Parameters() (cty.Value, error) {
	if v.params != nil {
		return *v.params, nil
	}
	val := cty.EmptyObjectVal
	if raw := v.exec.Parameters(); len(raw) > 0 {
		ty, err := ctyjson.ImpliedType(raw)
		if err != nil {
			return cty.NilVal, fmt.Errorf("execution %q: invalid parameters: %w", v.exec.ID, err)
		}
		val, err = ctyjson.Unmarshal(raw, ty)
		if err != nil {
			return cty.NilVal, fmt.Errorf("execution %q: invalid parameters: %w", v.exec.ID, err)
		}
	}
	v.params = &val
	return val, nil
}

// Groups returns the visible children grouped by identifier. Groups appear in
// the order of their first member.
func (v *View) Groups(ctx context.Context) ([]Group, error) {
	if v.grouped {
		return v.groups, nil
	}
	visible, err := visibleChildren(ctx, v.cache, v.exec.ID)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var groups []Group
	for _, c := range visible {
		member := NewView(v.cache, c)
		i, ok := index[c.Plan.Identifier]
		if !ok {
			index[c.Plan.Identifier] = len(groups)
			groups = append(groups, Group{Identifier: c.Plan.Identifier, Members: []*View{member}})
			continue
		}
		groups[i].Members = append(groups[i].Members, member)
	}

	v.groups = groups
	v.grouped = true
	return groups, nil
}

// Lookup resolves path relative to the view. An empty path is the view
// itself.
//
// A segment is matched against the reserved currentStatus field first, then
// against the execution's own parameters, then against the child groups. An
// index selects a member of a group (a single child counts as a group of
// one) or an element of a list parameter.
func (v *View) Lookup(ctx context.Context, path exprpath.Path) (Value, bool, error) {
	if path.Len() == 0 {
		return bag(v), true, nil
	}
	seg, rest := path.Head()

	if seg.Name == CurrentStatus {
		if seg.HasIndex() || rest.Len() > 0 {
			return Value{}, false, nil
		}
		status, err := Rollup(ctx, v.cache, v.exec)
		if err != nil {
			return Value{}, false, err
		}
		return scalar(cty.StringVal(status.String())), true, nil
	}

	params, err := v.Parameters()
	if err != nil {
		return Value{}, false, err
	}
	if _, ok := attr(params, seg.Name); ok {
		val, ok := traverse(params, path)
		if !ok {
			return Value{}, false, nil
		}
		return scalar(val), true, nil
	}

	groups, err := v.Groups(ctx)
	if err != nil {
		return Value{}, false, err
	}
	for _, g := range groups {
		if g.Identifier != seg.Name {
			continue
		}
		switch {
		case seg.HasIndex():
			if seg.Index >= len(g.Members) {
				return Value{}, false, nil
			}
			return g.Members[seg.Index].Lookup(ctx, rest)
		case len(g.Members) == 1:
			return g.Members[0].Lookup(ctx, rest)
		case rest.Len() == 0:
			return sequence(g.Members), true, nil
		default:
			// A repeated step needs an index before its fields.
			return Value{}, false, nil
		}
	}
	return Value{}, false, nil
}

// Materialize expands the view into plain Go data: the parameters with one
// entry per child group added (a map for a single child, a slice for a
// repeated one). Parameters win over a child group of the same name.
func (v *View) Materialize(ctx context.Context) (map[string]any, error) {
	params, err := v.Parameters()
	if err != nil {
		return nil, err
	}
	out, _ := ctyToGo(params).(map[string]any)
	if out == nil {
		out = make(map[string]any)
	}

	groups, err := v.Groups(ctx)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		if _, taken := out[g.Identifier]; taken {
			continue
		}
		if len(g.Members) == 1 {
			m, err := g.Members[0].Materialize(ctx)
			if err != nil {
				return nil, err
			}
			out[g.Identifier] = m
			continue
		}
		seq, err := sequence(g.Members).GoValue(ctx)
		if err != nil {
			return nil, err
		}
		out[g.Identifier] = seq
	}
	return out, nil
}

// visibleChildren returns the children of parentID with every skip-chain
// child replaced by its own visible children.
func visibleChildren(ctx context.Context, cache *treecache.Cache, parentID string) ([]node.Execution, error) {
	kids, err := cache.ChildrenOf(ctx, parentID)
	if err != nil {
		return nil, err
	}
	out := make([]node.Execution, 0, len(kids))
	for _, k := range kids {
		if !k.Plan.SkipExpressionChain {
			out = append(out, k)
			continue
		}
		lifted, err := visibleChildren(ctx, cache, k.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, lifted...)
	}
	return out, nil
}

// traverse applies path to a parameter value.
func traverse(val cty.Value, path exprpath.Path) (cty.Value, bool) {
	for _, seg := range path.Segments {
		var ok bool
		if val, ok = attr(val, seg.Name); !ok {
			return cty.NilVal, false
		}
		if seg.HasIndex() {
			if val, ok = index(val, seg.Index); !ok {
				return cty.NilVal, false
			}
		}
	}
	return val, true
}

func attr(val cty.Value, name string) (cty.Value, bool) {
	if val.IsNull() || !val.IsKnown() {
		return cty.NilVal, false
	}
	ty := val.Type()
	switch {
	case ty.IsObjectType():
		if !ty.HasAttribute(name) {
			return cty.NilVal, false
		}
		return val.GetAttr(name), true
	case ty.IsMapType():
		key := cty.StringVal(name)
		if !val.HasIndex(key).True() {
			return cty.NilVal, false
		}
		return val.Index(key), true
	default:
		return cty.NilVal, false
	}
}

func index(val cty.Value, i int) (cty.Value, bool) {
	if val.IsNull() || !val.IsKnown() {
		return cty.NilVal, false
	}
	ty := val.Type()
	if !ty.IsListType() && !ty.IsTupleType() {
		return cty.NilVal, false
	}
	if i >= val.LengthInt() {
		return cty.NilVal, false
	}
	return val.Index(cty.NumberIntVal(int64(i))), true
}
