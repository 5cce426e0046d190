// internal/exprpath/parser.go
package exprpath

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

const (
	placeholderOpen  = "<+"
	placeholderClose = ">"
)

// Unwrap strips the `<+...>` placeholder form, if present.
func Unwrap(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, placeholderOpen) && strings.HasSuffix(s, placeholderClose) {
		s = strings.TrimSpace(s[len(placeholderOpen) : len(s)-len(placeholderClose)])
	}
	return s
}

// Parse creates a Path from its string form.
func Parse(raw string) (Path, error) {
	src := Unwrap(raw)
	if src == "" {
		return Path{}, fmt.Errorf("path cannot be empty")
	}

	traversal, diags := hclsyntax.ParseTraversalAbs([]byte(src), "<path>", hcl.InitialPos)
	if diags.HasErrors() {
		return Path{}, fmt.Errorf("invalid path %q: %s", src, diags.Error())
	}
	return FromTraversal(traversal)
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level constants.
func MustParse(raw string) Path {
	p, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// FromTraversal converts an absolute HCL traversal into a Path. Numeric
// indexes attach to the preceding segment; string indexes start a new
// segment, so `a["b"]` and `a.b` are the same path.
func FromTraversal(traversal hcl.Traversal) (Path, error) {
	var p Path
	for _, step := range traversal {
		switch s := step.(type) {
		case hcl.TraverseRoot:
			p.Segments = append(p.Segments, NewSegment(s.Name))
		case hcl.TraverseAttr:
			p.Segments = append(p.Segments, NewSegment(s.Name))
		case hcl.TraverseIndex:
			if err := p.applyIndex(s.Key); err != nil {
				return Path{}, err
			}
		default:
			return Path{}, fmt.Errorf("unsupported traversal step %T", step)
		}
	}
	if len(p.Segments) == 0 {
		return Path{}, fmt.Errorf("path cannot be empty")
	}
	return p, nil
}

func (p *Path) applyIndex(key cty.Value) error {
	if key.IsNull() || !key.IsKnown() {
		return fmt.Errorf("index must be a known value")
	}
	switch key.Type() {
	case cty.String:
		p.Segments = append(p.Segments, NewSegment(key.AsString()))
		return nil
	case cty.Number:
		var idx int
		if err := gocty.FromCtyValue(key, &idx); err != nil {
			return fmt.Errorf("index must be a whole number: %w", err)
		}
		if idx < 0 {
			return fmt.Errorf("index must not be negative, got %d", idx)
		}
		last := &p.Segments[len(p.Segments)-1]
		if last.HasIndex() {
			return fmt.Errorf("segment %q already has an index", last.Name)
		}
		last.Index = idx
		return nil
	default:
		return fmt.Errorf("unsupported index type %s", key.Type().FriendlyName())
	}
}
