package resolver

import (
	"context"
	"fmt"
	"math/big"

	"github.com/zclconf/go-cty/cty"
)

// Kind tells which field of a Value is set.
type Kind int

const (
	// KindScalar is a parameter value or a status. Object and list
	// parameters are scalars too; they are data, not executions.
	KindScalar Kind = iota + 1
	// KindBag is a single execution exposed as a nested property view.
	KindBag
	// KindSequence is an ordered group of executions sharing an identifier.
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindBag:
		return "bag"
	case KindSequence:
		return "sequence"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is the result of a successful resolution.
type Value struct {
	Kind     Kind
	Scalar   cty.Value
	Bag      *View
	Sequence []*View
}

func scalar(v cty.Value) Value {
	return Value{Kind: KindScalar, Scalar: v}
}

func bag(v *View) Value {
	return Value{Kind: KindBag, Bag: v}
}

func sequence(vs []*View) Value {
	return Value{Kind: KindSequence, Sequence: vs}
}

// GoValue converts the value to plain Go data: map[string]any, []any,
// string, bool, int64, float64 or nil. Bags and sequences are expanded
// fully, which reads the whole subtree through the cache.
func (v Value) GoValue(ctx context.Context) (any, error) {
	switch v.Kind {
	case KindScalar:
		return ctyToGo(v.Scalar), nil
	case KindBag:
		return v.Bag.Materialize(ctx)
	case KindSequence:
		out := make([]any, 0, len(v.Sequence))
		for _, member := range v.Sequence {
			m, err := member.Materialize(ctx)
			if err != nil {
				return nil, err
			}
			out = append(out, m)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown value kind %s", v.Kind)
	}
}

// ctyToGo walks the closed set of cty shapes parameters can take.
func ctyToGo(v cty.Value) any {
	if v.IsNull() || !v.IsKnown() {
		return nil
	}
	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString()
	case ty == cty.Bool:
		return v.True()
	case ty == cty.Number:
		return numberToGo(v.AsBigFloat())
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			k, elem := it.Element()
			out[k.AsString()] = ctyToGo(elem)
		}
		return out
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			out = append(out, ctyToGo(elem))
		}
		return out
	default:
		return nil
	}
}

func numberToGo(f *big.Float) any {
	if f.IsInt() {
		if i, acc := f.Int64(); acc == big.Exact {
			return i
		}
	}
	out, _ := f.Float64()
	return out
}
