package nodestore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vk/plangraph/internal/node"
)

func sib(id, prev, next string) node.Execution {
	return node.Execution{ID: id, ParentID: "p", PreviousID: prev, NextID: next}
}

func idsOf(execs []node.Execution) []string {
	out := make([]string, 0, len(execs))
	for _, e := range execs {
		out = append(out, e.ID)
	}
	return out
}

func TestOrderSiblings(t *testing.T) {
	tests := []struct {
		name string
		in   []node.Execution
		want []string
	}{
		{
			name: "empty",
			in:   nil,
			want: []string{},
		},
		{
			name: "already ordered",
			in:   []node.Execution{sib("a", "", "b"), sib("b", "a", "c"), sib("c", "b", "")},
			want: []string{"a", "b", "c"},
		},
		{
			name: "reversed",
			in:   []node.Execution{sib("c", "b", ""), sib("b", "a", "c"), sib("a", "", "b")},
			want: []string{"a", "b", "c"},
		},
		{
			name: "shuffled",
			in:   []node.Execution{sib("b", "a", "c"), sib("c", "b", ""), sib("a", "", "b")},
			want: []string{"a", "b", "c"},
		},
		{
			name: "two independent chains keep head order",
			in:   []node.Execution{sib("y2", "y1", ""), sib("x1", "", "x2"), sib("y1", "", "y2"), sib("x2", "x1", "")},
			want: []string{"x1", "x2", "y1", "y2"},
		},
		{
			name: "previous outside the set starts a chain",
			in:   []node.Execution{sib("b", "a", ""), sib("z", "", "")},
			want: []string{"b", "z"},
		},
		{
			name: "cycle falls back to input order",
			in:   []node.Execution{sib("a", "b", "b"), sib("b", "a", "a")},
			want: []string{"a", "b"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, idsOf(OrderSiblings(tc.in)))
		})
	}
}
