package inmemorystore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/plangraph/internal/node"
	"github.com/vk/plangraph/internal/nodestore"
)

func exec(id, parent, prev, next string) node.Execution {
	return node.Execution{
		ID:         id,
		Plan:       node.PlanNode{Identifier: id},
		ParentID:   parent,
		PreviousID: prev,
		NextID:     next,
		Status:     node.StatusQueued,
	}
}

func ids(execs []node.Execution) []string {
	out := make([]string, 0, len(execs))
	for _, e := range execs {
		out = append(out, e.ID)
	}
	return out
}

func TestStore_GetByID(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Put(exec("root", "", "", "")))

	got, err := s.GetByID(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, "root", got.ID)
	assert.True(t, got.IsRoot())

	_, err = s.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, nodestore.ErrNotFound)
}

func TestStore_PutRejectsEmptyID(t *testing.T) {
	s := New()
	assert.ErrorIs(t, s.Put(node.Execution{}), ErrEmptyID)
}

func TestStore_ChildrenFollowSiblingChain(t *testing.T) {
	s := New()
	ctx := context.Background()
	// Inserted in reverse; the chain says d1 -> d2 -> d3.
	require.NoError(t, s.Put(
		exec("p", "", "", ""),
		exec("d3", "p", "d2", ""),
		exec("d2", "p", "d1", "d3"),
		exec("d1", "p", "", "d2"),
	))

	children, err := s.Children(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, []string{"d1", "d2", "d3"}, ids(children))
}

func TestStore_ChildrenOfLeafIsEmpty(t *testing.T) {
	s := New()
	require.NoError(t, s.Put(exec("p", "", "", "")))

	children, err := s.Children(context.Background(), "p")
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestStore_PutReplaces(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Put(exec("p", "", "", ""), exec("x", "p", "", "y"), exec("y", "p", "x", "")))

	updated := exec("x", "p", "", "y")
	updated.Status = node.StatusSucceeded
	require.NoError(t, s.Put(updated))

	children, err := s.Children(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, ids(children))
	assert.Equal(t, node.StatusSucceeded, children[0].Status)
	assert.Equal(t, 3, s.Len())
}

func TestStore_PutMovesReparentedExecution(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Put(exec("p", "", "", ""), exec("q", "p", "", ""), exec("x", "p", "q", "")))
	require.NoError(t, s.Put(exec("x", "q", "", "")))

	underP, err := s.Children(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, []string{"q"}, ids(underP))

	underQ, err := s.Children(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, ids(underQ))
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Put(exec("root", "", "", "")))

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("child-%d", i)
			if err := s.Put(exec(id, "root", "", "")); err != nil {
				t.Errorf("put %s: %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			got, err := s.GetByID(ctx, fmt.Sprintf("child-%d", i))
			assert.NoError(t, err)
			assert.Equal(t, "root", got.ParentID)
		}(i)
	}
	wg.Wait()

	children, err := s.Children(ctx, "root")
	require.NoError(t, err)
	assert.Len(t, children, n)
}

func TestLoadFile(t *testing.T) {
	s, err := LoadFile("testdata/tree.yaml")
	require.NoError(t, err)
	ctx := context.Background()
	assert.Equal(t, 6, s.Len())

	c, err := s.GetByID(ctx, "c")
	require.NoError(t, err)
	assert.True(t, c.Plan.SkipExpressionChain)
	assert.Equal(t, "a", c.ParentID)

	d, err := s.GetByID(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, "STAGE", d.Plan.Group)
	assert.Equal(t, node.StatusRunning, d.Status)
	assert.JSONEq(t, `{"param":"di1"}`, string(d.Parameters()))

	children, err := s.Children(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, []string{"e", "g", "f"}, ids(children))
	assert.Equal(t, "g", children[2].PreviousID)
	assert.Equal(t, "g", children[0].NextID)

	f := children[2]
	assert.Equal(t, node.StatusErrored, f.Status)
	assert.JSONEq(t, `{"exit_code":1}`, string(f.Parameters()))
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "no root", input: "root: {}\n", wantErr: "no root"},
		{name: "unknown status", input: "root: {id: a, status: paused}\n", wantErr: "unknown status"},
		{name: "child without id", input: "root: {id: a, children: [{status: queued}]}\n", wantErr: `under "a" has no id`},
		{name: "unknown field", input: "root: {id: a, colour: red}\n", wantErr: "failed to decode"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tc.input))
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestLoad_RepeatedIdentifier(t *testing.T) {
	input := `
root:
  id: p
  children:
    - {id: d-1, identifier: d}
    - {id: d-2, identifier: d}
`
	s, err := Load(strings.NewReader(input))
	require.NoError(t, err)

	children, err := s.Children(context.Background(), "p")
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "d", children[0].Plan.Identifier)
	assert.Equal(t, "d", children[1].Plan.Identifier)
	assert.Equal(t, "d-2", children[0].NextID)
}
