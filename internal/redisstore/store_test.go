package redisstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/plangraph/internal/node"
	"github.com/vk/plangraph/internal/nodestore"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, Options{Prefix: "test:"}), mr
}

func execution(id, parent, prev, next string, status node.Status) node.Execution {
	return node.Execution{
		ID:         id,
		Plan:       node.PlanNode{Identifier: "d", Name: "Deploy", StepType: "deploy"},
		ParentID:   parent,
		PreviousID: prev,
		NextID:     next,
		Status:     status,
	}
}

func TestStore_RoundTrip(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	in := execution("d1", "p", "", "", node.StatusFailed)
	in.Plan.Group = "STAGE"
	in.Plan.SkipExpressionChain = true
	in.Plan.DefaultParameters = []byte(`{"env":"prod"}`)
	in.ResolvedParameters = []byte(`{"env":"staging"}`)
	require.NoError(t, s.Put(ctx, in))

	assert.True(t, mr.Exists("test:exec:d1"))
	out, err := s.GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, in.Plan.Identifier, out.Plan.Identifier)
	assert.Equal(t, "STAGE", out.Plan.Group)
	assert.True(t, out.Plan.SkipExpressionChain)
	assert.Equal(t, node.StatusFailed, out.Status)
	assert.JSONEq(t, `{"env":"staging"}`, string(out.Parameters()))
}

func TestStore_GetByIDNotFound(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, nodestore.ErrNotFound)
}

func TestStore_ChildrenFollowSiblingChain(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx,
		execution("p", "", "", "", node.StatusRunning),
		execution("d2", "p", "d1", "", node.StatusQueued),
		execution("d1", "p", "", "d2", node.StatusSucceeded),
	))

	children, err := s.Children(ctx, "p")
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "d1", children[0].ID)
	assert.Equal(t, "d2", children[1].ID)
}

func TestStore_RePutKeepsSlot(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx,
		execution("x", "p", "", "", node.StatusRunning),
		execution("y", "p", "", "", node.StatusRunning),
	))
	require.NoError(t, s.Put(ctx, execution("x", "p", "", "", node.StatusSucceeded)))

	members, err := mr.ZMembers("test:children:p")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, members)

	got, err := s.GetByID(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, node.StatusSucceeded, got.Status)
}

func TestStore_PutMovesReparentedExecution(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx,
		execution("x", "p", "", "", node.StatusRunning),
		execution("y", "p", "", "", node.StatusRunning),
	))
	require.NoError(t, s.Put(ctx, execution("x", "q", "", "", node.StatusRunning)))

	old, err := s.Children(ctx, "p")
	require.NoError(t, err)
	require.Len(t, old, 1)
	assert.Equal(t, "y", old[0].ID)

	moved, err := s.Children(ctx, "q")
	require.NoError(t, err)
	require.Len(t, moved, 1)
	assert.Equal(t, "x", moved[0].ID)

	require.NoError(t, s.Put(ctx, execution("y", "", "", "", node.StatusRunning)))
	assert.False(t, mr.Exists("test:children:p"), "promoting the last child to a root empties the old parent")
}

func TestStore_PutLeavesNoPartialState(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, mr.Set("test:exec:x", "{not json"))

	err := s.Put(ctx, execution("x", "p", "", "", node.StatusRunning))
	assert.ErrorContains(t, err, `put node execution "x"`)

	assert.False(t, mr.Exists("test:children:p"))
	raw, getErr := mr.Get("test:exec:x")
	require.NoError(t, getErr)
	assert.Equal(t, "{not json", raw)
}

func TestStore_NullResolvedParametersFallBackToDefaults(t *testing.T) {
	s, mr := newTestStore(t)
	require.NoError(t, mr.Set("test:exec:a",
		`{"id":"a","status":"running","identifier":"a","default_parameters":{"param":"def"},"resolved_parameters":null}`))

	got, err := s.GetByID(context.Background(), "a")
	require.NoError(t, err)
	assert.JSONEq(t, `{"param":"def"}`, string(got.Parameters()))
}

func TestStore_ChildrenOfLeafIsEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	children, err := s.Children(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, children)
	assert.Empty(t, children)
}

func TestStore_DanglingChildIsAnError(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, execution("x", "p", "", "", node.StatusRunning)))
	mr.Del("test:exec:x")

	_, err := s.Children(ctx, "p")
	assert.ErrorContains(t, err, `child "x" of "p"`)
}

func TestStore_ServerDown(t *testing.T) {
	s, mr := newTestStore(t)
	mr.Close()

	_, err := s.GetByID(context.Background(), "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, nodestore.ErrNotFound)
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	s, client, err := Connect(context.Background(), mr.Addr(), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, s.Put(context.Background(), execution("root", "", "", "", node.StatusQueued)))
	assert.True(t, mr.Exists(DefaultPrefix+"exec:root"))
}
