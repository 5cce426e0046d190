package nodestore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/vk/plangraph/internal/inmemorystore"
	"github.com/vk/plangraph/internal/node"
	"github.com/vk/plangraph/internal/nodestore"
)

func attr(span sdktrace.ReadOnlySpan, key attribute.Key) attribute.Value {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value
		}
	}
	return attribute.Value{}
}

func TestWithTracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	mem := inmemorystore.New()
	require.NoError(t, mem.Put(
		node.Execution{ID: "root", Plan: node.PlanNode{Identifier: "root"}, Status: node.StatusRunning},
		node.Execution{ID: "child", Plan: node.PlanNode{Identifier: "child"}, ParentID: "root", Status: node.StatusQueued},
	))
	store := nodestore.WithTracing(mem, tp)
	ctx := context.Background()

	got, err := store.GetByID(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, "root", got.ID)

	children, err := store.Children(ctx, "root")
	require.NoError(t, err)
	assert.Len(t, children, 1)

	_, err = store.GetByID(ctx, "ghost")
	require.ErrorIs(t, err, nodestore.ErrNotFound)

	spans := recorder.Ended()
	require.Len(t, spans, 3)

	assert.Equal(t, "nodestore.GetByID", spans[0].Name())
	assert.Equal(t, "root", attr(spans[0], "node_execution.id").AsString())
	assert.Equal(t, "running", attr(spans[0], "node_execution.status").AsString())

	assert.Equal(t, "nodestore.Children", spans[1].Name())
	assert.Equal(t, int64(1), attr(spans[1], "node_execution.children").AsInt64())

	assert.Equal(t, codes.Error, spans[2].Status().Code)
	require.Len(t, spans[2].Events(), 1)
	assert.Equal(t, "exception", spans[2].Events()[0].Name)
}
