package nodestore

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vk/plangraph/internal/node"
)

const tracerName = "github.com/vk/plangraph/internal/nodestore"

// tracedStore wraps a Store and records one span per read.
type tracedStore struct {
	next   Store
	tracer trace.Tracer
}

// WithTracing decorates s with OpenTelemetry spans. A nil provider uses the
// global one.
func WithTracing(s Store, tp trace.TracerProvider) Store {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &tracedStore{next: s, tracer: tp.Tracer(tracerName)}
}

func (t *tracedStore) GetByID(ctx context.Context, id string) (node.Execution, error) {
	ctx, span := t.tracer.Start(ctx, "nodestore.GetByID", trace.WithAttributes(
		attribute.String("node_execution.id", id),
	))
	defer span.End()

	exec, err := t.next.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return node.Execution{}, err
	}
	span.SetAttributes(attribute.String("node_execution.status", exec.Status.String()))
	return exec, nil
}

func (t *tracedStore) Children(ctx context.Context, parentID string) ([]node.Execution, error) {
	ctx, span := t.tracer.Start(ctx, "nodestore.Children", trace.WithAttributes(
		attribute.String("node_execution.parent_id", parentID),
	))
	defer span.End()

	children, err := t.next.Children(ctx, parentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("node_execution.children", len(children)))
	return children, nil
}
