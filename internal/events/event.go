// Package events carries order notifications out of the service. Events are
// written to an outbox table in the same transaction as the order change and
// a Relay forwards them to a Publisher.
package events

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	TypeOrderPlaced        = "order.placed"
	TypeOrderStatusChanged = "order.status_changed"
)

type Event struct {
	ID            int64
	AggregateType string
	AggregateID   string
	Type          string
	Payload       []byte
	Traceparent   string
	CreatedAt     time.Time
}

// New builds an order event, serializing payload and capturing the trace
// context of ctx.
func New(ctx context.Context, typ, orderID string, payload any) (Event, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: "order",
		AggregateID:   orderID,
		Type:          typ,
		Payload:       b,
		Traceparent:   Traceparent(ctx),
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// Traceparent returns the W3C traceparent of ctx, or "" outside a span.
func Traceparent(ctx context.Context) string {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return carrier.Get("traceparent")
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, ev Event) error

func (f PublisherFunc) Publish(ctx context.Context, ev Event) error { return f(ctx, ev) }
