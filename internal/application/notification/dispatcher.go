// Package notification tells shop staff about new orders through the chat platform.
package notification

import (
	"context"
	"fmt"

	"github.com/bignstrong/RailGuard/internal/domain/chat"
	"github.com/bignstrong/RailGuard/internal/domain/order"
	"github.com/bignstrong/RailGuard/internal/domain/shared"
	"github.com/bignstrong/RailGuard/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ResultRecorder counts notification outcomes
type ResultRecorder interface {
	RecordNotification(result string)
}

// Dispatcher handles OrderCreatedEvent by posting a message to the staff chat.
// Delivery is attempted once; failures are logged and counted, never retried.
type Dispatcher struct {
	messenger chat.Messenger
	chatID    int64
	recorder  ResultRecorder
	logger    *zap.Logger
}

// DispatcherOption is a functional option for configuring the Dispatcher
type DispatcherOption func(*Dispatcher)

// WithResultRecorder sets where delivery outcomes are counted
func WithResultRecorder(r ResultRecorder) DispatcherOption {
	return func(d *Dispatcher) {
		d.recorder = r
	}
}

// NewDispatcher creates a Dispatcher posting to chatID
func NewDispatcher(messenger chat.Messenger, chatID int64, logger *zap.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		messenger: messenger,
		chatID:    chatID,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Ready reports whether credentials and a target chat are configured
func (d *Dispatcher) Ready() bool {
	return d.messenger != nil && d.messenger.Configured() && d.chatID != 0
}

// EventTypes returns the event types this handler is interested in
func (d *Dispatcher) EventTypes() []string {
	return []string{order.EventTypeOrderCreated}
}

// Handle posts the new-order message
func (d *Dispatcher) Handle(ctx context.Context, event shared.DomainEvent) error {
	created, ok := event.(*order.OrderCreatedEvent)
	if !ok {
		d.logger.Error("unexpected event type",
			zap.String("expected", order.EventTypeOrderCreated),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			order.EventTypeOrderCreated, event.EventType())
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "notification", "order_created",
		attribute.String("order.id", created.OrderID.String()),
	)
	defer span.End()

	if !d.Ready() {
		d.logger.Warn("notification credentials missing, skipping order notification",
			zap.String("order_id", created.OrderID.String()),
		)
		d.record(telemetry.NotificationSkipped)
		return nil
	}

	if err := d.messenger.SendMessage(ctx, d.chatID, NewOrderMessage(created), nil); err != nil {
		d.record(telemetry.NotificationFailed)
		telemetry.RecordError(span, err)
		d.logger.Error("failed to deliver order notification",
			zap.String("order_id", created.OrderID.String()),
			zap.Error(err),
		)
		return shared.ErrNotificationDelivery.Wrap(err)
	}

	d.record(telemetry.NotificationSent)
	d.logger.Info("order notification delivered",
		zap.String("order_id", created.OrderID.String()),
	)
	return nil
}

func (d *Dispatcher) record(result string) {
	if d.recorder != nil {
		d.recorder.RecordNotification(result)
	}
}

var _ shared.EventHandler = (*Dispatcher)(nil)
