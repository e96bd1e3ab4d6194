package event

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bignstrong/RailGuard/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrBusStopped is returned by Publish after Stop has been called
var ErrBusStopped = errors.New("event bus stopped")

// Option configures an InMemoryEventBus
type Option func(*InMemoryEventBus)

// WithSynchronousDispatch makes Publish run handlers inline before returning
func WithSynchronousDispatch() Option {
	return func(b *InMemoryEventBus) {
		b.inline = true
	}
}

// InMemoryEventBus fans domain events out to registered handlers.
// By default each handler runs on its own goroutine so publishers never wait
// on slow side effects such as chat delivery.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	inline   bool

	// mu orders wg.Add in Publish before wg.Wait in Stop
	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger, opts ...Option) *InMemoryEventBus {
	b := &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish hands events to their handlers. Handler failures are logged and
// never reported back to the publisher.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	b.mu.RLock()
	if b.stopped {
		b.mu.RUnlock()
		return ErrBusStopped
	}
	b.wg.Add(1)
	b.mu.RUnlock()
	defer b.wg.Done()

	// handlers outlive the request that produced the event
	detached := context.WithoutCancel(ctx)

	for _, ev := range events {
		for _, h := range b.registry.GetHandlers(ev.EventType()) {
			if b.inline {
				b.dispatch(detached, h, ev)
				continue
			}
			b.wg.Add(1)
			go func(h shared.EventHandler, ev shared.DomainEvent) {
				defer b.wg.Done()
				b.dispatch(detached, h, ev)
			}(h, ev)
		}
	}
	return nil
}

// Subscribe registers handler for eventTypes, falling back to handler.EventTypes()
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
	b.logger.Debug("handler unsubscribed")
}

// Start marks the bus as accepting events
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.mu.Lock()
	b.stopped = false
	b.mu.Unlock()
	b.logger.Info("event bus started", zap.Int("handlers", b.registry.Len()))
	return nil
}

// Stop rejects new events and waits for in-flight handlers or ctx expiry
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	b.stopped = true
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("event bus stopped")
		return nil
	case <-ctx.Done():
		b.logger.Warn("event bus stopped with handlers still running")
		return fmt.Errorf("draining event handlers: %w", ctx.Err())
	}
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, handler shared.EventHandler, ev shared.DomainEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("event_type", ev.EventType()),
				zap.String("event_id", ev.EventID().String()),
				zap.Any("panic", r),
			)
		}
	}()

	if err := handler.Handle(ctx, ev); err != nil {
		b.logger.Error("event handler failed",
			zap.String("event_type", ev.EventType()),
			zap.String("event_id", ev.EventID().String()),
			zap.String("aggregate_id", ev.AggregateID().String()),
			zap.Error(err),
		)
	}
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
