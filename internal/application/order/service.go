package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/bignstrong/RailGuard/internal/domain/order"
	"github.com/bignstrong/RailGuard/internal/domain/shared"
	"github.com/bignstrong/RailGuard/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Rejection reasons reported to the RejectionRecorder
const (
	RejectValidation    = "validation"
	RejectPriceMismatch = "price_mismatch"
	RejectNotifier      = "notifier_unavailable"
	RejectPersistence   = "persistence"
)

// ErrNotifierUnavailable is returned when submissions require a configured
// notifier and none is available
var ErrNotifierUnavailable = shared.ErrNotificationDelivery.Wrap(errors.New("notification credentials are not configured"))

// NotifierReadiness reports whether order notifications can be delivered
type NotifierReadiness interface {
	Ready() bool
}

// RejectionRecorder counts refused submissions by reason
type RejectionRecorder interface {
	RejectOrder(reason string)
}

// Service handles checkout submissions and admin operations on orders
type Service struct {
	repo           order.Repository
	validator      *Validator
	eventPublisher shared.EventPublisher
	policy         order.StatusPolicy
	notifier       NotifierReadiness
	rejections     RejectionRecorder
	logger         *zap.Logger
}

// Option configures a Service
type Option func(*Service)

// WithStatusPolicy sets which status changes UpdateStatus accepts
func WithStatusPolicy(policy order.StatusPolicy) Option {
	return func(s *Service) {
		s.policy = policy
	}
}

// WithRequiredNotifier makes Submit refuse orders while n is not ready
func WithRequiredNotifier(n NotifierReadiness) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithRejectionRecorder sets where refused submissions are counted
func WithRejectionRecorder(r RejectionRecorder) Option {
	return func(s *Service) {
		s.rejections = r
	}
}

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a new order Service
func NewService(repo order.Repository, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		validator: NewValidator(),
		policy:    order.StatusPolicyFree,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetEventPublisher sets the publisher that receives order events
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Submit validates a checkout payload, persists the order and publishes
// OrderCreated. Notification happens after Submit returns.
func (s *Service) Submit(ctx context.Context, req *CreateOrderRequest) (*SubmitResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "submit",
		attribute.Int("order.items", len(req.Items)),
	)
	defer span.End()

	if err := s.validator.Validate(req); err != nil {
		s.reject(RejectValidation)
		return nil, err
	}

	o, err := order.NewOrder(req.ToItems(), req.ToContact(), decimal.NewFromFloat(req.TotalPrice))
	if err != nil {
		if errors.Is(err, order.ErrPriceMismatch) {
			s.reject(RejectPriceMismatch)
		} else {
			s.reject(RejectValidation)
		}
		return nil, err
	}

	if s.notifier != nil && !s.notifier.Ready() {
		s.reject(RejectNotifier)
		telemetry.RecordError(span, ErrNotifierUnavailable)
		return nil, ErrNotifierUnavailable
	}

	if err := s.repo.Create(ctx, o); err != nil {
		s.reject(RejectPersistence)
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save order: %w", err)
	}
	span.SetAttributes(attribute.String("order.id", o.ID.String()))

	s.publish(ctx, o)
	return &SubmitResult{OrderID: o.ID.String()}, nil
}

// ListRecent returns up to limit orders, newest first
func (s *Service) ListRecent(ctx context.Context, limit int) ([]*order.Order, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "list_recent")
	defer span.End()

	orders, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return orders, nil
}

// UpdateStatus moves an order to status and returns the stored order.
// Concurrent updates of the same order are last-write-wins.
func (s *Service) UpdateStatus(ctx context.Context, orderID, status string) (*order.Order, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "update_status",
		attribute.String("order.id", orderID),
		attribute.String("order.status", status),
	)
	defer span.End()

	id, err := uuid.Parse(orderID)
	if err != nil {
		return nil, shared.ErrInvalidInput.Wrap(fmt.Errorf("invalid order id %q", orderID))
	}
	target, err := order.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := current.ChangeStatus(target, s.policy); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateStatus(ctx, id, target)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	s.publish(ctx, current)
	return updated, nil
}

// Stats returns order book statistics
func (s *Service) Stats(ctx context.Context) (*order.Stats, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "stats")
	defer span.End()

	stats, err := s.repo.AggregateStats(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return stats, nil
}

// publish hands recorded events to the bus; failures never fail the caller
// because the order is already stored
func (s *Service) publish(ctx context.Context, o *order.Order) {
	events := o.PullEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish order events",
			zap.String("order_id", o.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *Service) reject(reason string) {
	if s.rejections != nil {
		s.rejections.RejectOrder(reason)
	}
}
