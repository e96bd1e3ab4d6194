package order

import (
	"context"
	"errors"
	"testing"

	"github.com/bignstrong/RailGuard/internal/domain/order"
	"github.com/bignstrong/RailGuard/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrderRepository is a mock implementation of order.Repository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) ListRecent(ctx context.Context, limit int) ([]*order.Order, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status order.Status) (*order.Order, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) AggregateStats(ctx context.Context) (*order.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Stats), args.Error(1)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

type fakeReadiness bool

func (f fakeReadiness) Ready() bool { return bool(f) }

type rejectionCounter map[string]int

func (r rejectionCounter) RejectOrder(reason string) { r[reason]++ }

func validRequest() *CreateOrderRequest {
	return &CreateOrderRequest{
		Items: []OrderItemRequest{
			{ID: "f-1", Title: "Фильтр топливный", Price: 8500, Quantity: 2, Image: "/images/f1.jpg"},
		},
		Contact: ContactRequest{
			Phone:            "+7 (999) 123-45-67",
			PreferredContact: "whatsapp",
		},
		TotalPrice: 17000,
	}
}

func existingOrder(t *testing.T, status order.Status) *order.Order {
	t.Helper()
	o, err := order.NewOrder(
		[]order.Item{{ID: "f-1", Title: "Фильтр", Price: decimal.NewFromInt(100), Quantity: 1, Image: "/i.jpg"}},
		order.Contact{Phone: "+7 (999) 123-45-67", PreferredContact: order.ContactPhone},
		decimal.NewFromInt(100),
	)
	require.NoError(t, err)
	o.PullEvents()
	o.Status = status
	return o
}

func TestService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("persists then publishes OrderCreated", func(t *testing.T) {
		repo := new(MockOrderRepository)
		pub := new(MockEventPublisher)
		svc := NewService(repo)
		svc.SetEventPublisher(pub)

		var saved *order.Order
		repo.On("Create", mock.Anything, mock.AnythingOfType("*order.Order")).
			Run(func(args mock.Arguments) { saved = args.Get(1).(*order.Order) }).
			Return(nil)
		pub.On("Publish", mock.Anything, mock.MatchedBy(func(events []shared.DomainEvent) bool {
			return len(events) == 1 && events[0].EventType() == order.EventTypeOrderCreated
		})).Return(nil)

		res, err := svc.Submit(ctx, validRequest())
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, saved.ID.String(), res.OrderID)
		assert.Equal(t, order.StatusPending, saved.Status)
		assert.True(t, saved.TotalPrice.Equal(decimal.NewFromInt(17000)))
		assert.Equal(t, order.ContactWhatsApp, saved.Contact.PreferredContact)
		repo.AssertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("structural failure never reaches the store", func(t *testing.T) {
		repo := new(MockOrderRepository)
		rejections := rejectionCounter{}
		svc := NewService(repo, WithRejectionRecorder(rejections))

		req := validRequest()
		req.Items[0].Price = 0
		req.Contact.Phone = "89991234567"

		_, err := svc.Submit(ctx, req)
		var ve *shared.ValidationError
		require.True(t, errors.As(err, &ve))
		fields := make([]string, 0, len(ve.Details))
		for _, d := range ve.Details {
			fields = append(fields, d.Field)
		}
		assert.ElementsMatch(t, []string{"items[0].price", "contact.phone"}, fields)
		assert.Equal(t, 1, rejections[RejectValidation])
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("price mismatch is rejected, not corrected", func(t *testing.T) {
		repo := new(MockOrderRepository)
		rejections := rejectionCounter{}
		svc := NewService(repo, WithRejectionRecorder(rejections))

		req := validRequest()
		req.TotalPrice = 16999.98

		_, err := svc.Submit(ctx, req)
		assert.ErrorIs(t, err, order.ErrPriceMismatch)
		assert.Equal(t, 1, rejections[RejectPriceMismatch])
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rounding noise within tolerance is accepted", func(t *testing.T) {
		repo := new(MockOrderRepository)
		repo.On("Create", mock.Anything, mock.Anything).Return(nil)
		svc := NewService(repo)

		req := validRequest()
		req.TotalPrice = 17000.01

		_, err := svc.Submit(ctx, req)
		assert.NoError(t, err)
	})

	t.Run("missing notifier refuses before persisting", func(t *testing.T) {
		repo := new(MockOrderRepository)
		rejections := rejectionCounter{}
		svc := NewService(repo, WithRequiredNotifier(fakeReadiness(false)), WithRejectionRecorder(rejections))

		_, err := svc.Submit(ctx, validRequest())
		assert.ErrorIs(t, err, shared.ErrNotificationDelivery)
		assert.Equal(t, 1, rejections[RejectNotifier])
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("store failure is wrapped and nothing is published", func(t *testing.T) {
		repo := new(MockOrderRepository)
		pub := new(MockEventPublisher)
		svc := NewService(repo, WithRequiredNotifier(fakeReadiness(true)))
		svc.SetEventPublisher(pub)
		repo.On("Create", mock.Anything, mock.Anything).Return(shared.ErrPersistence)

		_, err := svc.Submit(ctx, validRequest())
		assert.ErrorIs(t, err, shared.ErrPersistence)
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("publish failure does not fail the submission", func(t *testing.T) {
		repo := new(MockOrderRepository)
		pub := new(MockEventPublisher)
		svc := NewService(repo)
		svc.SetEventPublisher(pub)
		repo.On("Create", mock.Anything, mock.Anything).Return(nil)
		pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("bus stopped"))

		res, err := svc.Submit(ctx, validRequest())
		require.NoError(t, err)
		assert.NotEmpty(t, res.OrderID)
	})
}

func TestService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("free policy overwrites any status", func(t *testing.T) {
		repo := new(MockOrderRepository)
		pub := new(MockEventPublisher)
		svc := NewService(repo)
		svc.SetEventPublisher(pub)

		o := existingOrder(t, order.StatusCompleted)
		stored := *o
		stored.Status = order.StatusPending
		repo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		repo.On("UpdateStatus", mock.Anything, o.ID, order.StatusPending).Return(&stored, nil)
		pub.On("Publish", mock.Anything, mock.MatchedBy(func(events []shared.DomainEvent) bool {
			ev, ok := events[0].(*order.OrderStatusChangedEvent)
			return ok && ev.OldStatus == order.StatusCompleted && ev.NewStatus == order.StatusPending
		})).Return(nil)

		got, err := svc.UpdateStatus(ctx, o.ID.String(), "pending")
		require.NoError(t, err)
		assert.Equal(t, order.StatusPending, got.Status)
		pub.AssertExpectations(t)
	})

	t.Run("strict policy rejects leaving a terminal status", func(t *testing.T) {
		repo := new(MockOrderRepository)
		svc := NewService(repo, WithStatusPolicy(order.StatusPolicyStrict))

		o := existingOrder(t, order.StatusCancelled)
		repo.On("FindByID", mock.Anything, o.ID).Return(o, nil)

		_, err := svc.UpdateStatus(ctx, o.ID.String(), "processing")
		assert.ErrorIs(t, err, order.ErrTransitionDenied)
		repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("same status is idempotent and publishes nothing", func(t *testing.T) {
		repo := new(MockOrderRepository)
		pub := new(MockEventPublisher)
		svc := NewService(repo, WithStatusPolicy(order.StatusPolicyStrict))
		svc.SetEventPublisher(pub)

		o := existingOrder(t, order.StatusCompleted)
		repo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		repo.On("UpdateStatus", mock.Anything, o.ID, order.StatusCompleted).Return(o, nil)

		_, err := svc.UpdateStatus(ctx, o.ID.String(), "completed")
		require.NoError(t, err)
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("malformed id", func(t *testing.T) {
		svc := NewService(new(MockOrderRepository))
		_, err := svc.UpdateStatus(ctx, "not-a-uuid", "completed")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("unknown status", func(t *testing.T) {
		svc := NewService(new(MockOrderRepository))
		_, err := svc.UpdateStatus(ctx, uuid.NewString(), "shipped")
		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "INVALID_STATUS", de.Code)
	})

	t.Run("missing order", func(t *testing.T) {
		repo := new(MockOrderRepository)
		svc := NewService(repo)
		id := uuid.New()
		repo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		_, err := svc.UpdateStatus(ctx, id.String(), "completed")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestService_ListRecentAndStats(t *testing.T) {
	ctx := context.Background()
	repo := new(MockOrderRepository)
	svc := NewService(repo)

	o := existingOrder(t, order.StatusPending)
	repo.On("ListRecent", mock.Anything, 5).Return([]*order.Order{o}, nil)
	stats := &order.Stats{TotalOrders: 1}
	repo.On("AggregateStats", mock.Anything).Return(stats, nil)

	orders, err := svc.ListRecent(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	got, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Same(t, stats, got)

	repo2 := new(MockOrderRepository)
	repo2.On("AggregateStats", mock.Anything).Return(nil, shared.ErrPersistence)
	_, err = NewService(repo2).Stats(ctx)
	assert.ErrorIs(t, err, shared.ErrPersistence)
}
