package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/bignstrong/RailGuard/internal/domain/order"
	"github.com/bignstrong/RailGuard/internal/domain/shared"
	"github.com/bignstrong/RailGuard/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Create inserts a new order
func (r *GormOrderRepository) Create(ctx context.Context, o *order.Order) error {
	if err := r.db.WithContext(ctx).Create(models.OrderModelFromDomain(o)).Error; err != nil {
		return shared.ErrPersistence.Wrap(err)
	}
	return nil
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.ErrPersistence.Wrap(err)
	}
	return model.ToDomain(), nil
}

// ListRecent returns the newest orders first
func (r *GormOrderRepository) ListRecent(ctx context.Context, limit int) ([]*order.Order, error) {
	var rows []models.OrderModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, shared.ErrPersistence.Wrap(err)
	}

	orders := make([]*order.Order, len(rows))
	for i := range rows {
		orders[i] = rows[i].ToDomain()
	}
	return orders, nil
}

// UpdateStatus overwrites the status unconditionally and returns the stored order.
// The version column is bumped for auditing only; concurrent writers are last-write-wins.
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status order.Status) (*order.Order, error) {
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     string(status),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return nil, shared.ErrPersistence.Wrap(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, shared.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

// revenueRow receives the completed-order money aggregates
type revenueRow struct {
	Revenue decimal.Decimal
	Average decimal.Decimal
}

// AggregateStats runs the independent statistics queries concurrently.
// Revenue figures use completed orders only; the product ranking scans every order.
func (r *GormOrderRepository) AggregateStats(ctx context.Context) (*order.Stats, error) {
	var (
		total, completed int64
		money            revenueRow
		itemRows         []models.OrderModel
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.db.WithContext(gctx).Model(&models.OrderModel{}).Count(&total).Error
	})
	g.Go(func() error {
		return r.db.WithContext(gctx).Model(&models.OrderModel{}).
			Where("status = ?", string(order.StatusCompleted)).
			Count(&completed).Error
	})
	g.Go(func() error {
		return r.db.WithContext(gctx).Model(&models.OrderModel{}).
			Select("COALESCE(SUM(total_price), 0) AS revenue, COALESCE(AVG(total_price), 0) AS average").
			Where("status = ?", string(order.StatusCompleted)).
			Scan(&money).Error
	})
	g.Go(func() error {
		return r.db.WithContext(gctx).Select("items").Find(&itemRows).Error
	})
	if err := g.Wait(); err != nil {
		return nil, shared.ErrPersistence.Wrap(err)
	}

	lists := make([][]order.Item, len(itemRows))
	for i := range itemRows {
		lists[i] = itemRows[i].Items
	}

	return &order.Stats{
		TotalOrders:      total,
		CompletedOrders:  completed,
		CompletedRevenue: money.Revenue,
		AverageCheck:     money.Average,
		Products:         order.RankProducts(lists),
	}, nil
}

// Ensure GormOrderRepository implements order.Repository
var _ order.Repository = (*GormOrderRepository)(nil)
