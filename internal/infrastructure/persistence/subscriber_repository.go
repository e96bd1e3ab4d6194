package persistence

import (
	"context"

	"github.com/bignstrong/RailGuard/internal/domain/shared"
	"github.com/bignstrong/RailGuard/internal/domain/subscriber"
	"github.com/bignstrong/RailGuard/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSubscriberRepository implements subscriber.Repository using GORM
type GormSubscriberRepository struct {
	db *gorm.DB
}

// NewGormSubscriberRepository creates a new GormSubscriberRepository
func NewGormSubscriberRepository(db *gorm.DB) *GormSubscriberRepository {
	return &GormSubscriberRepository{db: db}
}

// Upsert inserts the subscriber; an existing email is left untouched
func (r *GormSubscriberRepository) Upsert(ctx context.Context, s *subscriber.Subscriber) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).
		Create(models.SubscriberModelFromDomain(s)).Error
	if err != nil {
		return shared.ErrPersistence.Wrap(err)
	}
	return nil
}

// Ensure GormSubscriberRepository implements subscriber.Repository
var _ subscriber.Repository = (*GormSubscriberRepository)(nil)
