package persistence

import (
	"context"
	"testing"

	"github.com/bignstrong/RailGuard/internal/domain/subscriber"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSubscriberTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.Exec(`
		CREATE TABLE subscribers (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			created_at DATETIME NOT NULL
		)
	`).Error
	require.NoError(t, err)

	return db
}

func TestGormSubscriberRepository_Upsert(t *testing.T) {
	db := setupSubscriberTestDB(t)
	repo := NewGormSubscriberRepository(db)
	ctx := context.Background()

	first, err := subscriber.NewSubscriber("buyer@example.com")
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(ctx, first))

	again, err := subscriber.NewSubscriber("BUYER@example.com")
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(ctx, again), "existing email is not an error")

	var count int64
	require.NoError(t, db.Table("subscribers").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var storedID string
	require.NoError(t, db.Table("subscribers").Select("id").Scan(&storedID).Error)
	assert.Equal(t, first.ID.String(), storedID)
}
