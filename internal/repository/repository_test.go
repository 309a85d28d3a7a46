package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"ticket-stream-portal/internal/client"
	"ticket-stream-portal/internal/config"
	"ticket-stream-portal/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := client.InitDB(config.Database{
		Driver:       "sqlite",
		URL:          filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000&_journal_mode=WAL",
		MaxIdleConns: 1,
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	return db
}

func seedPurchase(t *testing.T, db *gorm.DB, token string, status model.PaymentStatus) *model.Purchase {
	t.Helper()
	ctx := context.Background()
	p := &model.Purchase{
		ID:            uuid.NewString(),
		Name:          "Ada",
		Email:         "ada@example.com",
		Token:         token,
		PaymentStatus: status,
	}
	u := &model.TokenUsage{ID: uuid.NewString(), Token: token}

	require.NoError(t, NewPurchaseRepository(db).Create(ctx, db, p))
	require.NoError(t, NewTokenUsageRepository(db).Create(ctx, db, u))
	return p
}
