package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-stream-portal/internal/model"
)

func TestWebhookEventRepository_MarkProcessedOnce(t *testing.T) {
	db := newTestDB(t)
	repo := NewWebhookEventRepository(db)
	ctx := context.Background()

	fresh, err := repo.MarkProcessed(ctx, db, "WH-1", "PAYMENT.CAPTURE.COMPLETED", "p-1")
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = repo.MarkProcessed(ctx, db, "WH-1", "PAYMENT.CAPTURE.COMPLETED", "p-1")
	require.NoError(t, err)
	assert.False(t, fresh)

	var count int64
	require.NoError(t, db.Model(&model.WebhookEvent{}).Where("event_id = ?", "WH-1").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
