package repository

import (
	"context"
	"time"

	"ticket-stream-portal/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WebhookEventRepository interface {
	MarkProcessed(ctx context.Context, tx *gorm.DB, eventID, eventType, purchaseID string) (bool, error)
}

type webhookEventRepoImpl struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepoImpl{db: db}
}

// MarkProcessed records the event id. It reports false when the id was
// already recorded, meaning the delivery is a duplicate.
func (r *webhookEventRepoImpl) MarkProcessed(ctx context.Context, tx *gorm.DB, eventID, eventType, purchaseID string) (bool, error) {
	res := tx.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.WebhookEvent{
			EventID:     eventID,
			EventType:   eventType,
			PurchaseID:  purchaseID,
			ProcessedAt: time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
