package repository

import (
	"context"
	"time"

	"ticket-stream-portal/internal/model"

	"gorm.io/gorm"
)

type PurchaseRepository interface {
	Create(ctx context.Context, tx *gorm.DB, purchase *model.Purchase) error
	FindByID(ctx context.Context, id string) (*model.Purchase, error)
	FindByPaymentReference(ctx context.Context, ref string) (*model.Purchase, error)
	FindCompletedByToken(ctx context.Context, token string) (*model.Purchase, error)
	SetPaymentReference(ctx context.Context, id, ref string) error
	MarkCompleted(ctx context.Context, tx *gorm.DB, id, reference string) (bool, error)
	MarkFailed(ctx context.Context, tx *gorm.DB, id, reference string) (bool, error)
	List(ctx context.Context) ([]*model.Purchase, error)
	ListCompleted(ctx context.Context) ([]*model.Purchase, error)
	CountByStatus(ctx context.Context) (map[model.PaymentStatus]int64, error)
}

type purchaseRepoImpl struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepoImpl{
		db: db,
	}
}

func (r *purchaseRepoImpl) Create(ctx context.Context, tx *gorm.DB, purchase *model.Purchase) error {
	return tx.WithContext(ctx).Create(purchase).Error
}

func (r *purchaseRepoImpl) FindByID(ctx context.Context, id string) (*model.Purchase, error) {
	var purchase model.Purchase
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&purchase).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *purchaseRepoImpl) FindByPaymentReference(ctx context.Context, ref string) (*model.Purchase, error) {
	var purchase model.Purchase
	err := r.db.WithContext(ctx).
		Where("payment_reference = ?", ref).
		First(&purchase).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *purchaseRepoImpl) FindCompletedByToken(ctx context.Context, token string) (*model.Purchase, error) {
	var purchase model.Purchase
	err := r.db.WithContext(ctx).
		Where("token = ? AND payment_status = ?", token, model.PaymentCompleted).
		First(&purchase).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *purchaseRepoImpl) SetPaymentReference(ctx context.Context, id, ref string) error {
	res := r.db.WithContext(ctx).Model(&model.Purchase{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"payment_reference": ref,
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkCompleted moves a pending or failed purchase to completed. It reports
// whether this call performed the transition. A non-empty reference is stored
// only when the purchase has none yet.
func (r *purchaseRepoImpl) MarkCompleted(ctx context.Context, tx *gorm.DB, id, reference string) (bool, error) {
	return r.transition(ctx, tx, id, reference, model.PaymentCompleted, model.PaymentPending, model.PaymentFailed)
}

// MarkFailed moves a pending purchase to failed. Completed purchases stay completed.
func (r *purchaseRepoImpl) MarkFailed(ctx context.Context, tx *gorm.DB, id, reference string) (bool, error) {
	return r.transition(ctx, tx, id, reference, model.PaymentFailed, model.PaymentPending)
}

func (r *purchaseRepoImpl) transition(ctx context.Context, tx *gorm.DB, id, reference string, to model.PaymentStatus, from ...model.PaymentStatus) (bool, error) {
	updates := map[string]interface{}{
		"payment_status": to,
		"updated_at":     time.Now(),
	}
	if reference != "" {
		updates["payment_reference"] = gorm.Expr("COALESCE(payment_reference, ?)", reference)
	}

	res := tx.WithContext(ctx).Model(&model.Purchase{}).
		Where(`
			id = ?
			AND payment_status IN ?
		`,
			id,
			from,
		).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *purchaseRepoImpl) List(ctx context.Context) ([]*model.Purchase, error) {
	var purchases []*model.Purchase
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&purchases).Error
	if err != nil {
		return nil, err
	}
	return purchases, nil
}

func (r *purchaseRepoImpl) ListCompleted(ctx context.Context) ([]*model.Purchase, error) {
	var purchases []*model.Purchase
	err := r.db.WithContext(ctx).
		Where("payment_status = ?", model.PaymentCompleted).
		Order("created_at ASC").
		Find(&purchases).Error
	if err != nil {
		return nil, err
	}
	return purchases, nil
}

func (r *purchaseRepoImpl) CountByStatus(ctx context.Context) (map[model.PaymentStatus]int64, error) {
	var rows []struct {
		PaymentStatus model.PaymentStatus
		Count         int64
	}
	err := r.db.WithContext(ctx).Model(&model.Purchase{}).
		Select("payment_status, COUNT(*) AS count").
		Group("payment_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.PaymentStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.PaymentStatus] = row.Count
	}
	return counts, nil
}
