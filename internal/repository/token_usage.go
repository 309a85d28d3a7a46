package repository

import (
	"context"
	"errors"
	"time"

	"ticket-stream-portal/internal/model"

	"gorm.io/gorm"
)

// Access describes one redemption of a token by a client.
type Access struct {
	At        time.Time
	IPAddress string
	UserAgent string
	DeviceID  string
}

type TokenUsageRepository interface {
	Create(ctx context.Context, tx *gorm.DB, usage *model.TokenUsage) error
	FindByToken(ctx context.Context, token string) (*model.TokenUsage, error)
	Claim(ctx context.Context, token string, access Access) (bool, error)
	Touch(ctx context.Context, token string, access Access) (bool, error)
	Revoke(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]*model.TokenUsage, error)
	CountUsed(ctx context.Context) (int64, error)
}

type tokenUsageRepoImpl struct {
	db *gorm.DB
}

func NewTokenUsageRepository(db *gorm.DB) TokenUsageRepository {
	return &tokenUsageRepoImpl{
		db: db,
	}
}

func (r *tokenUsageRepoImpl) Create(ctx context.Context, tx *gorm.DB, usage *model.TokenUsage) error {
	return tx.WithContext(ctx).Create(usage).Error
}

func (r *tokenUsageRepoImpl) FindByToken(ctx context.Context, token string) (*model.TokenUsage, error) {
	var usage model.TokenUsage
	err := r.db.WithContext(ctx).
		Where("token = ?", token).
		First(&usage).Error
	if err != nil {
		return nil, err
	}
	return &usage, nil
}

// Claim marks an unused token as used by the given device in a single
// conditional update. Exactly one concurrent caller gets true.
func (r *tokenUsageRepoImpl) Claim(ctx context.Context, token string, access Access) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.TokenUsage{}).
		Where("token = ? AND used = ?", token, false).
		Updates(map[string]interface{}{
			"used":              true,
			"first_accessed_at": access.At,
			"last_accessed_at":  access.At,
			"ip_address":        nullable(access.IPAddress),
			"user_agent":        nullable(access.UserAgent),
			"device_id":         access.DeviceID,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Touch refreshes last access for a token already claimed by access.DeviceID.
// It reports false when the token is not held by that device.
func (r *tokenUsageRepoImpl) Touch(ctx context.Context, token string, access Access) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.TokenUsage{}).
		Where("token = ? AND used = ? AND device_id = ?", token, true, access.DeviceID).
		Updates(map[string]interface{}{
			"last_accessed_at": access.At,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Revoke returns a token to the unused state and clears every access field.
// It reports false only when no record has the id; revoking an unused token
// succeeds even where the driver counts changed rather than matched rows.
func (r *tokenUsageRepoImpl) Revoke(ctx context.Context, id string) (bool, error) {
	found := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var usage model.TokenUsage
		err := tx.Select("id").Where("id = ?", id).First(&usage).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true

		return tx.Model(&model.TokenUsage{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"used":              false,
				"first_accessed_at": nil,
				"last_accessed_at":  nil,
				"ip_address":        nil,
				"user_agent":        nil,
				"device_id":         nil,
			}).Error
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

func (r *tokenUsageRepoImpl) List(ctx context.Context) ([]*model.TokenUsage, error) {
	var usages []*model.TokenUsage
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&usages).Error
	if err != nil {
		return nil, err
	}
	return usages, nil
}

func (r *tokenUsageRepoImpl) CountUsed(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.TokenUsage{}).
		Where("used = ?", true).
		Count(&count).Error
	return count, err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
