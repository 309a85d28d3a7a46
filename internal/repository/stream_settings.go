package repository

import (
	"context"
	"time"

	"ticket-stream-portal/internal/model"

	"gorm.io/gorm"
)

type StreamSettingsRepository interface {
	Get(ctx context.Context) (*model.StreamSettings, error)
	ToggleLive(ctx context.Context) (*model.StreamSettings, error)
	SetURL(ctx context.Context, url *string) (*model.StreamSettings, error)
}

type streamSettingsRepoImpl struct {
	db *gorm.DB
}

func NewStreamSettingsRepository(db *gorm.DB) StreamSettingsRepository {
	return &streamSettingsRepoImpl{db: db}
}

func (r *streamSettingsRepoImpl) Get(ctx context.Context) (*model.StreamSettings, error) {
	return r.get(r.db.WithContext(ctx))
}

// ToggleLive flips is_live in the database so concurrent toggles never lose an update.
func (r *streamSettingsRepoImpl) ToggleLive(ctx context.Context) (*model.StreamSettings, error) {
	return r.update(ctx, map[string]interface{}{
		"is_live":    gorm.Expr("NOT is_live"),
		"updated_at": time.Now(),
	})
}

func (r *streamSettingsRepoImpl) SetURL(ctx context.Context, url *string) (*model.StreamSettings, error) {
	return r.update(ctx, map[string]interface{}{
		"stream_url": url,
		"updated_at": time.Now(),
	})
}

func (r *streamSettingsRepoImpl) update(ctx context.Context, values map[string]interface{}) (*model.StreamSettings, error) {
	var settings *model.StreamSettings
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.StreamSettings{}).
			Where("id = ?", model.StreamSettingsID).
			Updates(values)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		var err error
		settings, err = r.get(tx)
		return err
	})
	return settings, err
}

func (r *streamSettingsRepoImpl) get(db *gorm.DB) (*model.StreamSettings, error) {
	var settings model.StreamSettings
	if err := db.First(&settings, model.StreamSettingsID).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}
