package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Open-WP-Club/phone-order-woo/internal/model"
)

// SettingsRepository 配置仓储接口
type SettingsRepository interface {
	// Get returns (value, true) when the key exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Upsert 写入或覆盖一个配置键
	Upsert(ctx context.Context, key, value string) error
}

type settingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) SettingsRepository { return &settingsRepository{db: db} }

func (r *settingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var s model.Setting
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return s.Value, true, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, key, value string) error {
	s := &model.Setting{Key: key, Value: value}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(s).Error
}
