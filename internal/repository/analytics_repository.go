package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Open-WP-Club/phone-order-woo/internal/model"
)

// AnalyticsRepository 订单埋点仓储接口（只追加）
type AnalyticsRepository interface {
	Create(ctx context.Context, record *model.OrderAnalytics) error
	GetByOrderID(ctx context.Context, orderID uint) (*model.OrderAnalytics, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository { return &analyticsRepository{db: db} }

func (r *analyticsRepository) Create(ctx context.Context, record *model.OrderAnalytics) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *analyticsRepository) GetByOrderID(ctx context.Context, orderID uint) (*model.OrderAnalytics, error) {
	var rec model.OrderAnalytics
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
