package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Open-WP-Club/phone-order-woo/internal/model"
)

// ProductStat 商品维度聚合（先按单量、再按营收排序）
type ProductStat struct {
	ProductID   uint    `json:"product_id"`
	ProductName string  `json:"product_name"`
	OrderCount  int64   `json:"order_count"`
	Revenue     float64 `json:"revenue"`
}

// OrderRepository 订单仓储接口
type OrderRepository interface {
	// Create 创建订单
	Create(ctx context.Context, order *model.Order) error

	// GetByID 根据订单ID查询订单
	GetByID(ctx context.Context, id uint) (*model.Order, error)

	// UpdateStatus 更新订单状态
	UpdateStatus(ctx context.Context, id uint, status string) error

	// CountByVia counts orders of the given provenance, optionally
	// created at or after since.
	CountByVia(ctx context.Context, via string, since *time.Time) (int64, error)

	// CountAll 统计全部订单数量（用于转化率）
	CountAll(ctx context.Context) (int64, error)

	// Revenue sums totals of provenance orders in the given statuses.
	Revenue(ctx context.Context, via string, statuses []string) (float64, error)

	// Recent 最近订单，按创建时间倒序
	Recent(ctx context.Context, via string, limit int) ([]*model.Order, error)

	// TopProducts aggregates per-product order count and revenue over
	// provenance orders in the given statuses.
	TopProducts(ctx context.Context, via string, statuses []string, limit int) ([]ProductStat, error)

	// ByDateRange 指定时间区间内的订单，按创建时间倒序
	ByDateRange(ctx context.Context, via string, start, end time.Time) ([]*model.Order, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepository{db: db} }

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepository) GetByID(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *orderRepository) CountByVia(ctx context.Context, via string, since *time.Time) (int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{}).Where("created_via = ?", via)
	if since != nil {
		q = q.Where("created_at >= ?", *since)
	}
	var count int64
	err := q.Count(&count).Error
	return count, err
}

func (r *orderRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).Count(&count).Error
	return count, err
}

func (r *orderRepository) Revenue(ctx context.Context, via string, statuses []string) (float64, error) {
	var total *float64
	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Select("SUM(total)").
		Where("created_via = ? AND status IN ?", via, statuses).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func (r *orderRepository) Recent(ctx context.Context, via string, limit int) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Where("created_via = ?", via).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

func (r *orderRepository) TopProducts(ctx context.Context, via string, statuses []string, limit int) ([]ProductStat, error) {
	var stats []ProductStat
	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Select("product_id, product_name, COUNT(*) AS order_count, SUM(total) AS revenue").
		Where("created_via = ? AND status IN ?", via, statuses).
		Group("product_id, product_name").
		Order("order_count DESC, revenue DESC").
		Limit(limit).
		Scan(&stats).Error
	return stats, err
}

func (r *orderRepository) ByDateRange(ctx context.Context, via string, start, end time.Time) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Where("created_via = ? AND created_at >= ? AND created_at < ?", via, start, end).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}
