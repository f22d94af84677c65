package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Open-WP-Club/phone-order-woo/internal/model"
)

// ErrInsufficientStock is returned when a decrement would take stock
// below zero.
var ErrInsufficientStock = errors.New("insufficient stock")

// ProductRepository 商品目录仓储接口（目录本身由外部系统拥有）
type ProductRepository interface {
	// GetByID 查询商品
	GetByID(ctx context.Context, id uint) (*model.Product, error)

	// Create 写入商品（供种子数据与压测使用）
	Create(ctx context.Context, product *model.Product) error

	// DecrementStock 原子扣减库存，带下限检查防止超卖
	DecrementStock(ctx context.Context, id uint, qty int) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepository{db: db} }

func (r *productRepository) GetByID(ctx context.Context, id uint) (*model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// DecrementStock 单条条件 UPDATE：stock >= qty 才扣，RowsAffected 为 0 视为库存不足
func (r *productRepository) DecrementStock(ctx context.Context, id uint, qty int) error {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}
