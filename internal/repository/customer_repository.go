package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Open-WP-Club/phone-order-woo/internal/model"
)

// CustomerRepository 客户仓储接口
type CustomerRepository interface {
	// GetByID 查询客户
	GetByID(ctx context.Context, id uint) (*model.Customer, error)

	// FindByPhone returns (nil, nil) when no customer carries the exact
	// phone string.
	FindByPhone(ctx context.Context, phone string) (*model.Customer, error)

	// Create persists a new customer; unique indexes on phone/email make
	// duplicate creation surface gorm.ErrDuplicatedKey.
	Create(ctx context.Context, customer *model.Customer) error

	// EmailExists 邮箱是否已被占用
	EmailExists(ctx context.Context, email string) (bool, error)
}

type customerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository { return &customerRepository{db: db} }

func (r *customerRepository) GetByID(ctx context.Context, id uint) (*model.Customer, error) {
	var c model.Customer
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *customerRepository) FindByPhone(ctx context.Context, phone string) (*model.Customer, error) {
	var c model.Customer
	err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *customerRepository) Create(ctx context.Context, customer *model.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *customerRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Customer{}).
		Where("email = ?", email).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}
