package model

import (
	"time"
)

// Order 电话下单生成的订单（每单固定一个商品行）
type Order struct {
	ID                 uint      `json:"id" gorm:"primaryKey"`
	Number             string    `json:"number" gorm:"type:varchar(36);uniqueIndex;not null"`
	CustomerID         uint      `json:"customer_id" gorm:"index:idx_order_customer;not null"`
	ProductID          uint      `json:"product_id" gorm:"index:idx_order_product;not null"`
	ProductName        string    `json:"product_name" gorm:"type:varchar(255);not null"`
	Quantity           int       `json:"quantity" gorm:"not null;default:1"`
	BillingPhone       string    `json:"billing_phone" gorm:"type:varchar(32);index;not null"`
	Total              float64   `json:"total" gorm:"type:decimal(10,2);not null"`
	Status             string    `json:"status" gorm:"type:varchar(16);index;not null"`
	CreatedVia         string    `json:"created_via" gorm:"type:varchar(32);index:idx_order_via;not null"`
	PaymentMethod      string    `json:"payment_method" gorm:"type:varchar(32);not null"`
	PaymentMethodTitle string    `json:"payment_method_title" gorm:"type:varchar(64);not null"`
	CreatedAt          time.Time `json:"created_at" gorm:"index:idx_order_via;not null"`
	UpdatedAt          time.Time `json:"updated_at" gorm:"not null"`
}

func (Order) TableName() string { return "orders" }

// Order status values. Phone orders are created directly in processing;
// there is no cart/pending stage in this flow.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// CreatedViaPhoneOrder is the provenance tag distinguishing phone-intake
// orders from normally checked-out ones.
const CreatedViaPhoneOrder = "phone_order"

// RevenueStatuses are the completed-like statuses that count toward revenue.
var RevenueStatuses = []string{OrderStatusProcessing, OrderStatusCompleted}
