package model

import "time"

// OrderAnalytics is the append-only usage record attached to a phone
// order. One row per order; never written without an order.
type OrderAnalytics struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	OrderID   uint      `json:"order_id" gorm:"uniqueIndex:ux_analytics_order;not null"`
	Phone     string    `json:"phone" gorm:"type:varchar(32);not null"`
	ProductID uint      `json:"product_id" gorm:"index;not null"`
	UserAgent string    `json:"user_agent" gorm:"type:varchar(512)"`
	IPAddress string    `json:"ip_address" gorm:"type:varchar(45)"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (OrderAnalytics) TableName() string { return "order_analytics" }
