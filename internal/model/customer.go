package model

import "time"

// Customer 手机号下单的客户（多为 guest，按 phone 唯一）
type Customer struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	Username     string `json:"username" gorm:"type:varchar(64);uniqueIndex;not null"`
	Email        string `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	// 唯一键，防止并发提交同一手机号时创建重复客户
	Phone        string    `json:"phone" gorm:"type:varchar(32);uniqueIndex:ux_customer_phone;not null"`
	Guest        bool      `json:"guest" gorm:"not null"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Customer) TableName() string { return "customers" }
