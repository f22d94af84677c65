package model

import "time"

// Product is the catalog entry phone orders are placed against. The
// catalog itself is owned elsewhere; this service only reads products
// and decrements stock.
type Product struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null"`
	Price       float64   `json:"price" gorm:"type:decimal(10,2);not null"`
	Stock       int       `json:"stock" gorm:"not null;default:0"`
	// no default tag: gorm would omit an explicit false on insert
	Purchasable bool      `json:"purchasable" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Product) TableName() string { return "products" }

// InStock reports whether at least one unit can be ordered.
func (p *Product) InStock() bool { return p.Stock > 0 }
