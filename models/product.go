package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Product is the live catalog row. Cart and order lines snapshot the fields
// they need, so edits here never rewrite history.
type Product struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CategoryID  *uint     `gorm:"index" json:"category_id"`
	Category    *Category `json:"category,omitempty"`
	Name        string    `gorm:"not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"`
	Description string    `json:"description"`

	Price          decimal.Decimal  `gorm:"type:numeric;not null" json:"price"`
	CompareAtPrice *decimal.Decimal `gorm:"type:numeric" json:"compare_at_price,omitempty"`

	SKU           string `gorm:"uniqueIndex" json:"sku"`
	StockQuantity int    `gorm:"not null;default:0" json:"stock_quantity"`

	ImageURL string `json:"image_url"`
	Material string `json:"material"`

	Featured bool `gorm:"default:false" json:"featured"`
	IsActive bool `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
