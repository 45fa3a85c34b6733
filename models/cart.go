package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// A cart belongs to exactly one owner: an authenticated user or an anonymous
// session, never both lookups at once. The unique indexes enforce one cart
// per owner; multiple NULLs are allowed so both columns can stay optional.
type Cart struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    *uint      `gorm:"uniqueIndex" json:"user_id"`
	SessionID *string    `gorm:"uniqueIndex" json:"session_id"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem snapshots the product price at add time. A later catalog price
// change does not move an existing cart line.
type CartItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	CartID    uint            `gorm:"uniqueIndex:idx_cart_product" json:"cart_id"`
	ProductID uint            `gorm:"uniqueIndex:idx_cart_product" json:"product_id"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:numeric;not null" json:"price"`
	AddedAt   time.Time       `json:"added_at"`
}
