package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string
type PaymentStatus string

const (
	// Order statuses (typical e-commerce flow)
	OrderStatusPending   OrderStatus = "pending"   // Order placed, awaiting confirmation
	OrderStatusConfirmed OrderStatus = "confirmed" // Payment confirmed (or COD accepted)
	OrderStatusShipped   OrderStatus = "shipped"   // Out for delivery
	OrderStatusDelivered OrderStatus = "delivered" // Customer received the item
	OrderStatusCancelled OrderStatus = "cancelled" // Cancelled before shipping

	// Payment statuses
	PaymentStatusUnpaid PaymentStatus = "unpaid" // Payment not completed yet
	PaymentStatusPaid   PaymentStatus = "paid"   // Payment completed successfully
	PaymentStatusFailed PaymentStatus = "failed" // Payment attempt failed
)

// Order is an immutable snapshot of a completed checkout. Only the status
// fields, timestamps and provider correlation ids change after creation.
type Order struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OrderNumber string `gorm:"uniqueIndex;not null" json:"order_number"`
	UserID      *uint  `gorm:"index" json:"user_id"`

	Email string `gorm:"not null" json:"email"`
	Phone string `gorm:"not null" json:"phone"`

	ShippingFirstName    string `gorm:"not null" json:"shipping_first_name"`
	ShippingLastName     string `gorm:"not null" json:"shipping_last_name"`
	ShippingAddressLine1 string `gorm:"not null" json:"shipping_address_line1"`
	ShippingAddressLine2 string `json:"shipping_address_line2"`
	ShippingCity         string `gorm:"not null" json:"shipping_city"`
	ShippingState        string `gorm:"not null" json:"shipping_state"`
	ShippingPostalCode   string `gorm:"not null" json:"shipping_postal_code"`
	ShippingCountry      string `gorm:"default:India" json:"shipping_country"`

	Subtotal     decimal.Decimal `gorm:"type:numeric;not null" json:"subtotal"`
	ShippingCost decimal.Decimal `gorm:"type:numeric;not null" json:"shipping_cost"`
	Tax          decimal.Decimal `gorm:"type:numeric;not null" json:"tax"`
	Total        decimal.Decimal `gorm:"type:numeric;not null" json:"total"`

	Status        OrderStatus   `gorm:"type:VARCHAR(20);default:'pending'" json:"status"`
	PaymentStatus PaymentStatus `gorm:"type:VARCHAR(20);default:'unpaid'" json:"payment_status"`
	PaymentMethod string        `gorm:"not null" json:"payment_method"` // "razorpay", "stripe" or "cod"

	// Provider correlation ids, one slot per provider.
	RazorpayOrderID       string `gorm:"index" json:"razorpay_order_id,omitempty"`
	RazorpayPaymentID     string `json:"razorpay_payment_id,omitempty"`
	RazorpaySignature     string `json:"-"`
	StripePaymentIntentID string `gorm:"index" json:"stripe_payment_intent_id,omitempty"`

	CustomerNotes  string `json:"customer_notes"`
	AdminNotes     string `json:"admin_notes,omitempty"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	TrackingURL    string `json:"tracking_url,omitempty"`

	PaidAt      *time.Time `json:"paid_at"`
	ShippedAt   *time.Time `json:"shipped_at"`
	DeliveredAt *time.Time `json:"delivered_at"`

	Items     []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// OrderItem is decoupled from the live product row so historical orders stay
// accurate after the product is edited or deactivated.
type OrderItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     uint            `gorm:"index" json:"order_id"`
	ProductID   uint            `json:"product_id"`
	ProductName string          `gorm:"not null" json:"product_name"`
	ProductSKU  string          `gorm:"column:product_sku" json:"product_sku"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	Price       decimal.Decimal `gorm:"type:numeric;not null" json:"price"`
	Subtotal    decimal.Decimal `gorm:"type:numeric;not null" json:"subtotal"`
}
