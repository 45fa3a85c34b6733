// Package stock is the only writer of product stock quantities.
package stock

import (
	"errors"

	"gorm.io/gorm"

	"github.com/divijshrivastava/hisrage/models"
	"github.com/divijshrivastava/hisrage/pkg/apperrors"
)

type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// WithTx binds the ledger to a transaction. Checkout decrements must run in
// the same transaction as the order write.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{db: tx}
}

func (l *Ledger) CheckAvailable(productID uint, quantity int) (bool, error) {
	var product models.Product
	if err := l.db.Select("stock_quantity").First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperrors.ErrProductNotFound
		}
		return false, err
	}
	return product.StockQuantity >= quantity, nil
}

// Decrement subtracts quantity from the product's stock. The condition in the
// UPDATE is the serialization point: under concurrent checkouts the row lock
// ensures at most one caller wins the last units, and stock never goes
// negative. A zero-row result means insufficient stock.
func (l *Ledger) Decrement(productID uint, quantity int) error {
	res := l.db.Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", productID, quantity).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var product models.Product
		if err := l.db.Select("name").First(&product, "id = ?", productID).Error; err != nil {
			return apperrors.ErrProductNotFound
		}
		return &apperrors.InsufficientStockError{ProductName: product.Name}
	}
	return nil
}
