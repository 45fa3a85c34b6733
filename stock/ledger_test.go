package stock

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/divijshrivastava/hisrage/models"
	"github.com/divijshrivastava/hisrage/pkg/apperrors"
)

func setupLedger(t *testing.T) (*gorm.DB, *Ledger) {
	t.Helper()

	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.Product{}, &models.Category{}); err != nil {
		t.Fatalf("automigrate failed: %v", err)
	}
	return db, NewLedger(db)
}

func seed(t *testing.T, db *gorm.DB, stockQty int) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:          "ring",
		Slug:          "ring",
		Price:         decimal.NewFromInt(500),
		StockQuantity: stockQty,
		IsActive:      true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	return product
}

func TestDecrement(t *testing.T) {
	db, ledger := setupLedger(t)
	product := seed(t, db, 5)

	if err := ledger.Decrement(product.ID, 3); err != nil {
		t.Fatalf("Decrement: %v", err)
	}

	var got models.Product
	db.First(&got, product.ID)
	if got.StockQuantity != 2 {
		t.Fatalf("expected stock 2, got %d", got.StockQuantity)
	}
}

func TestDecrementNeverGoesNegative(t *testing.T) {
	db, ledger := setupLedger(t)
	product := seed(t, db, 1)

	err := ledger.Decrement(product.ID, 2)
	var stockErr *apperrors.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if stockErr.ProductName != "ring" {
		t.Fatalf("expected offending product name, got %q", stockErr.ProductName)
	}

	var got models.Product
	db.First(&got, product.ID)
	if got.StockQuantity != 1 {
		t.Fatalf("stock must be untouched, got %d", got.StockQuantity)
	}
}

func TestDecrementExactlyToZero(t *testing.T) {
	db, ledger := setupLedger(t)
	product := seed(t, db, 2)

	if err := ledger.Decrement(product.ID, 2); err != nil {
		t.Fatalf("Decrement to zero: %v", err)
	}
	if err := ledger.Decrement(product.ID, 1); err == nil {
		t.Fatal("expected failure once stock is exhausted")
	}
}

func TestDecrementUnknownProduct(t *testing.T) {
	_, ledger := setupLedger(t)

	if err := ledger.Decrement(999, 1); !errors.Is(err, apperrors.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestCheckAvailable(t *testing.T) {
	db, ledger := setupLedger(t)
	product := seed(t, db, 3)

	ok, err := ledger.CheckAvailable(product.ID, 3)
	if err != nil || !ok {
		t.Fatalf("expected available, got ok=%v err=%v", ok, err)
	}
	ok, err = ledger.CheckAvailable(product.ID, 4)
	if err != nil || ok {
		t.Fatalf("expected unavailable, got ok=%v err=%v", ok, err)
	}
}
