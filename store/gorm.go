package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/divijshrivastava/hisrage/models"
	"github.com/divijshrivastava/hisrage/pkg/apperrors"
)

type GormCartStore struct {
	db *gorm.DB
}

func NewGormCartStore(db *gorm.DB) *GormCartStore {
	return &GormCartStore{db: db}
}

// WithTx returns a store bound to the given transaction.
func (s *GormCartStore) WithTx(tx *gorm.DB) CartStore {
	return &GormCartStore{db: tx}
}

func (s *GormCartStore) find(ctx context.Context, owner Owner) (*models.Cart, error) {
	var cart models.Cart

	// User-linked cart wins over a leftover session cart.
	if owner.UserID != nil {
		err := s.db.WithContext(ctx).Where("user_id = ?", *owner.UserID).First(&cart).Error
		if err == nil {
			return &cart, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if owner.SessionID != "" {
		err := s.db.WithContext(ctx).Where("session_id = ?", owner.SessionID).First(&cart).Error
		if err == nil {
			return &cart, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return nil, apperrors.ErrCartNotFound
}

func (s *GormCartStore) Get(ctx context.Context, owner Owner) (*models.Cart, error) {
	return s.find(ctx, owner)
}

func (s *GormCartStore) GetOrCreate(ctx context.Context, owner Owner) (*models.Cart, error) {
	cart, err := s.find(ctx, owner)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, apperrors.ErrCartNotFound) {
		return nil, err
	}

	cart = &models.Cart{}
	if owner.UserID != nil {
		cart.UserID = owner.UserID
	} else if owner.SessionID != "" {
		sid := owner.SessionID
		cart.SessionID = &sid
	} else {
		return nil, apperrors.ErrCartNotFound
	}

	if err := s.db.WithContext(ctx).Create(cart).Error; err != nil {
		// Concurrent first request for the same owner may have won the insert.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.find(ctx, owner)
		}
		return nil, err
	}
	return cart, nil
}

func (s *GormCartStore) Items(ctx context.Context, cart *models.Cart) ([]models.CartItem, error) {
	var items []models.CartItem
	err := s.db.WithContext(ctx).
		Where("cart_id = ?", cart.ID).
		Order("added_at").
		Find(&items).Error
	return items, err
}

func (s *GormCartStore) AddItem(ctx context.Context, cart *models.Cart, product *models.Product, quantity int) (*models.CartItem, error) {
	var item models.CartItem
	err := s.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cart.ID, product.ID).
		First(&item).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		item = models.CartItem{
			CartID:    cart.ID,
			ProductID: product.ID,
			Quantity:  quantity,
			Price:     product.Price,
			AddedAt:   time.Now(),
		}
		if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
			return nil, err
		}
		return &item, nil
	}
	if err != nil {
		return nil, err
	}

	merged := item.Quantity + quantity
	if product.StockQuantity < merged {
		return nil, &apperrors.InsufficientStockError{ProductName: product.Name}
	}
	// The snapshotted price is kept; only the quantity moves.
	item.Quantity = merged
	if err := s.db.WithContext(ctx).Save(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *GormCartStore) UpdateQuantity(ctx context.Context, cart *models.Cart, productID uint, quantity int) error {
	res := s.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("cart_id = ? AND product_id = ?", cart.ID, productID).
		Update("quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrProductNotFound
	}
	return nil
}

func (s *GormCartStore) RemoveItem(ctx context.Context, cart *models.Cart, productID uint) error {
	res := s.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cart.ID, productID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrProductNotFound
	}
	return nil
}

// Clear deletes the cart's items but never the cart row itself.
func (s *GormCartStore) Clear(ctx context.Context, cart *models.Cart) error {
	return s.db.WithContext(ctx).
		Where("cart_id = ?", cart.ID).
		Delete(&models.CartItem{}).Error
}
