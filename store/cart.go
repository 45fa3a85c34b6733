// Package store resolves a visitor to exactly one cart and mediates all cart
// mutations. Two interchangeable backends exist: the gorm-backed persistent
// store and a redis-backed ephemeral store. One is selected at startup.
package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/divijshrivastava/hisrage/models"
)

// Owner identifies the visitor a cart belongs to: the authenticated user id
// when present, otherwise the anonymous session id.
type Owner struct {
	UserID    *uint
	SessionID string
}

type CartStore interface {
	// GetOrCreate resolves the owner's cart, creating one lazily. When the
	// owner carries both identities the user-linked cart wins; a guest cart
	// left over from before login is ignored rather than ambiguously matched.
	GetOrCreate(ctx context.Context, owner Owner) (*models.Cart, error)

	// Get resolves without creating. Returns apperrors.ErrCartNotFound when
	// the owner has no cart yet.
	Get(ctx context.Context, owner Owner) (*models.Cart, error)

	Items(ctx context.Context, cart *models.Cart) ([]models.CartItem, error)

	// AddItem adds the product to the cart, merging quantities when the line
	// already exists. The price is snapshotted from the product at add time.
	AddItem(ctx context.Context, cart *models.Cart, product *models.Product, quantity int) (*models.CartItem, error)

	UpdateQuantity(ctx context.Context, cart *models.Cart, productID uint, quantity int) error
	RemoveItem(ctx context.Context, cart *models.Cart, productID uint) error
	Clear(ctx context.Context, cart *models.Cart) error
}

// TxCartStore is implemented by stores that can join a database transaction,
// letting checkout clear the cart atomically with the order write.
type TxCartStore interface {
	WithTx(tx *gorm.DB) CartStore
}
