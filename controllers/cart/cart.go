package cartControllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/divijshrivastava/hisrage/middleware"
	"github.com/divijshrivastava/hisrage/models"
	"github.com/divijshrivastava/hisrage/pkg/apperrors"
	"github.com/divijshrivastava/hisrage/pkg/log"
	"github.com/divijshrivastava/hisrage/store"
)

type AddItemInput struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"omitempty,min=1"`
}

type UpdateItemInput struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

type cartLine struct {
	ProductID     uint            `json:"product_id"`
	Name          string          `json:"name"`
	Slug          string          `json:"slug"`
	ImageURL      string          `json:"image_url"`
	StockQuantity int             `json:"stock_quantity"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
}

// GET /cart
func GetCart(db *gorm.DB, carts store.CartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		cart, err := carts.GetOrCreate(ctx, middleware.CurrentOwner(c))
		if err != nil {
			log.L.Error("failed to resolve cart", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
			return
		}

		items, err := carts.Items(ctx, cart)
		if err != nil {
			log.L.Error("failed to load cart items", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
			return
		}

		lines := make([]cartLine, 0, len(items))
		itemCount := 0
		subtotal := decimal.Zero

		if len(items) > 0 {
			ids := make([]uint, 0, len(items))
			for _, item := range items {
				ids = append(ids, item.ProductID)
			}
			var products []models.Product
			if err := db.Where("id IN ?", ids).Find(&products).Error; err != nil {
				log.L.Error("failed to load cart products", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
				return
			}
			byID := make(map[uint]models.Product, len(products))
			for _, p := range products {
				byID[p.ID] = p
			}

			for _, item := range items {
				p := byID[item.ProductID]
				lines = append(lines, cartLine{
					ProductID:     item.ProductID,
					Name:          p.Name,
					Slug:          p.Slug,
					ImageURL:      p.ImageURL,
					StockQuantity: p.StockQuantity,
					Quantity:      item.Quantity,
					Price:         item.Price,
				})
				itemCount += item.Quantity
				subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"cart_id":    cart.ID,
			"items":      lines,
			"item_count": itemCount,
			"subtotal":   subtotal,
		})
	}
}

// POST /cart/add
func AddItem(db *gorm.DB, carts store.CartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input AddItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Product ID is required"})
			return
		}
		if input.Quantity == 0 {
			input.Quantity = 1
		}

		var product models.Product
		if err := db.First(&product, "id = ? AND is_active = ?", input.ProductID, true).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
				return
			}
			log.L.Error("failed to load product", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add item to cart"})
			return
		}

		if product.StockQuantity < input.Quantity {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient stock"})
			return
		}

		ctx := c.Request.Context()
		cart, err := carts.GetOrCreate(ctx, middleware.CurrentOwner(c))
		if err != nil {
			log.L.Error("failed to resolve cart", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add item to cart"})
			return
		}

		if _, err := carts.AddItem(ctx, cart, &product, input.Quantity); err != nil {
			var stockErr *apperrors.InsufficientStockError
			if errors.As(err, &stockErr) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient stock"})
				return
			}
			log.L.Error("failed to add cart item", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add item to cart"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Item added to cart successfully"})
	}
}

// PUT /cart/update/:productID
func UpdateItem(db *gorm.DB, carts store.CartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, err := strconv.ParseUint(c.Param("productID"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
			return
		}

		var input UpdateItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity must be at least 1"})
			return
		}

		var product models.Product
		if err := db.First(&product, "id = ?", productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
				return
			}
			log.L.Error("failed to load product", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
			return
		}
		if product.StockQuantity < input.Quantity {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient stock"})
			return
		}

		ctx := c.Request.Context()
		cart, err := carts.Get(ctx, middleware.CurrentOwner(c))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
			return
		}

		if err := carts.UpdateQuantity(ctx, cart, uint(productID), input.Quantity); err != nil {
			if errors.Is(err, apperrors.ErrProductNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
				return
			}
			log.L.Error("failed to update cart item", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Cart updated successfully"})
	}
}

// DELETE /cart/remove/:productID
func RemoveItem(carts store.CartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, err := strconv.ParseUint(c.Param("productID"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
			return
		}

		ctx := c.Request.Context()
		cart, err := carts.Get(ctx, middleware.CurrentOwner(c))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
			return
		}

		if err := carts.RemoveItem(ctx, cart, uint(productID)); err != nil {
			if errors.Is(err, apperrors.ErrProductNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
				return
			}
			log.L.Error("failed to remove cart item", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove item"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
	}
}

// DELETE /cart/clear
func ClearCart(carts store.CartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		cart, err := carts.Get(ctx, middleware.CurrentOwner(c))
		if err != nil {
			if errors.Is(err, apperrors.ErrCartNotFound) {
				c.JSON(http.StatusOK, gin.H{"message": "Cart cleared successfully"})
				return
			}
			log.L.Error("failed to resolve cart", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart"})
			return
		}

		if err := carts.Clear(ctx, cart); err != nil {
			log.L.Error("failed to clear cart", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Cart cleared successfully"})
	}
}
