package checkoutControllers

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	orderControllers "github.com/divijshrivastava/hisrage/controllers/order"
	"github.com/divijshrivastava/hisrage/middleware"
	"github.com/divijshrivastava/hisrage/models"
	"github.com/divijshrivastava/hisrage/pkg/apperrors"
	"github.com/divijshrivastava/hisrage/pkg/log"
	"github.com/divijshrivastava/hisrage/stock"
	"github.com/divijshrivastava/hisrage/store"
)

var checkoutTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "hisrage_checkout_total",
		Help: "Checkout attempts by result",
	},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(checkoutTotal)
}

// Insert-time order-number collisions abort the whole transaction; the
// checkout is retried with a fresh number.
const maxOrderNumberAttempts = 3

type CheckoutRequest struct {
	Email                string `json:"email"`
	Phone                string `json:"phone"`
	ShippingFirstName    string `json:"shipping_first_name"`
	ShippingLastName     string `json:"shipping_last_name"`
	ShippingAddressLine1 string `json:"shipping_address_line1"`
	ShippingAddressLine2 string `json:"shipping_address_line2"`
	ShippingCity         string `json:"shipping_city"`
	ShippingState        string `json:"shipping_state"`
	ShippingPostalCode   string `json:"shipping_postal_code"`
	ShippingCountry      string `json:"shipping_country"`
	PaymentMethod        string `json:"payment_method"`
	CustomerNotes        string `json:"customer_notes"`
}

func (r *CheckoutRequest) validate() error {
	required := []struct {
		field string
		value string
	}{
		{"email", r.Email},
		{"phone", r.Phone},
		{"shipping_first_name", r.ShippingFirstName},
		{"shipping_last_name", r.ShippingLastName},
		{"shipping_address_line1", r.ShippingAddressLine1},
		{"shipping_city", r.ShippingCity},
		{"shipping_state", r.ShippingState},
		{"shipping_postal_code", r.ShippingPostalCode},
		{"payment_method", r.PaymentMethod},
	}
	for _, f := range required {
		if f.value == "" {
			return &apperrors.ValidationError{Field: f.field}
		}
	}
	switch r.PaymentMethod {
	case "razorpay", "stripe", "cod":
	default:
		return &apperrors.ValidationError{Field: "payment_method"}
	}
	return nil
}

// generateOrderNumber builds a human-shareable order number from a time
// prefix and a random suffix. Uniqueness is enforced by the database index,
// not probed beforehand.
func generateOrderNumber() string {
	millis := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if len(millis) > 8 {
		millis = millis[len(millis)-8:]
	}
	return "HR" + millis + strconv.Itoa(rand.Intn(900)+100)
}

func envDecimal(key string, fallback int64) decimal.Decimal {
	if raw := os.Getenv(key); raw != "" {
		if d, err := decimal.NewFromString(raw); err == nil {
			return d
		}
	}
	return decimal.NewFromInt(fallback)
}

func shippingFor(subtotal decimal.Decimal) decimal.Decimal {
	threshold := envDecimal("FREE_SHIPPING_THRESHOLD", 2000)
	if subtotal.GreaterThanOrEqual(threshold) {
		return decimal.Zero
	}
	return envDecimal("SHIPPING_FLAT_RATE", 99)
}

// PlaceOrder converts the owner's cart into an order. Order row, order items,
// stock decrements and cart clearing all happen in one transaction; any
// failure rolls the whole set back.
func PlaceOrder(ctx context.Context, db *gorm.DB, carts store.CartStore, ledger *stock.Ledger, owner store.Owner, req CheckoutRequest) (*models.Order, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	cart, err := carts.Get(ctx, owner)
	if err != nil {
		if errors.Is(err, apperrors.ErrCartNotFound) {
			return nil, apperrors.ErrEmptyCart
		}
		return nil, err
	}

	// Cheap fail-fast before opening a transaction. The authoritative item
	// load happens again inside the transaction.
	items, err := carts.Items(ctx, cart)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperrors.ErrEmptyCart
	}

	var order *models.Order
	for attempt := 0; attempt < maxOrderNumberAttempts; attempt++ {
		order, err = placeOnce(ctx, db, carts, ledger, owner, cart, req)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			log.L.Warn("order number collision, retrying",
				zap.Int("attempt", attempt+1))
			continue
		}
		break
	}
	if err != nil {
		return nil, err
	}

	// Ephemeral stores cannot join the transaction; clear after commit.
	if _, ok := carts.(store.TxCartStore); !ok {
		if err := carts.Clear(ctx, cart); err != nil {
			log.L.Error("failed to clear cart after checkout",
				zap.String("order_number", order.OrderNumber), zap.Error(err))
		}
	}

	orderControllers.BroadcastNewOrder(order)
	return order, nil
}

func placeOnce(ctx context.Context, db *gorm.DB, carts store.CartStore, ledger *stock.Ledger, owner store.Owner, cart *models.Cart, req CheckoutRequest) (*models.Order, error) {
	var order models.Order

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCarts := carts
		if ts, ok := carts.(store.TxCartStore); ok {
			txCarts = ts.WithTx(tx)
		}

		items, err := txCarts.Items(ctx, cart)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return apperrors.ErrEmptyCart
		}

		products := make(map[uint]models.Product, len(items))
		ids := make([]uint, 0, len(items))
		for _, item := range items {
			ids = append(ids, item.ProductID)
		}
		var rows []models.Product
		if err := tx.Where("id IN ?", ids).Find(&rows).Error; err != nil {
			return err
		}
		for _, p := range rows {
			products[p.ID] = p
		}

		subtotal := decimal.Zero
		orderItems := make([]models.OrderItem, 0, len(items))
		for _, item := range items {
			product, ok := products[item.ProductID]
			if !ok {
				return apperrors.ErrProductNotFound
			}
			if product.StockQuantity < item.Quantity {
				return &apperrors.InsufficientStockError{ProductName: product.Name}
			}

			// Line total from the cart-snapshotted price, never a re-read
			// catalog price.
			lineTotal := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			subtotal = subtotal.Add(lineTotal)

			orderItems = append(orderItems, models.OrderItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				ProductSKU:  product.SKU,
				Quantity:    item.Quantity,
				Price:       item.Price,
				Subtotal:    lineTotal,
			})
		}

		shippingCost := shippingFor(subtotal)
		tax := decimal.Zero
		total := subtotal.Add(shippingCost).Add(tax)

		country := req.ShippingCountry
		if country == "" {
			country = "India"
		}

		order = models.Order{
			OrderNumber:          generateOrderNumber(),
			UserID:               owner.UserID,
			Email:                req.Email,
			Phone:                req.Phone,
			ShippingFirstName:    req.ShippingFirstName,
			ShippingLastName:     req.ShippingLastName,
			ShippingAddressLine1: req.ShippingAddressLine1,
			ShippingAddressLine2: req.ShippingAddressLine2,
			ShippingCity:         req.ShippingCity,
			ShippingState:        req.ShippingState,
			ShippingPostalCode:   req.ShippingPostalCode,
			ShippingCountry:      country,
			Subtotal:             subtotal,
			ShippingCost:         shippingCost,
			Tax:                  tax,
			Total:                total,
			Status:               models.OrderStatusPending,
			PaymentStatus:        models.PaymentStatusUnpaid,
			PaymentMethod:        req.PaymentMethod,
			CustomerNotes:        req.CustomerNotes,
			Items:                orderItems,
		}

		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		txLedger := ledger.WithTx(tx)
		for _, item := range items {
			if err := txLedger.Decrement(item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		if _, ok := carts.(store.TxCartStore); ok {
			if err := txCarts.Clear(ctx, cart); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// PlaceOrderHandler handles POST /orders/create.
func PlaceOrderHandler(db *gorm.DB, carts store.CartStore, ledger *stock.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		owner := middleware.CurrentOwner(c)
		order, err := PlaceOrder(c.Request.Context(), db, carts, ledger, owner, req)
		if err != nil {
			checkoutTotal.WithLabelValues("rejected").Inc()

			var vErr *apperrors.ValidationError
			var stockErr *apperrors.InsufficientStockError
			switch {
			case errors.As(err, &vErr), errors.Is(err, apperrors.ErrEmptyCart):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			case errors.As(err, &stockErr):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			default:
				log.L.Error("checkout failed", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
			}
			return
		}

		checkoutTotal.WithLabelValues("committed").Inc()
		c.JSON(http.StatusOK, gin.H{
			"message": "Order created successfully",
			"order": gin.H{
				"id":             order.ID,
				"order_number":   order.OrderNumber,
				"total":          order.Total,
				"payment_method": order.PaymentMethod,
			},
		})
	}
}
