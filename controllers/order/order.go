package orderControllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/divijshrivastava/hisrage/models"
	"github.com/divijshrivastava/hisrage/pkg/log"
)

// StatusPatch is a typed partial update. Only these fields can ever be
// touched after an order is created; nothing is built from caller-supplied
// column names.
type StatusPatch struct {
	Status         *string `json:"status"`
	TrackingNumber *string `json:"tracking_number"`
	TrackingURL    *string `json:"tracking_url"`
	AdminNotes     *string `json:"admin_notes"`
}

func mapOrderStatus(status string) (models.OrderStatus, error) {
	switch models.OrderStatus(status) {
	case models.OrderStatusPending,
		models.OrderStatusConfirmed,
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
		models.OrderStatusCancelled:
		return models.OrderStatus(status), nil
	default:
		return "", errors.New("invalid order status")
	}
}

// GET /orders/:orderNumber — public lookup by the human-shareable number.
func GetOrderByNumberHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderNumber := c.Param("orderNumber")

		var order models.Order
		if err := db.Preload("Items").
			Where("order_number = ?", orderNumber).
			First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
				return
			}
			log.L.Error("failed to fetch order", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
			return
		}

		c.JSON(http.StatusOK, order)
	}
}

// GET /orders/user/all — the authenticated visitor's own orders.
func GetUserOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		var orders []models.Order
		if err := db.Where("user_id = ?", userID).
			Preload("Items").
			Order("created_at DESC").
			Find(&orders).Error; err != nil {
			log.L.Error("failed to fetch user orders", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
			return
		}

		c.JSON(http.StatusOK, orders)
	}
}

func mapPaymentStatus(status string) (models.PaymentStatus, error) {
	switch models.PaymentStatus(status) {
	case models.PaymentStatusUnpaid,
		models.PaymentStatusPaid,
		models.PaymentStatusFailed:
		return models.PaymentStatus(status), nil
	default:
		return "", errors.New("invalid payment status")
	}
}

// GET /admin/orders — paginated listing, optional status / payment_status
// filters.
func GetAllOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		if limit <= 0 || limit > 100 {
			limit = 50
		}
		if offset < 0 {
			offset = 0
		}

		query := db.Preload("Items").Order("created_at DESC")
		if status := c.Query("status"); status != "" {
			mapped, err := mapOrderStatus(status)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			query = query.Where("status = ?", mapped)
		}
		if status := c.Query("payment_status"); status != "" {
			mapped, err := mapPaymentStatus(status)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			query = query.Where("payment_status = ?", mapped)
		}

		var orders []models.Order
		if err := query.Limit(limit).Offset(offset).Find(&orders).Error; err != nil {
			log.L.Error("failed to fetch orders", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"orders": orders,
			"count":  len(orders),
		})
	}
}

// PUT /admin/orders/:orderNumber — apply a StatusPatch. Shipped and
// delivered transitions stamp their timestamps in the same update.
func UpdateOrderStatusHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderNumber := c.Param("orderNumber")

		var patch StatusPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		updates := map[string]interface{}{}
		if patch.Status != nil {
			status, err := mapOrderStatus(*patch.Status)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			updates["status"] = status
			now := time.Now()
			switch status {
			case models.OrderStatusShipped:
				updates["shipped_at"] = &now
			case models.OrderStatusDelivered:
				updates["delivered_at"] = &now
			}
		}
		if patch.TrackingNumber != nil {
			updates["tracking_number"] = *patch.TrackingNumber
		}
		if patch.TrackingURL != nil {
			updates["tracking_url"] = *patch.TrackingURL
		}
		if patch.AdminNotes != nil {
			updates["admin_notes"] = *patch.AdminNotes
		}

		if len(updates) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No updates provided"})
			return
		}

		res := db.Model(&models.Order{}).
			Where("order_number = ?", orderNumber).
			Updates(updates)
		if res.Error != nil {
			log.L.Error("failed to update order", zap.Error(res.Error))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Order updated successfully"})
	}
}
