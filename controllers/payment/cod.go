package paymentControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/divijshrivastava/hisrage/models"
	"github.com/divijshrivastava/hisrage/pkg/log"
)

type ConfirmCODRequest struct {
	OrderID uint `json:"order_id" binding:"required"`
}

// POST /payments/cod/confirm — manual confirmation for cash on delivery.
// The payment_method guard keeps a card order from being confirmed through
// this endpoint; a method mismatch reads the same as a missing order.
func ConfirmCODOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ConfirmCODRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "order_id is required"})
			return
		}

		res := db.Model(&models.Order{}).
			Where("id = ? AND payment_method = ?", req.OrderID, "cod").
			Update("status", models.OrderStatusConfirmed)
		if res.Error != nil {
			log.L.Error("failed to confirm cod order", zap.Error(res.Error))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to confirm order"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}

		paymentsConfirmed.WithLabelValues("cod").Inc()
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "COD order confirmed",
		})
	}
}
