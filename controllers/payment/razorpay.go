package paymentControllers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/divijshrivastava/hisrage/pkg/apperrors"
	"github.com/divijshrivastava/hisrage/pkg/log"
)

type CreateRazorpayOrderRequest struct {
	OrderID uint `json:"order_id" binding:"required"`
}

type VerifyRazorpayRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string `json:"razorpay_signature" binding:"required"`
}

// POST /payments/razorpay/create — opens a provider-side payment session for
// exactly the order total and persists the correlation id on the order.
func CreateRazorpayOrderHandler(db *gorm.DB, p *Providers) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p.Razorpay == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Razorpay is not configured"})
			return
		}

		var req CreateRazorpayOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "order_id is required"})
			return
		}

		order, err := orderByID(db, req.OrderID)
		if err != nil {
			if errors.Is(err, apperrors.ErrOrderNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
				return
			}
			log.L.Error("failed to load order", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Razorpay order"})
			return
		}

		// Razorpay wants the amount in paise.
		amount := order.Total.Shift(2).IntPart()

		data := map[string]interface{}{
			"amount":   amount,
			"currency": "INR",
			"receipt":  order.OrderNumber,
			"notes": map[string]interface{}{
				"order_id":     order.ID,
				"order_number": order.OrderNumber,
			},
		}
		rzpOrder, err := p.Razorpay.Order.Create(data, nil)
		if err != nil {
			log.L.Error("razorpay order creation failed",
				zap.String("order_number", order.OrderNumber), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create Razorpay order"})
			return
		}

		rzpOrderID, ok := rzpOrder["id"].(string)
		if !ok || rzpOrderID == "" {
			log.L.Error("razorpay returned no order id",
				zap.String("order_number", order.OrderNumber))
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create Razorpay order"})
			return
		}

		if err := db.Model(order).Update("razorpay_order_id", rzpOrderID).Error; err != nil {
			log.L.Error("failed to persist razorpay order id", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Razorpay order"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"razorpay_order_id": rzpOrderID,
			"amount":            amount,
			"currency":          "INR",
			"key":               p.RazorpayKeyID,
		})
	}
}

// verifyRazorpaySignature recomputes the HMAC-SHA256 over
// "order_id|payment_id" and compares it in constant time.
func verifyRazorpaySignature(orderID, paymentID, signature, secret string) error {
	if secret == "" {
		return apperrors.ErrProviderUnavailable
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return apperrors.ErrInvalidSignature
	}
	return nil
}

// POST /payments/razorpay/verify — synchronous confirmation. The signature
// is the sole authenticity check; on match the order matched by the provider
// order id transitions to paid/confirmed.
func VerifyRazorpayPaymentHandler(db *gorm.DB, p *Providers) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req VerifyRazorpayRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		if err := verifyRazorpaySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature, p.razorpayKeySecret); err != nil {
			if errors.Is(err, apperrors.ErrProviderUnavailable) {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Razorpay is not configured"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
			return
		}

		rows, err := markPaid(db, "razorpay_order_id", req.RazorpayOrderID, map[string]interface{}{
			"razorpay_payment_id": req.RazorpayPaymentID,
			"razorpay_signature":  req.RazorpaySignature,
		})
		if err != nil {
			log.L.Error("failed to mark order paid", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Payment verification failed"})
			return
		}
		if rows == 0 {
			// A replayed verification for a paid order is a no-op success.
			paid, err := alreadyPaid(db, "razorpay_order_id", req.RazorpayOrderID)
			if err != nil {
				log.L.Error("failed to check payment state", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Payment verification failed"})
				return
			}
			if paid {
				c.JSON(http.StatusOK, gin.H{
					"success": true,
					"message": "Payment verified successfully",
				})
				return
			}
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}

		paymentsConfirmed.WithLabelValues("razorpay").Inc()
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Payment verified successfully",
		})
	}
}
