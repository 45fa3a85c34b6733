package paymentControllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	stripe "github.com/stripe/stripe-go/v76"
	checkoutsession "github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/divijshrivastava/hisrage/pkg/apperrors"
	"github.com/divijshrivastava/hisrage/pkg/log"
)

const maxWebhookBody = 64 << 10

type CreateStripeSessionRequest struct {
	OrderID uint `json:"order_id" binding:"required"`
}

// POST /payments/stripe/create — creates a Stripe Checkout session mirroring
// the order's line items (plus shipping when charged) and persists the
// session id as the correlation id.
func CreateStripeSessionHandler(db *gorm.DB, p *Providers) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !p.StripeEnabled {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Stripe is not configured"})
			return
		}

		var req CreateStripeSessionRequest
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
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create checkout session"})
			return
		}

		lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(order.Items)+1)
		for _, item := range order.Items {
			lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String("inr"),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(item.ProductName),
					},
					UnitAmount: stripe.Int64(item.Price.Shift(2).IntPart()),
				},
				Quantity: stripe.Int64(int64(item.Quantity)),
			})
		}
		if order.ShippingCost.IsPositive() {
			lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String("inr"),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Shipping"),
					},
					UnitAmount: stripe.Int64(order.ShippingCost.Shift(2).IntPart()),
				},
				Quantity: stripe.Int64(1),
			})
		}

		params := &stripe.CheckoutSessionParams{
			PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
			LineItems:          lineItems,
			Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
			SuccessURL:         stripe.String(p.FrontendURL + "/payment-success.html?order=" + order.OrderNumber),
			CancelURL:          stripe.String(p.FrontendURL + "/payment-failure.html?order=" + order.OrderNumber),
			CustomerEmail:      stripe.String(order.Email),
		}
		params.AddMetadata("order_number", order.OrderNumber)

		sess, err := checkoutsession.New(params)
		if err != nil {
			log.L.Error("stripe session creation failed",
				zap.String("order_number", order.OrderNumber), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create checkout session"})
			return
		}

		if err := db.Model(order).Update("stripe_payment_intent_id", sess.ID).Error; err != nil {
			log.L.Error("failed to persist stripe session id", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create checkout session"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"session_id":      sess.ID,
			"publishable_key": p.StripePublishableKey,
		})
	}
}

// POST /payments/stripe/webhook — raw-body endpoint. The transport signature
// is verified with the webhook secret before any field of the event is
// trusted. Stripe delivers at least once; the paid transition is idempotent,
// so replays fall through harmlessly.
func StripeWebhookHandler(db *gorm.DB, p *Providers) gin.HandlerFunc {
	return func(c *gin.Context) {
		// An empty secret would let ConstructEvent verify signatures
		// computed with the empty key, so it disables the endpoint.
		if !p.StripeEnabled || p.stripeWebhookSecret == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Stripe webhooks are not configured"})
			return
		}

		payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
			return
		}

		event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), p.stripeWebhookSecret)
		if err != nil {
			log.L.Warn("stripe webhook signature verification failed", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook signature"})
			return
		}

		switch event.Type {
		case "checkout.session.completed":
			var sess stripe.CheckoutSession
			if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "malformed event payload"})
				return
			}
			applyStripePaid(db, sess.ID)
		case "payment_intent.succeeded":
			// Fallback correlation for integrations storing the intent id.
			var intent stripe.PaymentIntent
			if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "malformed event payload"})
				return
			}
			applyStripePaid(db, intent.ID)
		}

		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

func applyStripePaid(db *gorm.DB, correlationID string) {
	rows, err := markPaid(db, "stripe_payment_intent_id", correlationID, nil)
	if err != nil {
		log.L.Error("failed to apply stripe payment event",
			zap.String("correlation_id", correlationID), zap.Error(err))
		return
	}
	if rows == 0 {
		log.L.Warn("stripe event matched no order",
			zap.String("correlation_id", correlationID))
		return
	}
	paymentsConfirmed.WithLabelValues("stripe").Inc()
}
