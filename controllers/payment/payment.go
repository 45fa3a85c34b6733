// Package paymentControllers reconciles provider-driven payment events with
// order payment state. Each provider is an optional dependency constructed
// once at startup; a provider that is not configured answers 503, it never
// panics on a nil handle.
package paymentControllers

import (
	"errors"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	razorpay "github.com/razorpay/razorpay-go"
	stripe "github.com/stripe/stripe-go/v76"
	"gorm.io/gorm"

	"github.com/divijshrivastava/hisrage/models"
	"github.com/divijshrivastava/hisrage/pkg/apperrors"
)

var paymentsConfirmed = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "hisrage_payments_confirmed_total",
		Help: "Orders transitioned to paid, by provider",
	},
	[]string{"provider"},
)

func init() {
	prometheus.MustRegister(paymentsConfirmed)
}

type Providers struct {
	Razorpay          *razorpay.Client
	RazorpayKeyID     string
	razorpayKeySecret string

	StripeEnabled        bool
	StripePublishableKey string
	// The webhook secret is distinct from the API key on purpose: transport
	// signatures must not be verifiable with the create/verify credential.
	stripeWebhookSecret string

	FrontendURL string
}

// LoadProviders builds the provider set from the environment. Providers with
// missing credentials are simply left unset.
func LoadProviders() *Providers {
	p := &Providers{
		FrontendURL: os.Getenv("FRONTEND_URL"),
	}
	if p.FrontendURL == "" {
		p.FrontendURL = "http://localhost:3000"
	}

	keyID := os.Getenv("RAZORPAY_KEY_ID")
	keySecret := os.Getenv("RAZORPAY_KEY_SECRET")
	if keyID != "" && keySecret != "" {
		p.Razorpay = razorpay.NewClient(keyID, keySecret)
		p.RazorpayKeyID = keyID
		p.razorpayKeySecret = keySecret
	}

	if sk := os.Getenv("STRIPE_SECRET_KEY"); sk != "" {
		stripe.Key = sk
		p.StripeEnabled = true
		p.StripePublishableKey = os.Getenv("STRIPE_PUBLISHABLE_KEY")
		p.stripeWebhookSecret = os.Getenv("STRIPE_WEBHOOK_SECRET")
	}

	return p
}

// markPaid applies the one-way unpaid→paid transition. payment_status,
// status and paid_at move together in a single UPDATE keyed by the provider
// correlation column. Already-paid orders are excluded, so replaying the
// same confirmation affects zero rows and leaves paid_at where it was.
func markPaid(db *gorm.DB, correlationColumn, correlationID string, extra map[string]interface{}) (int64, error) {
	now := time.Now()
	updates := map[string]interface{}{
		"payment_status": models.PaymentStatusPaid,
		"status":         models.OrderStatusConfirmed,
		"paid_at":        &now,
	}
	for k, v := range extra {
		updates[k] = v
	}

	res := db.Model(&models.Order{}).
		Where(correlationColumn+" = ?", correlationID).
		Where("payment_status <> ?", models.PaymentStatusPaid).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// alreadyPaid reports whether a paid order carries the given correlation id,
// distinguishing a replayed confirmation from a genuinely unknown order.
func alreadyPaid(db *gorm.DB, correlationColumn, correlationID string) (bool, error) {
	var count int64
	err := db.Model(&models.Order{}).
		Where(correlationColumn+" = ?", correlationID).
		Where("payment_status = ?", models.PaymentStatusPaid).
		Count(&count).Error
	return count > 0, err
}

func orderByID(db *gorm.DB, id uint) (*models.Order, error) {
	var order models.Order
	if err := db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}
