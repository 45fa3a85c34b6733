package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	paymentControllers "github.com/divijshrivastava/hisrage/controllers/payment"
)

func SetupPaymentRoutes(api *gin.RouterGroup, db *gorm.DB, providers *paymentControllers.Providers) {
	payments := api.Group("/payments")
	{
		payments.POST("/razorpay/create", paymentControllers.CreateRazorpayOrderHandler(db, providers))
		payments.POST("/razorpay/verify", paymentControllers.VerifyRazorpayPaymentHandler(db, providers))

		payments.POST("/stripe/create", paymentControllers.CreateStripeSessionHandler(db, providers))
		payments.POST("/stripe/webhook", paymentControllers.StripeWebhookHandler(db, providers))

		payments.POST("/cod/confirm", paymentControllers.ConfirmCODOrderHandler(db))
	}
}
