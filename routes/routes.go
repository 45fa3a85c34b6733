package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	paymentControllers "github.com/divijshrivastava/hisrage/controllers/payment"
	"github.com/divijshrivastava/hisrage/stock"
	"github.com/divijshrivastava/hisrage/store"
)

// SetupRoutes is the single entry-point that wires up all route groups.
func SetupRoutes(r *gin.Engine, db *gorm.DB, carts store.CartStore, ledger *stock.Ledger, providers *paymentControllers.Providers) {
	api := r.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "message": "HisRage API is running"})
	})

	SetupProductRoutes(api, db)
	SetupCartRoutes(api, db, carts)
	SetupOrderRoutes(api, db, carts, ledger)
	SetupPaymentRoutes(api, db, providers)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
