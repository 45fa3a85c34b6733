package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	checkoutControllers "github.com/divijshrivastava/hisrage/controllers/checkout"
	orderControllers "github.com/divijshrivastava/hisrage/controllers/order"
	"github.com/divijshrivastava/hisrage/middleware"
	"github.com/divijshrivastava/hisrage/stock"
	"github.com/divijshrivastava/hisrage/store"
)

func SetupOrderRoutes(api *gin.RouterGroup, db *gorm.DB, carts store.CartStore, ledger *stock.Ledger) {
	orders := api.Group("/orders")
	{
		// Checkout: converts the visitor's cart into an order.
		orders.POST("/create", checkoutControllers.PlaceOrderHandler(db, carts, ledger))

		// The authenticated visitor's own orders.
		orders.GET("/user/all", middleware.RequireUser(), orderControllers.GetUserOrdersHandler(db))

		// Public lookup by order number.
		orders.GET("/:orderNumber", orderControllers.GetOrderByNumberHandler(db))
	}

	admin := api.Group("/admin/orders")
	admin.Use(middleware.ValidateAPIKey)
	{
		admin.GET("/", orderControllers.GetAllOrdersHandler(db))
		admin.GET("/export", orderControllers.ExportOrdersToExcel(db))
		admin.GET("/ws", orderControllers.OrderWebSocketHandler)
		admin.PUT("/:orderNumber", orderControllers.UpdateOrderStatusHandler(db))
	}
}
